package api

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type memoryStatus struct {
	ProcessRSS        uint64  `json:"processRss"`
	ProcessRSSHuman   string  `json:"processRssHuman"`
	SystemUsedPercent float64 `json:"systemUsedPercent"`
}

type healthStatus struct {
	Status     string        `json:"status"`
	Uptime     string        `json:"uptime"`
	Goroutines int           `json:"goroutines"`
	Memory     *memoryStatus `json:"memory,omitempty"`
}

// healthz reports liveness together with process and host memory usage.
// Failing to read memory statistics does not fail the check.
func (s *Server) healthz(c *gin.Context) {
	status := healthStatus{
		Status:     "ok",
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}

	if m, err := readMemory(); err != nil {
		log.Debug("failed to read memory statistics", "error", err)
	} else {
		status.Memory = m
	}

	c.JSON(http.StatusOK, status)
}

func readMemory() (*memoryStatus, error) {
	pid, err := safecast.Convert[int32](os.Getpid())
	if err != nil {
		return nil, err
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return nil, err
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	return &memoryStatus{
		ProcessRSS:        info.RSS,
		ProcessRSSHuman:   humanize.Bytes(info.RSS),
		SystemUsedPercent: vm.UsedPercent,
	}, nil
}
