package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/export"
)

// Export sends the newest metric samples of a user as a CSV or xlsx attachment.
func (h *Handler) Export(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	samples, err := h.engine.ListMetrics(c.Request.Context(), userID, database.DefaultMetricLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(samples) == 0 {
		c.String(http.StatusOK, export.NoData(userID))
		return
	}

	var body []byte
	switch format {
	case export.FormatXLSX:
		body, err = export.XLSX(samples)
	default:
		var buf bytes.Buffer
		err = export.WriteCSV(&buf, samples)
		body = buf.Bytes()
	}
	if err != nil {
		log.Error("failed to render export", "user_id", userID, "format", format, "error", err)
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(userID, format)))
	c.Data(http.StatusOK, format.ContentType(), body)
}
