// Package export renders metric samples as CSV or as an xlsx workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/neurodash/neurodash/internal/database"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a query value to a Format. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// Header is the column order of every export.
var Header = []string{
	"id",
	"userId",
	"timestamp",
	"heartRate",
	"stressLevel",
	"sleepQuality",
	"neuralActivity",
	"dailySteps",
	"sleepDuration",
}

// Filename returns the attachment file name for a user.
func Filename(userID uint, f Format) string {
	return fmt.Sprintf("health-metrics-%d.%s", userID, f)
}

// NoData is the body returned when a user has no samples.
func NoData(userID uint) string {
	return fmt.Sprintf("no data available for user %d\n", userID)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Row returns the cells of a sample in Header order. Missing optional values are empty.
func Row(s database.MetricSample) []string {
	steps := ""
	if s.DailySteps != nil {
		steps = strconv.FormatInt(*s.DailySteps, 10)
	}
	duration := ""
	if s.SleepDuration != nil {
		duration = formatFloat(*s.SleepDuration)
	}
	return []string{
		strconv.FormatUint(uint64(s.ID), 10),
		strconv.FormatUint(uint64(s.UserID), 10),
		s.Timestamp.UTC().Format(time.RFC3339Nano),
		formatFloat(s.HeartRate),
		formatFloat(s.StressLevel),
		formatFloat(s.SleepQuality),
		formatFloat(s.NeuralActivity),
		steps,
		duration,
	}
}

// WriteCSV writes the header and one line per sample.
func WriteCSV(w io.Writer, samples []database.MetricSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write(Row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
