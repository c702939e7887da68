package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/neurodash/neurodash/internal/database"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Health Metrics"

// XLSX renders the samples into a single sheet workbook with a frozen header row.
func XLSX(samples []database.MetricSample) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(sheetName, "C", "C", 32); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, s := range samples {
		row := i + 2
		for col, value := range cellValues(s) {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValues returns typed cell values in Header order, nil for empty cells.
// Timestamps are written as RFC 3339 text to keep the zone explicit.
func cellValues(s database.MetricSample) []any {
	values := []any{
		s.ID,
		s.UserID,
		s.Timestamp.UTC().Format(time.RFC3339Nano),
		s.HeartRate,
		s.StressLevel,
		s.SleepQuality,
		s.NeuralActivity,
		nil,
		nil,
	}
	if s.DailySteps != nil {
		values[7] = *s.DailySteps
	}
	if s.SleepDuration != nil {
		values[8] = *s.SleepDuration
	}
	return values
}
