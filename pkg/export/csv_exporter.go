package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// Column describes one report column. Key selects the cell from a row, Label
// is the rendered heading, Width is a relative width hint for paged output
// (0 means an equal share).
type Column struct {
	Key   string
	Label string
	Width float64
}

// Report is the tabular form of an audit export: a titled, timestamped
// snapshot of governance requests.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Columns     []Column
	Rows        []map[string]string
}

// CSVExporter renders a report into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the report. The title and timestamp
// are not embedded; CSV output carries only headings and rows.
func (e *CSVExporter) Render(report Report) ([]byte, error) {
	if len(report.Columns) == 0 {
		return nil, fmt.Errorf("report requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	labels := make([]string, len(report.Columns))
	for i, column := range report.Columns {
		labels[i] = column.Label
	}
	if err := writer.Write(labels); err != nil {
		return nil, fmt.Errorf("write csv headings: %w", err)
	}

	record := make([]string, len(report.Columns))
	for _, row := range report.Rows {
		for i, column := range report.Columns {
			record[i] = row[column.Key]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
