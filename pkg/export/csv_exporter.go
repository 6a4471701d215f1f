package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet tools detect accented region and survey names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes a Dataset as a header line followed by one record per row.
type CSVExporter struct {
	withBOM bool
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{withBOM: true}
}

func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (e *CSVExporter) Extension() string { return "csv" }

func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if e.withBOM {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(data.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
