package export

import "fmt"

// Column describes one field of an export. Numeric columns are right aligned in PDFs.
type Column struct {
	Header  string
	Numeric bool
}

// Dataset is a rendered-agnostic report table. Every row holds one cell per column.
type Dataset struct {
	Title    string
	Subtitle string
	Columns  []Column
	Rows     [][]string
}

// Headers lists the column headers in order.
func (d Dataset) Headers() []string {
	headers := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		headers[i] = col.Header
	}
	return headers
}

func (d Dataset) validate() error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("dataset %q has no columns", d.Title)
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return fmt.Errorf("dataset %q row %d has %d cells, want %d", d.Title, i, len(row), len(d.Columns))
		}
	}
	return nil
}
