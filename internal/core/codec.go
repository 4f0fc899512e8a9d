package core

// codec.go renders a projection of records into export documents.
//
// Every format receives the full filtered and sorted row set (never just the
// current page) restricted to the visible columns, in dataset column order.

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// projection maps output column names to their positions in a record.
type projection struct {
	names []string
	index []int
}

// newProjection selects the visible columns in dataset order.
func newProjection(columns []string, visible []string) projection {
	want := make(map[string]bool, len(visible))
	for _, v := range visible {
		want[v] = true
	}

	p := projection{}
	for i, name := range columns {
		if want[name] {
			p.names = append(p.names, name)
			p.index = append(p.index, i)
		}
	}
	return p
}

func (p projection) values(rec *Record) []Value {
	out := make([]Value, len(p.index))
	for i, idx := range p.index {
		out[i] = cellAt(rec, idx)
	}
	return out
}

// Render serializes rows restricted to the visible columns.
func Render(rows []*Record, columns, visible []string, format ExportFormat) ([]byte, error) {
	p := newProjection(columns, visible)

	switch format {
	case FormatCSV:
		return renderCSV(rows, p)
	case FormatJSON:
		return renderJSON(rows, p)
	case FormatXLSX:
		return renderXLSX(rows, p)
	default:
		return nil, &ExportError{Format: string(format), Err: ErrUnsupportedFormat}
	}
}

func renderCSV(rows []*Record, p projection) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(p.names); err != nil {
		return nil, &ExportError{Format: string(FormatCSV), Err: fmt.Errorf("write header: %w", err)}
	}

	line := make([]string, len(p.index))
	for _, rec := range rows {
		for i, idx := range p.index {
			line[i] = cellAt(rec, idx).Text()
		}
		if err := w.Write(line); err != nil {
			return nil, &ExportError{Format: string(FormatCSV), Err: fmt.Errorf("write row %d: %w", rec.ID, err)}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &ExportError{Format: string(FormatCSV), Err: err}
	}
	return buf.Bytes(), nil
}

// renderJSON writes an indented array of objects whose keys keep column
// order, which encoding/json cannot do for maps.
func renderJSON(rows []*Record, p projection) ([]byte, error) {
	if len(rows) == 0 {
		return []byte("[]"), nil
	}

	keys := make([][]byte, len(p.names))
	for i, name := range p.names {
		k, err := json.Marshal(name)
		if err != nil {
			return nil, &ExportError{Format: string(FormatJSON), Err: err}
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteString("[\n")
	for r, rec := range rows {
		if len(p.index) == 0 {
			buf.WriteString("  {}")
		} else {
			buf.WriteString("  {\n")
			for i, idx := range p.index {
				val, err := cellAt(rec, idx).MarshalJSON()
				if err != nil {
					return nil, &ExportError{Format: string(FormatJSON), Err: err}
				}
				buf.WriteString("    ")
				buf.Write(keys[i])
				buf.WriteString(": ")
				buf.Write(val)
				if i < len(p.index)-1 {
					buf.WriteByte(',')
				}
				buf.WriteByte('\n')
			}
			buf.WriteString("  }")
		}
		if r < len(rows)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]")
	return buf.Bytes(), nil
}

func renderXLSX(rows []*Record, p projection) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	wrap := func(err error) error {
		return &ExportError{Format: string(FormatXLSX), Err: err}
	}

	header := make([]interface{}, len(p.names))
	for i, name := range p.names {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, wrap(err)
	}

	line := make([]interface{}, len(p.index))
	for r, rec := range rows {
		for i, v := range p.values(rec) {
			if v.IsNull() {
				line[i] = ""
			} else {
				line[i] = v.Interface()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, wrap(err)
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return nil, wrap(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, wrap(err)
	}
	return buf.Bytes(), nil
}

// ExportFileName derives the download name from the source file name:
// "sales.csv" becomes "sales_export.json" for a JSON export.
func ExportFileName(source string, format ExportFormat) string {
	base := filepath.Base(strings.TrimSpace(source))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "export." + string(format)
	}
	return base + "_export." + string(format)
}
