// Package core provides the tabular data engine.
// This package has no UI dependencies and can be used by any frontend.
package core

import "strings"

// ColumnType is the inferred semantic type of a column.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeDecimal ColumnType = "decimal"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
	TypeString  ColumnType = "string"
	TypeUnknown ColumnType = "unknown"
)

// Valid reports whether t is one of the known type tags.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeInteger, TypeDecimal, TypeDate, TypeBoolean, TypeString, TypeUnknown:
		return true
	}
	return false
}

// SortDirection is the ordering applied by the sort stage.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection normalizes a direction string. Anything other than
// "desc" (case-insensitive) is ascending.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// State is the lifecycle state of an engine.
type State string

const (
	StateEmpty   State = "empty"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// DefaultPageSize is used when no page size has been chosen.
const DefaultPageSize = 25

// RecordID identifies a record for the lifetime of a loaded dataset.
// IDs are assigned in ingestion order and never reused within a dataset.
type RecordID uint64

// Record is one row of the canonical dataset. Values are positional and
// follow the dataset's column order.
type Record struct {
	ID     RecordID
	Values []Value
}

// clone returns a deep copy of the record.
func (r *Record) clone() *Record {
	values := make([]Value, len(r.Values))
	copy(values, r.Values)
	return &Record{ID: r.ID, Values: values}
}

// Column holds the metadata for a single column.
type Column struct {
	Name    string     `json:"name"`
	Visible bool       `json:"visible"`
	Type    ColumnType `json:"type"`
}

// ViewState is the user-controlled part of what is displayed.
type ViewState struct {
	Query         string
	SortColumn    string // empty when unsorted
	SortDirection SortDirection
	Page          int
	PageSize      int
}

// defaultViewState returns the view state of a fresh session.
func defaultViewState(pageSize int) ViewState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ViewState{
		SortDirection: SortAsc,
		Page:          1,
		PageSize:      pageSize,
	}
}

// RowView is a single displayed row, restricted to visible columns.
type RowView struct {
	ID     RecordID `json:"id"`
	Index  int      `json:"index"` // position within the current page
	Values []Value  `json:"values"`
}

// View is the recomputed result handed to collaborators after every
// state-changing operation.
type View struct {
	State          State         `json:"state"`
	FileName       string        `json:"fileName"`
	Columns        []Column      `json:"columns"`
	VisibleColumns []string      `json:"visibleColumns"`
	Query          string        `json:"query"`
	SortColumn     string        `json:"sortColumn,omitempty"`
	SortDirection  SortDirection `json:"sortDirection"`
	Page           int           `json:"page"`
	PageSize       int           `json:"pageSize"`
	PageCount      int           `json:"pageCount"`
	FilteredCount  int           `json:"filteredCount"`
	TotalCount     int           `json:"totalCount"`
	Rows           []RowView     `json:"rows"`
}

// LoadReport summarizes a successful ingestion.
type LoadReport struct {
	FileName      string `json:"fileName"`
	Rows          int    `json:"rows"`
	Columns       int    `json:"columns"`
	PaddedRows    int    `json:"paddedRows"`    // rows shorter than the header
	TruncatedRows int    `json:"truncatedRows"` // rows with fields beyond the header
}

// TransformKind selects a draft transform.
type TransformKind string

const (
	TransformUpper TransformKind = "upper"
	TransformLower TransformKind = "lower"
	TransformTitle TransformKind = "title"
	TransformClear TransformKind = "clear"
)

// EditDraft is an uncommitted edit of a single cell.
type EditDraft struct {
	Row      int      `json:"row"` // view-relative index at the time the edit began
	RecordID RecordID `json:"recordId"`
	Column   string   `json:"column"`
	Value    string   `json:"value"`
	Original string   `json:"original"`
}

// ExportFormat selects an export rendering.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, true
	case FormatJSON:
		return FormatJSON, true
	case FormatXLSX:
		return FormatXLSX, true
	}
	return "", false
}

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// ExportResult is a rendered export ready for download.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
	Rows        int
}
