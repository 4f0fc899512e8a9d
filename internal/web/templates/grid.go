package templates

import (
	"fmt"

	"github.com/JonMunkholm/TableTamer/internal/core"
)

func sortIndicator(v core.View, column string) string {
	if v.SortColumn != column {
		return ""
	}
	if v.SortDirection == core.SortDesc {
		return " ▼"
	}
	return " ▲"
}

// columnAt names the visible column of the i-th cell in a row.
func columnAt(v core.View, i int) string {
	if i < len(v.VisibleColumns) {
		return v.VisibleColumns[i]
	}
	return ""
}

func pagerText(v core.View) string {
	return fmt.Sprintf("Page %d of %d (%d of %d rows)", v.Page, v.PageCount, v.FilteredCount, v.TotalCount)
}
