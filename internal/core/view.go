package core

// view.go chains Filter, Sort and pagination into the displayed page.
//
// The composer is a pure function of (Dataset, column metadata, view state).
// The engine calls it after every state change and keeps the filtered-sorted
// sequence so that edits and exports address exactly what was displayed.

// PageCount returns max(1, ceil(filtered/pageSize)).
func PageCount(filtered, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if filtered <= 0 {
		return 1
	}
	return (filtered + pageSize - 1) / pageSize
}

// ClampPage bounds page to [1, pageCount].
func ClampPage(page, pageCount int) int {
	if page > pageCount {
		page = pageCount
	}
	if page < 1 {
		page = 1
	}
	return page
}

// VisibleColumns returns the names of visible columns in dataset order.
func VisibleColumns(columns []Column) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c.Visible {
			out = append(out, c.Name)
		}
	}
	return out
}

// DeriveRows filters then sorts the dataset for the view state. The result
// spans all pages.
func DeriveRows(ds *Dataset, columns []Column, vs ViewState) []*Record {
	filtered := Filter(ds.Records(), vs.Query)

	col := -1
	colType := TypeUnknown
	if vs.SortColumn != "" {
		col = ds.ColumnIndex(vs.SortColumn)
		for _, c := range columns {
			if c.Name == vs.SortColumn {
				colType = c.Type
				break
			}
		}
	}
	return Sort(filtered, col, vs.SortDirection, colType)
}

// ComposeView derives the filtered-sorted sequence and slices the current
// page out of it. The returned View carries the clamped page.
func ComposeView(ds *Dataset, columns []Column, vs ViewState) (View, []*Record) {
	rows := DeriveRows(ds, columns, vs)
	return pageView(ds, columns, vs, rows), rows
}

// pageView builds the View for an already derived sequence.
func pageView(ds *Dataset, columns []Column, vs ViewState, rows []*Record) View {
	pageSize := vs.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageCount := PageCount(len(rows), pageSize)
	page := ClampPage(vs.Page, pageCount)

	visible := VisibleColumns(columns)
	visIdx := make([]int, len(visible))
	for i, name := range visible {
		visIdx[i] = ds.ColumnIndex(name)
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}

	pageRows := make([]RowView, 0, end-start)
	for i := start; i < end; i++ {
		rec := rows[i]
		vals := make([]Value, len(visIdx))
		for j, idx := range visIdx {
			vals[j] = cellAt(rec, idx)
		}
		pageRows = append(pageRows, RowView{ID: rec.ID, Index: i - start, Values: vals})
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)

	return View{
		State:          StateReady,
		Columns:        cols,
		VisibleColumns: visible,
		Query:          vs.Query,
		SortColumn:     vs.SortColumn,
		SortDirection:  vs.SortDirection,
		Page:           page,
		PageSize:       pageSize,
		PageCount:      pageCount,
		FilteredCount:  len(rows),
		TotalCount:     ds.Len(),
		Rows:           pageRows,
	}
}

// emptyView is the view of an engine with no dataset.
func emptyView(state State, vs ViewState) View {
	pageSize := vs.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return View{
		State:          state,
		Columns:        []Column{},
		VisibleColumns: []string{},
		Query:          vs.Query,
		SortColumn:     vs.SortColumn,
		SortDirection:  vs.SortDirection,
		Page:           1,
		PageSize:       pageSize,
		PageCount:      1,
		Rows:           []RowView{},
	}
}
