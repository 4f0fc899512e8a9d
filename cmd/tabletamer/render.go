package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/TableTamer/internal/core"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorError  = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Null   lipgloss.Style
	Border lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Header: lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
	Cell:   lipgloss.NewStyle().Padding(0, 1),
	Null:   lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted),
	Border: lipgloss.NewStyle().Foreground(colorMuted),
	Muted:  lipgloss.NewStyle().Foreground(colorMuted),
	Error:  lipgloss.NewStyle().Bold(true).Foreground(colorError),
}

// maxCellWidth truncates long values so a page stays readable.
const maxCellWidth = 40

// renderView draws the current page with a title and a pager line.
func renderView(v core.View) string {
	if v.State != core.StateReady {
		return styles.Muted.Render("No data loaded.") + "\n"
	}

	headers := make([]string, len(v.VisibleColumns))
	for i, name := range v.VisibleColumns {
		headers[i] = name + sortIndicator(v, name)
	}

	rows := make([][]string, len(v.Rows))
	nulls := make([][]bool, len(v.Rows))
	for i, row := range v.Rows {
		cells := make([]string, len(row.Values))
		isNull := make([]bool, len(row.Values))
		for j, val := range row.Values {
			if val.IsNull() {
				isNull[j] = true
				continue
			}
			cells[j] = truncate(val.Text(), maxCellWidth)
		}
		rows[i] = cells
		nulls[i] = isNull
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if row >= 0 && row < len(nulls) && col < len(nulls[row]) && nulls[row][col] {
				return styles.Null
			}
			return styles.Cell
		}).
		Headers(headers...).
		Rows(rows...)

	var b strings.Builder
	b.WriteString(styles.Title.Render(v.FileName))
	if v.Query != "" {
		b.WriteString(styles.Muted.Render(fmt.Sprintf("  query: %q", v.Query)))
	}
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(pagerLine(v)))
	b.WriteString("\n")
	return b.String()
}

func sortIndicator(v core.View, column string) string {
	if v.SortColumn != column {
		return ""
	}
	if v.SortDirection == core.SortDesc {
		return " ▼"
	}
	return " ▲"
}

func pagerLine(v core.View) string {
	return fmt.Sprintf("Page %d of %d (%d of %d rows)", v.Page, v.PageCount, v.FilteredCount, v.TotalCount)
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// renderReport summarizes an ingestion, including recovered rows.
func renderReport(r core.LoadReport) string {
	line := fmt.Sprintf("Loaded %d rows, %d columns from %s", r.Rows, r.Columns, r.FileName)
	if r.PaddedRows > 0 || r.TruncatedRows > 0 {
		line += fmt.Sprintf(" (%d short rows padded, %d long rows truncated)", r.PaddedRows, r.TruncatedRows)
	}
	return styles.Muted.Render(line)
}
