package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/TableTamer/internal/core"
)

// viewFlags are the view controls shared by inspect and export.
type viewFlags struct {
	query    string
	sort     string
	desc     bool
	hide     []string
	maxSize  int64
	page     int
	pageSize int
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "case-insensitive substring filter across all columns")
	cmd.Flags().StringVarP(&f.sort, "sort", "s", "", "column to sort by")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().StringSliceVar(&f.hide, "hide", nil, "columns to hide (comma separated)")
	cmd.Flags().Int64Var(&f.maxSize, "max-size", core.DefaultMaxFileSize, "maximum file size in bytes")
}

// loadFile parses path into a fresh engine and applies the view flags.
func loadFile(ctx context.Context, path string, f *viewFlags) (*core.Engine, core.LoadReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, core.LoadReport{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	e := core.NewEngine(core.EngineConfig{
		Logger:          slog.Default(),
		MaxFileSize:     f.maxSize,
		DefaultPageSize: f.pageSize,
	})

	_, report, err := e.Load(ctx, file, filepath.Base(path))
	if err != nil {
		return nil, report, err
	}

	if f.query != "" {
		if _, err := e.SetQuery(f.query); err != nil {
			return nil, report, err
		}
	}
	if f.sort != "" {
		dir := core.SortAsc
		if f.desc {
			dir = core.SortDesc
		}
		if _, err := e.SortBy(f.sort, dir); err != nil {
			return nil, report, err
		}
	}
	// Visibility is a toggle, so each column is flipped once however often it
	// is named.
	hidden := make(map[string]bool, len(f.hide))
	for _, col := range f.hide {
		if hidden[col] {
			continue
		}
		hidden[col] = true
		if _, err := e.ToggleColumnVisibility(col); err != nil {
			return nil, report, err
		}
	}
	if f.page > 1 {
		if _, err := e.SetPage(f.page); err != nil {
			return nil, report, err
		}
	}
	return e, report, nil
}

func newInspectCmd() *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print one page of a CSV/TSV file as a table",
		Example: `  tabletamer inspect people.csv
  tabletamer inspect people.csv --query smith --sort age --desc --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, report, err := loadFile(cmd.Context(), args[0], &flags)
			if err != nil {
				return err
			}
			defer e.Close(cmd.Context())

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderReport(report))
			fmt.Fprint(out, renderView(e.View()))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&flags.page, "page", "p", 1, "page to show (clamped to the last page)")
	cmd.Flags().IntVarP(&flags.pageSize, "page-size", "n", core.DefaultPageSize, "rows per page")
	return cmd
}
