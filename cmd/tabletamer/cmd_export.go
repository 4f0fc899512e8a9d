package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/TableTamer/internal/core"
)

func newExportCmd() *cobra.Command {
	var (
		flags  viewFlags
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the filtered and sorted rows as csv, json or xlsx",
		Long: `Export writes every row matching the query, in sort order, restricted to
visible columns. csv and json go to stdout unless --out is given; xlsx is
always written to a file, named after the source when --out is omitted.`,
		Example: `  tabletamer export people.csv --format json --query smith
  tabletamer export people.csv --format xlsx --hide email --out people.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := core.ParseExportFormat(format)
			if !ok {
				return &core.ExportError{Format: format, Err: core.ErrUnsupportedFormat}
			}

			e, _, err := loadFile(cmd.Context(), args[0], &flags)
			if err != nil {
				return err
			}
			defer e.Close(cmd.Context())

			res, err := e.Export(f)
			if err != nil {
				return err
			}

			if out == "" && f == core.FormatXLSX {
				out = res.FileName
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(res.Content)
				return err
			}

			if err := os.WriteFile(out, res.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), styles.Muted.Render(fmt.Sprintf("Wrote %d rows to %s", res.Rows, out)))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(core.FormatCSV), "export format: csv, json, xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout for csv and json)")
	return cmd
}
