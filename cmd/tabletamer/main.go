// Command tabletamer inspects and exports delimited files from the terminal,
// and lists the sessions persisted by the server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/TableTamer/internal/core"
	"github.com/JonMunkholm/TableTamer/internal/logging"
)

// Exit codes.
const (
	exitSuccess = 0
	exitError   = 1
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tabletamer",
		Short: "Inspect, filter, sort and export CSV/TSV files",
		Long: `tabletamer loads a CSV or TSV file into the same engine the server uses,
applies a query, sort and column visibility, and prints a page or exports
the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so stdout stays clean for exports.
			slog.SetDefault(logging.New(os.Stderr, logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newInspectCmd(), newExportCmd(), newSessionsCmd())
	return root
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		msg := err.Error()
		if core.IsUserFacing(err) {
			msg = core.FormatUserError(err)
		}
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: ")+msg)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
