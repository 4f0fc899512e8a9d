package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/TableTamer/internal/config"
	"github.com/JonMunkholm/TableTamer/internal/core"
	"github.com/JonMunkholm/TableTamer/internal/store"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions persisted in the configured store",
		Long: `sessions opens the store named by STORE_DRIVER (and STORE_PATH or
DATABASE_URL) and lists every saved session. A badger store can only be
opened while the server is not running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(st store.Store, prefix string) error {
				return listSessions(cmd.Context(), st, prefix, cmd.OutOrStdout())
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete persisted sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(st store.Store, prefix string) error {
				for _, id := range args {
					if err := st.Delete(cmd.Context(), prefix+id); err != nil {
						return fmt.Errorf("delete session %s: %w", id, err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
				}
				return nil
			})
		},
	})
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(st store.Store, prefix string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Store, slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st, cfg.Store.KeyPrefix)
}

// sessionSummary is one line of the sessions listing.
type sessionSummary struct {
	ID       string
	FileName string
	Rows     int
	Columns  int
	PageSize int
	Sort     string
	Err      error
}

// summarize decodes a saved snapshot. Undecodable entries are reported, not
// skipped, so they can be removed.
func summarize(id string, data []byte) sessionSummary {
	s := sessionSummary{ID: id}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.Err = err
		return s
	}
	s.FileName = snap.FileName
	s.Rows = len(snap.Data)
	s.Columns = len(snap.Columns)
	s.PageSize = snap.PageSize
	if snap.SortColumn != nil {
		s.Sort = *snap.SortColumn + " " + string(snap.SortDirection)
	}
	return s
}

func listSessions(ctx context.Context, st store.Store, prefix string, w io.Writer) error {
	keys, err := st.Keys(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No saved sessions."))
		return nil
	}

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		data, err := st.Get(ctx, key)
		if err != nil {
			// Deleted between Keys and Get.
			continue
		}
		s := summarize(strings.TrimPrefix(key, prefix), data)
		if s.Err != nil {
			rows = append(rows, []string{s.ID, "(unreadable)", "", "", "", ""})
			continue
		}
		rows = append(rows, []string{
			s.ID,
			s.FileName,
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Columns),
			strconv.Itoa(s.PageSize),
			s.Sort,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		}).
		Headers("session", "file", "rows", "columns", "page size", "sort").
		Rows(rows...)

	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("%d sessions", len(rows))))
	return nil
}
