package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrordex/mirrordex/internal/config"
	"github.com/mirrordex/mirrordex/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded mirror runs",
		Long: `History lists past mirror runs from the local run database.

Every mirror run is recorded with its source URL, counters, and
outcome. The database lives in the XDG data directory
(~/.local/share/mirrordex on Linux). With a run ID argument, history
shows the full record of that single run.

Examples:
  # Show the 20 most recent runs
  mirrordex history

  # Show the last 5 runs
  mirrordex history -n 5

  # Show runs for one mirror only
  mirrordex history --url http://archive.example.com/pub/

  # Show one run in detail
  mirrordex history 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to show (0 = all)")
	cmd.Flags().String("url", "",
		"Only show runs for this root URL")
	cmd.Flags().String("dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrNotFound) {
		// A missing database just means nothing has run yet; anything
		// else (permissions, corruption) is a real failure.
		fmt.Fprintln(cmd.OutOrStdout(), "No mirror runs recorded yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if len(args) == 1 {
		return showRun(cmd, db, args[0])
	}
	return listRuns(cmd, db)
}

// listRuns renders the run table for the list form of the command.
func listRuns(cmd *cobra.Command, db *database.HistoryDB) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	urlFilter, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var runs []database.Run
	if urlFilter != "" {
		runs, err = db.ListRunsForURL(ctx, urlFilter)
		if err == nil && limit > 0 && len(runs) > limit {
			runs = runs[:limit]
		}
	} else {
		runs, err = db.ListRuns(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to query run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No mirror runs recorded yet.")
		return nil
	}

	printRuns(cmd, runs)
	return nil
}

// showRun renders the detail view for one recorded run.
func showRun(cmd *cobra.Command, db *database.HistoryDB, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", rawID, err)
	}

	run, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", id, err)
	}
	if run == nil {
		return fmt.Errorf("no run with ID %d", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run #%d\n", run.ID)
	fmt.Fprintf(out, "  Source:             %s\n", run.RootURL)
	if run.Title != "" {
		fmt.Fprintf(out, "  Title:              %s\n", run.Title)
	}
	fmt.Fprintf(out, "  Status:             %s\n", runStatus(*run))
	fmt.Fprintf(out, "  Started:            %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "  Duration:           %s\n", run.Duration().Round(time.Second))
	fmt.Fprintf(out, "  Directories:        %d\n", run.DirsCrawled)
	fmt.Fprintf(out, "  Files downloaded:   %d\n", run.FilesDownloaded)
	fmt.Fprintf(out, "  Files skipped:      %d\n", run.FilesSkipped)
	fmt.Fprintf(out, "  Bytes downloaded:   %d\n", run.BytesDownloaded)
	if run.DeferredSubtrees > 0 {
		fmt.Fprintf(out, "  Deferred sub-trees: %d\n", run.DeferredSubtrees)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "  Error:              %s\n", run.Error)
	}
	return nil
}

// printRuns renders the run table.
func printRuns(cmd *cobra.Command, runs []database.Run) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tFILES\tBYTES\tSTATUS\tURL")

	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Duration().Round(time.Second),
			run.FilesDownloaded,
			run.BytesDownloaded,
			runStatus(run),
			run.RootURL,
		)
	}

	_ = w.Flush() //nolint:errcheck // Best effort terminal output
}

// runStatus summarizes the recorded outcome of one run.
func runStatus(run database.Run) string {
	switch {
	case run.Error != "":
		return "failed"
	case run.LimitReached:
		return "limit"
	case run.DeferredSubtrees > 0:
		return "partial"
	default:
		return "ok"
	}
}
