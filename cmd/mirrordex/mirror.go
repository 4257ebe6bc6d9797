package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrordex/mirrordex/internal/config"
	"github.com/mirrordex/mirrordex/internal/crawler"
	"github.com/mirrordex/mirrordex/internal/database"
	"github.com/mirrordex/mirrordex/internal/download"
	"github.com/mirrordex/mirrordex/internal/log"
	"github.com/mirrordex/mirrordex/internal/model"
	"github.com/mirrordex/mirrordex/internal/report"
	"github.com/mirrordex/mirrordex/internal/state"
	"github.com/mirrordex/mirrordex/internal/web"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <url>",
		Short: "Mirror a directory listing into a local tree",
		Long: `Mirror crawls an auto-generated "Index of" listing page, discovers the
full directory tree beneath it, and downloads every file into a local
directory that mirrors the remote layout.

With --state, the crawl tree and the list of downloaded files are
checkpointed to a JSON file after every round of network activity.
Re-running the same command resumes from the checkpoint: a completed
crawl is trusted without re-fetching pages, and files already in the
checkpoint are skipped.

Examples:
  # Mirror a listing into the current directory
  mirrordex mirror http://archive.example.com/pub/

  # Resumable mirror with a checkpoint file
  mirrordex mirror -s mirror.json -o ./pub http://archive.example.com/pub/

  # Crawl only, recording the tree without downloading
  mirrordex mirror --no-download -s mirror.json http://archive.example.com/pub/

  # Cap one run at 500 files or 1 GiB, whichever comes first
  mirrordex mirror -s mirror.json --max-files 500 --max-bytes 1073741824 http://archive.example.com/pub/

Configuration file (.mirrordex) example:
  sites:
    archive.example.com:
      userAgent: "my-mirror-bot/1.0"
      timeout: 120s
      headers:
        Authorization: "Basic dXNlcjpwYXNz"`,
		Args: cobra.ExactArgs(1),
		RunE: runMirrorCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", ".",
		"Local directory the tree is mirrored into")
	cmd.Flags().StringP("state", "s", "",
		"Checkpoint file path enabling resume (e.g. mirror.json)")

	// Crawl and download behavior flags
	cmd.Flags().Bool("no-download", false,
		"Crawl and checkpoint the tree without downloading files (requires --state)")
	cmd.Flags().Int("max-files", 0,
		"Maximum files to download in this run (0 = unlimited)")
	cmd.Flags().Int64("max-bytes", 0,
		"Maximum bytes to download in this run (0 = unlimited)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mirrordex in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write run summary to specified file path (creates directories if needed)")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Context with signal handling for graceful shutdown. Cancelling
	// mid-run leaves a valid checkpoint behind.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runMirror(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// Precedence, lowest to highest: defaults, config file, environment,
// flags the user explicitly set.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.URL = args[0]

	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.StatePath, err = cmd.Flags().GetString("state")
	if err != nil {
		return nil, err
	}

	cfg.NoDownload, err = cmd.Flags().GetBool("no-download")
	if err != nil {
		return nil, err
	}

	cfg.MaxFiles, err = cmd.Flags().GetInt("max-files")
	if err != nil {
		return nil, err
	}

	cfg.MaxBytes, err = cmd.Flags().GetInt64("max-bytes")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host configurations from the config file.
	// If the user explicitly specified a config file path, error if not
	// found. If no path was given, silently run without one.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	// Environment and per-host overrides sit below explicit flags.
	cfg.LoadEnv()
	cfg.ApplySite()

	if cmd.Flags().Changed("timeout") {
		cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("user-agent") {
		cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("proxy") {
		cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
		if err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Run history always goes to the XDG data directory.
	cfg.HistoryDir = config.XDGDataDir()

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// All output runs through the redacting handler so credentials never
// reach the terminal or log files.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// runMirror executes the full mirror run: crawl, download, report.
func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	summary := &report.Summary{
		RootURL:   cfg.URL,
		StartedAt: time.Now(),
	}

	client, err := newWebClient(cfg)
	if err != nil {
		return err
	}

	var store *state.Store
	if cfg.StatePath != "" {
		store = state.Load(cfg.StatePath)
	} else {
		store = state.New()
	}

	runErr := mirrorOnce(ctx, cfg, client, store, summary, logger)

	summary.FinishedAt = time.Now()
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	if err := outputSummary(cfg, summary); err != nil {
		logger.Error("failed to write run summary", "error", err)
	}
	if err := recordRun(ctx, cfg, summary, logger); err != nil {
		logger.Error("failed to record run history", "error", err)
	}

	return runErr
}

// mirrorOnce runs the crawl and download phases, filling in the
// summary as it goes. Checkpoints are written after every round of
// network activity so an aborted run loses at most one round.
func mirrorOnce(ctx context.Context, cfg *config.Config, client *web.Client, store *state.Store, summary *report.Summary, logger *slog.Logger) error {
	expander := crawler.New(client, crawler.WithLogger(logger))

	root, err := crawlTree(ctx, cfg, expander, store, summary, logger)
	if err != nil {
		return err
	}

	summary.Title = root.Meta.Name
	summary.TotalFiles = root.CountFiles()

	if cfg.NoDownload {
		logger.Info("crawl finished, downloads disabled",
			"files", summary.TotalFiles, "state", cfg.StatePath)
		return nil
	}

	return downloadTree(ctx, cfg, client, expander, store, root, summary, logger)
}

// crawlTree produces a fully expanded tree, reusing a completed
// checkpoint when one exists and resuming a partial one otherwise.
func crawlTree(ctx context.Context, cfg *config.Config, expander *crawler.Expander, store *state.Store, summary *report.Summary, logger *slog.Logger) (*model.Node, error) {
	if store.Crawling.Phase == state.PhaseComplete && store.Root() != nil {
		logger.Info("reusing checkpointed crawl",
			"files", store.Root().CountFiles(), "state", cfg.StatePath)
		return store.Root(), nil
	}

	root := store.Root()
	if root == nil {
		// A root fetch failure is fatal: no partial state exists yet.
		var err error
		root, err = expander.FetchRoot(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		summary.DirsCrawled++
		store.SetPartial(root)
		checkpoint(cfg.StatePath, store, logger)
	} else {
		logger.Info("resuming partial crawl",
			"pending", root.CountPending(), "state", cfg.StatePath)
	}

	// Expand one frontier level per round, checkpointing between
	// rounds. The snapshot keeps newly created pending directories out
	// of the current round.
	for {
		frontier := collectPending(root)
		if len(frontier) == 0 {
			break
		}

		for _, node := range frontier {
			if err := expander.Expand(ctx, node); err != nil {
				store.SetPartial(root)
				checkpoint(cfg.StatePath, store, logger)
				return nil, err
			}
			summary.DirsCrawled++
		}

		store.SetPartial(root)
		checkpoint(cfg.StatePath, store, logger)
	}

	store.SetComplete(root)
	checkpoint(cfg.StatePath, store, logger)
	logger.Info("crawl complete",
		"directories", summary.DirsCrawled, "files", root.CountFiles())

	return root, nil
}

// downloadTree drives the traversal over the expanded tree, re-queuing
// deferred sub-trees until the tree is exhausted, a limit is hit, or
// an error aborts the run.
func downloadTree(ctx context.Context, cfg *config.Config, client *web.Client, expander *crawler.Expander, store *state.Store, root *model.Node, summary *report.Summary, logger *slog.Logger) error {
	traverser, err := download.NewTraverser(client, cfg.URL, cfg.OutputDir,
		download.WithMaxFiles(cfg.MaxFiles),
		download.WithMaxBytes(cfg.MaxBytes),
		download.WithTraverserLogger(logger),
	)
	if err != nil {
		return err
	}

	done := store.Done()
	counters := &download.Counters{}

	queue := []*model.Node{root}
	var runErr error
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		// The traversal hands back pending directories it finds; they
		// come from checkpoints whose tree was not fully expanded.
		// Expand before walking so the subtree is not silently lost.
		if node.IsPending() {
			if err := expander.Expand(ctx, node); err != nil {
				store.SetDone(done)
				checkpoint(cfg.StatePath, store, logger)
				runErr = err
				break
			}
			summary.DirsCrawled++
			summary.TotalFiles = root.CountFiles()
			store.SetComplete(root)
		}

		res, err := traverser.Run(ctx, node, counters, done)
		if res != nil {
			summary.FilesSkipped += res.Skipped
			if res.LimitReached {
				summary.LimitReached = true
			}
			queue = append(queue, res.Deferred...)
		}

		// Checkpoint the done-list after every batch so completed
		// downloads survive an abort in the next one.
		store.SetDone(done)
		checkpoint(cfg.StatePath, store, logger)

		if err != nil {
			runErr = err
			break
		}
		if summary.LimitReached {
			break
		}
	}

	summary.FilesDownloaded = counters.Files
	summary.BytesDownloaded = counters.Bytes
	summary.DeferredSubtrees = len(queue)

	switch {
	case runErr != nil:
		logger.Error("mirror run aborted",
			"downloaded", counters.Files, "error", runErr)
	case summary.LimitReached:
		logger.Info("mirror run stopped at limit",
			"downloaded", counters.Files, "bytes", counters.Bytes,
			"deferred", len(queue))
	default:
		logger.Info("mirror run complete",
			"downloaded", counters.Files, "bytes", counters.Bytes,
			"skipped", summary.FilesSkipped)
	}

	return runErr
}

// collectPending gathers every pending directory currently in the tree.
func collectPending(root *model.Node) []*model.Node {
	var pending []*model.Node
	root.Walk(func(n *model.Node) {
		if n.IsPending() {
			pending = append(pending, n)
		}
	})
	return pending
}

// checkpoint persists the store when checkpointing is enabled. A save
// failure is logged rather than returned: losing a checkpoint round is
// recoverable, aborting the run over it is not worth it.
func checkpoint(path string, store *state.Store, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := store.Save(path); err != nil {
		logger.Warn("failed to save checkpoint", "path", path, "error", err)
	}
}

// newWebClient builds the HTTP client from the run configuration,
// including per-host headers from the config file.
func newWebClient(cfg *config.Config) (*web.Client, error) {
	opts := []web.Option{
		web.WithTimeout(cfg.Timeout),
		web.WithUserAgent(cfg.UserAgent),
		web.WithMaxListingSize(cfg.MaxListingSize),
	}

	if cfg.Sites != nil {
		if u, err := urlHost(cfg.URL); err == nil {
			site := cfg.Sites.ForHost(u)
			if len(site.Headers) > 0 {
				opts = append(opts, web.WithHeaders(site.Headers))
			}
		}
	}

	if cfg.ProxyAddress != "" {
		opts = append(opts, web.WithSOCKS5Proxy(cfg.ProxyAddress))
	}

	return web.NewClient(opts...)
}

// urlHost extracts the host component of a raw URL.
func urlHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("no host in URL")
	}
	return u.Host, nil
}

// outputSummary writes the run summary in the requested format. When a
// report file is requested, the file gets the chosen format and the
// terminal still shows the text summary.
func outputSummary(cfg *config.Config, summary *report.Summary) error {
	if cfg.ReportFile == "" {
		_, err := formatWriter(cfg, os.Stdout).Write(summary)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := report.NewMultiWriter(
		formatWriter(cfg, f),
		report.NewTextWriter(os.Stdout, report.WithVerbose(cfg.Verbose)),
	)
	_, err = writer.Write(summary)
	return err
}

// formatWriter picks the summary writer for the configured format.
func formatWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// recordRun appends the summary to the run-history database.
// If history recording is disabled, this function is a no-op.
func recordRun(ctx context.Context, cfg *config.Config, summary *report.Summary, logger *slog.Logger) error {
	if cfg.HistoryDir == "" {
		return nil
	}

	db, err := database.Open(cfg.HistoryDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	id, err := db.InsertRun(ctx, summary)
	if err != nil {
		return err
	}

	logger.Debug("run recorded", "id", id, "db", db.Path())
	return nil
}
