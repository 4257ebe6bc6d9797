package download

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/mirrordex/mirrordex/internal/model"
	"github.com/mirrordex/mirrordex/internal/state"
	"github.com/mirrordex/mirrordex/internal/web"
)

// depthBudget is how many directory levels below the entry node one
// Run call descends into. Directories past the budget are deferred to
// the continuation queue, which is what lets the orchestrator write a
// checkpoint between levels. Changing this changes checkpoint
// granularity, not correctness.
const depthBudget = 1

// Result reports the outcome of one traversal call.
type Result struct {
	// Deferred lists sub-trees that still need processing: directories
	// past the depth budget, pending directories (a crawl gap), and
	// directories left behind when a limit was hit. Empty means the
	// subtree was fully processed.
	Deferred []*model.Node

	// LimitReached is set when a file or byte limit stopped the
	// traversal. The orchestrator uses it to stop re-driving the
	// continuation queue instead of spinning on an exhausted budget.
	LimitReached bool

	// Skipped counts files left untouched because the done-list
	// already contained them.
	Skipped int
}

// Done reports whether the subtree was fully processed.
func (r *Result) Done() bool {
	return len(r.Deferred) == 0
}

// Traverser downloads the files of an expanded tree in listing order.
type Traverser struct {
	// client streams file bodies to disk.
	client *web.Client

	// rootURL anchors destination paths: a file's local path is its
	// URL path relative to the root listing's path.
	rootURL *url.URL

	// outputDir is the local mirror root.
	outputDir string

	// maxFiles limits downloads per run. Zero means unlimited.
	maxFiles int

	// maxBytes limits downloaded bytes per run. Zero means unlimited.
	maxBytes int64

	// logger for per-file logging.
	logger *slog.Logger
}

// TraverserOption configures a Traverser.
type TraverserOption func(*Traverser)

// WithMaxFiles limits how many files one run may download.
func WithMaxFiles(n int) TraverserOption {
	return func(t *Traverser) {
		t.maxFiles = n
	}
}

// WithMaxBytes limits how many bytes one run may download.
func WithMaxBytes(n int64) TraverserOption {
	return func(t *Traverser) {
		t.maxBytes = n
	}
}

// WithTraverserLogger sets a custom logger for the traverser.
func WithTraverserLogger(logger *slog.Logger) TraverserOption {
	return func(t *Traverser) {
		t.logger = logger
	}
}

// NewTraverser creates a Traverser mirroring the tree rooted at
// rootURL into outputDir.
func NewTraverser(client *web.Client, rootURL, outputDir string, opts ...TraverserOption) (*Traverser, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL %q: %w", rootURL, err)
	}

	t := &Traverser{
		client:    client,
		rootURL:   root,
		outputDir: outputDir,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Run processes one subtree: the node's immediate children plus exactly
// one further directory level. Anything deeper comes back in the
// Result's continuation queue for the orchestrator to re-invoke.
//
// Files already present in done are skipped, which makes repeated runs
// over the same tree idempotent. Each successful download is recorded
// in done before the next file starts, so a failure part-way through
// loses at most the file that failed. Any download error aborts the
// whole call; the orchestrator checkpoints done before surfacing it.
func (t *Traverser) Run(ctx context.Context, node *model.Node, counters *Counters, done *state.DoneList) (*Result, error) {
	res := &Result{}
	if err := t.walk(ctx, node, depthBudget, counters, done, res); err != nil {
		return res, err
	}
	return res, nil
}

// walk processes node's children. depth is the remaining directory
// recursion budget for this call.
func (t *Traverser) walk(ctx context.Context, node *model.Node, depth int, counters *Counters, done *state.DoneList, res *Result) error {
	for _, child := range node.Children {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Once a limit is hit, the remainder of the call downloads
		// nothing: remaining files wait for the next run (the
		// done-list keeps re-runs cheap) and remaining directories are
		// deferred so the caller still learns about them.
		if res.LimitReached {
			if child.IsDir() || child.IsPending() {
				res.Deferred = append(res.Deferred, child)
			}
			continue
		}

		switch {
		case child.IsFile():
			if done.Contains(child.Meta.URL) {
				res.Skipped++
				t.logger.Debug("already downloaded", "url", web.RedactURL(child.Meta.URL))
				continue
			}
			if t.limitReached(counters) {
				res.LimitReached = true
				continue
			}
			if err := t.downloadFile(ctx, child, counters, done); err != nil {
				return err
			}

		case child.IsPending():
			// A pending directory here means the crawl did not finish
			// expanding the tree. Not an error: hand it back for the
			// orchestrator to expand and re-drive.
			t.logger.Warn("deferring uncrawled directory", "url", web.RedactURL(child.Meta.URL))
			res.Deferred = append(res.Deferred, child)

		case child.IsDir():
			if depth > 0 {
				if err := t.walk(ctx, child, depth-1, counters, done, res); err != nil {
					return err
				}
			} else {
				res.Deferred = append(res.Deferred, child)
			}
		}
	}
	return nil
}

// downloadFile streams one file to its mirrored destination and
// records the success.
func (t *Traverser) downloadFile(ctx context.Context, node *model.Node, counters *Counters, done *state.DoneList) error {
	dest, err := t.destPath(node.Meta.URL)
	if err != nil {
		return err
	}

	written, err := t.client.Download(ctx, node.Meta.URL, dest)
	if err != nil {
		return err
	}

	counters.Files++
	counters.Bytes += written
	done.Add(node.Meta.URL)
	t.logger.Info("downloaded",
		"name", node.Meta.Name,
		"dest", dest,
		"bytes", written,
		"size", node.Meta.Size,
	)
	return nil
}

// destPath maps a file URL to its local path under the output
// directory, mirroring the remote tree structure.
func (t *Traverser) destPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL %q: %w", rawURL, err)
	}

	rel := strings.TrimPrefix(u.Path, t.rootURL.Path)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = path.Base(u.Path)
	}

	dest := filepath.Join(t.outputDir, filepath.FromSlash(rel))

	// The URL path came from a remote page; never let it climb out of
	// the output directory.
	cleanRoot := filepath.Clean(t.outputDir)
	if dest != cleanRoot && !strings.HasPrefix(dest, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("file URL %q escapes output directory", rawURL)
	}
	return dest, nil
}

// limitReached checks the counters against the configured limits.
// Called before each file download.
func (t *Traverser) limitReached(counters *Counters) bool {
	if t.maxFiles > 0 && counters.Files >= t.maxFiles {
		return true
	}
	if t.maxBytes > 0 && counters.Bytes >= t.maxBytes {
		return true
	}
	return false
}
