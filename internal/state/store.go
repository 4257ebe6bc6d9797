package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mirrordex/mirrordex/internal/model"
)

// Phase describes how far the crawl has progressed.
type Phase string

const (
	// PhaseNone means no crawl has been recorded.
	PhaseNone Phase = "None"

	// PhasePartial means the tree snapshot still contains pending
	// directories; crawling must continue before downloading.
	PhasePartial Phase = "Partial"

	// PhaseComplete means the snapshot is a fully expanded tree that
	// can be trusted without touching the network.
	PhaseComplete Phase = "Complete"
)

// CrawlState is the tagged crawl phase plus its tree snapshot.
type CrawlState struct {
	// Phase is the variant tag.
	Phase Phase `json:"phase"`

	// Root is the tree snapshot. Nil for PhaseNone, the crawl-so-far
	// for PhasePartial, and the full tree for PhaseComplete.
	Root *model.Node `json:"root,omitempty"`
}

// Store is the persisted unit of resumability. It is owned exclusively
// by the orchestrator; the crawler and the download traversal only
// return data for the orchestrator to record here.
type Store struct {
	// Crawling records the crawl phase and snapshot.
	Crawling CrawlState `json:"crawling_state"`

	// DownloadedURLs lists every successfully downloaded file URL in
	// insertion order. Keeping the order stable makes checkpoint diffs
	// readable across runs.
	DownloadedURLs []string `json:"downloaded_urls"`

	// LastModified is updated on every state-changing operation.
	LastModified time.Time `json:"last_modified"`
}

// New creates an empty store: no crawl, nothing downloaded.
func New() *Store {
	return &Store{
		Crawling:       CrawlState{Phase: PhaseNone},
		DownloadedURLs: []string{},
		LastModified:   time.Now().UTC(),
	}
}

// Load reads a checkpoint from disk.
//
// Load is deliberately permissive: a missing file, unreadable file, or
// unparsable content all yield a fresh store rather than an error. The
// checkpoint is an optimization, and refusing to run because last
// run's file is damaged would defeat its purpose.
func Load(path string) *Store {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided checkpoint path is intentional
	if err != nil {
		return New()
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return New()
	}

	switch store.Crawling.Phase {
	case PhaseNone, PhasePartial, PhaseComplete:
	default:
		return New()
	}
	if store.DownloadedURLs == nil {
		store.DownloadedURLs = []string{}
	}
	return &store
}

// Save writes the checkpoint to disk as pretty-printed JSON, creating
// parent directories as needed. The file is fully overwritten; the
// store is small enough that partial updates are not worth the
// complexity.
func (s *Store) Save(path string) error {
	s.LastModified = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", path, err)
	}
	return nil
}

// SetPartial records an in-progress crawl snapshot.
func (s *Store) SetPartial(root *model.Node) {
	s.Crawling = CrawlState{Phase: PhasePartial, Root: root}
}

// SetComplete records a fully expanded tree.
func (s *Store) SetComplete(root *model.Node) {
	s.Crawling = CrawlState{Phase: PhaseComplete, Root: root}
}

// Root returns the snapshot tree, or nil when no crawl is recorded.
func (s *Store) Root() *model.Node {
	return s.Crawling.Root
}

// Done builds the done-list from the persisted URLs.
func (s *Store) Done() *DoneList {
	return NewDoneList(s.DownloadedURLs...)
}

// SetDone writes the done-list back into the store for persisting.
func (s *Store) SetDone(done *DoneList) {
	s.DownloadedURLs = done.URLs()
}
