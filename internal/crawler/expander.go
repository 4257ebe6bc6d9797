package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mirrordex/mirrordex/internal/listing"
	"github.com/mirrordex/mirrordex/internal/model"
	"github.com/mirrordex/mirrordex/internal/web"
)

// Expander fetches listing pages and advances pending directories to
// expanded ones. It performs no retries and never writes the
// checkpoint; the orchestrator owns both decisions.
type Expander struct {
	// client issues the page fetches.
	client *web.Client

	// logger for structured crawl logging.
	logger *slog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets a custom logger for the expander.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) {
		e.logger = logger
	}
}

// New creates an Expander using the given client.
func New(client *web.Client, opts ...Option) *Expander {
	e := &Expander{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchRoot fetches and parses the root listing unconditionally.
//
// The root has no parent page, so its description and last-modified
// stay empty. Any fetch or parse failure is fatal to the run: no
// partial state exists yet to checkpoint.
func (e *Expander) FetchRoot(ctx context.Context, rawURL string) (*model.Node, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL %q: %w", rawURL, err)
	}

	e.logger.Debug("fetching root listing", "url", web.RedactURL(rawURL))
	body, err := e.client.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	title, entries, err := listing.Parse(body, base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root listing %s: %w", web.RedactURL(rawURL), err)
	}

	e.logger.Info("crawled root", "title", title, "entries", len(entries))
	return model.NewDir(model.EntryMeta{URL: rawURL, Name: title}, entries), nil
}

// Expand fetches one pending directory's page and replaces the node in
// place with an expanded directory.
//
// On a transport failure the node is left unchanged so the caller can
// decide whether to retry the whole operation or abort. On success the
// node adopts the page title as its name while keeping the parent
// listing's description and last-modified, which the child page cannot
// provide for itself.
func (e *Expander) Expand(ctx context.Context, node *model.Node) error {
	if !node.IsPending() {
		return fmt.Errorf("%w: cannot expand kind %q", model.ErrNotPending, node.Kind)
	}

	base, err := url.Parse(node.Meta.URL)
	if err != nil {
		return fmt.Errorf("invalid directory URL %q: %w", node.Meta.URL, err)
	}

	e.logger.Debug("crawling directory", "name", node.Meta.Name, "url", web.RedactURL(node.Meta.URL))
	body, err := e.client.Fetch(ctx, node.Meta.URL)
	if err != nil {
		return err
	}

	title, entries, err := listing.Parse(body, base)
	if err != nil {
		return fmt.Errorf("failed to parse listing %s: %w", web.RedactURL(node.Meta.URL), err)
	}

	if err := node.Promote(title, entries); err != nil {
		return err
	}
	e.logger.Info("expanded directory", "title", title, "entries", len(entries))
	return nil
}

// ExpandChildren expands every pending directory among the node's
// immediate children, in listing order.
//
// It does not recurse into the freshly produced grandchildren: each
// call advances the tree exactly one level, and the orchestrator
// re-invokes it on the new frontier. That keeps a checkpoint
// opportunity between every level of network activity.
func (e *Expander) ExpandChildren(ctx context.Context, node *model.Node) error {
	for _, child := range node.Children {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !child.IsPending() {
			continue
		}
		if err := e.Expand(ctx, child); err != nil {
			return err
		}
	}
	return nil
}
