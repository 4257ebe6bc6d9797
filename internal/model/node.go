package model

import "fmt"

// NodeKind identifies the variant of a Node.
// The kind is part of the JSON representation so that a checkpointed
// tree deserializes into the same variants it was saved with.
type NodeKind string

const (
	// KindPendingDir is a sub-directory link discovered in a parent
	// listing whose own page has not been fetched yet.
	KindPendingDir NodeKind = "pending_dir"

	// KindDir is a directory whose listing has been fetched and parsed.
	KindDir NodeKind = "dir"

	// KindFile is a downloadable file. Files are terminal and immutable.
	KindFile NodeKind = "file"
)

// EntryMeta holds the metadata scraped from one listing row.
//
// Size and LastModified are kept exactly as the server printed them.
// Index pages emit human-readable values ("1.2K", "20-Jan-2020 11:47")
// and parsing them would invent a contract the server never promised.
type EntryMeta struct {
	// URL is the absolute URL of the entry.
	URL string `json:"url"`

	// Name is the display name from the listing row, or the page title
	// for expanded directories.
	Name string `json:"name"`

	// LastModified is the server-supplied modification string, verbatim.
	LastModified string `json:"last_modified"`

	// Description is the free-text description column, verbatim.
	Description string `json:"description"`

	// Size is the server-reported size string. Only meaningful for
	// files; directories carry the server's placeholder instead.
	Size string `json:"size,omitempty"`
}

// Node is one entry in the mirrored tree.
//
// A node only ever advances pending_dir -> dir (see Promote); it never
// reverts, and file nodes are never modified after creation. Children
// preserve the order of the rows in the parent's listing.
type Node struct {
	// Kind is the variant tag.
	Kind NodeKind `json:"kind"`

	// Meta is the entry metadata shared by all variants.
	Meta EntryMeta `json:"meta"`

	// Children holds the parsed entries of an expanded directory, in
	// listing order. Nil for pending directories and files. No
	// omitempty: an expanded directory with an empty child slice must
	// round-trip as empty, not collapse to nil.
	Children []*Node `json:"children"`
}

// NewPendingDir creates a node for a discovered but unfetched sub-directory.
func NewPendingDir(meta EntryMeta) *Node {
	return &Node{Kind: KindPendingDir, Meta: meta}
}

// NewDir creates an expanded directory node with the given children.
func NewDir(meta EntryMeta, children []*Node) *Node {
	return &Node{Kind: KindDir, Meta: meta, Children: children}
}

// NewFile creates a file node.
func NewFile(meta EntryMeta) *Node {
	return &Node{Kind: KindFile, Meta: meta}
}

// IsPending reports whether the node is a not-yet-fetched directory.
func (n *Node) IsPending() bool { return n.Kind == KindPendingDir }

// IsDir reports whether the node is an expanded directory.
func (n *Node) IsDir() bool { return n.Kind == KindDir }

// IsFile reports whether the node is a file.
func (n *Node) IsFile() bool { return n.Kind == KindFile }

// Promote advances a pending directory to an expanded one in place.
//
// The name comes from the fetched page's own title, which is richer
// than the link text. Description and last-modified stay as the parent
// listing reported them: the child page has no column describing itself.
func (n *Node) Promote(name string, children []*Node) error {
	if !n.IsPending() {
		return fmt.Errorf("%w: kind %q", ErrNotPending, n.Kind)
	}
	n.Kind = KindDir
	n.Meta.Name = name
	n.Children = children
	return nil
}

// Walk visits the node and every descendant in depth-first, listing order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// CountFiles returns the number of file nodes in the subtree.
func (n *Node) CountFiles() int {
	count := 0
	n.Walk(func(node *Node) {
		if node.IsFile() {
			count++
		}
	})
	return count
}

// CountPending returns the number of pending directories in the subtree.
// A fully crawled tree has zero.
func (n *Node) CountPending() int {
	count := 0
	n.Walk(func(node *Node) {
		if node.IsPending() {
			count++
		}
	})
	return count
}
