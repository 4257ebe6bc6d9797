package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// sampleTree builds a small tree exercising every variant, including an
// expanded directory with no children.
func sampleTree() *Node {
	return NewDir(
		EntryMeta{URL: "http://mirror.test/pub/", Name: "/pub"},
		[]*Node{
			NewFile(EntryMeta{
				URL:          "http://mirror.test/pub/notes.txt",
				Name:         "notes.txt",
				LastModified: "20-Jan-2020 11:47",
				Description:  "release notes",
				Size:         "1.2K",
			}),
			NewPendingDir(EntryMeta{
				URL:          "http://mirror.test/pub/sub/",
				Name:         "sub",
				LastModified: "19-Jan-2020 09:12",
				Description:  "nested",
			}),
			NewDir(EntryMeta{URL: "http://mirror.test/pub/empty/", Name: "empty"}, []*Node{}),
		},
	)
}

func TestNodeRoundTrip(t *testing.T) {
	t.Parallel()

	original := sampleTree()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal tree: %v", err)
	}

	var restored Node
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("failed to unmarshal tree: %v", err)
	}

	if !reflect.DeepEqual(original, &restored) {
		t.Errorf("round-trip changed the tree:\n  before: %+v\n  after:  %+v", original, &restored)
	}
}

// TestNodeRoundTripChildSlices pins down that both nil and empty child
// slices survive serialization unchanged. A listing with no matching
// rows yields a directory with an empty, non-nil slice.
func TestNodeRoundTripChildSlices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		children []*Node
	}{
		{name: "nil children", children: nil},
		{name: "empty children", children: []*Node{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			original := NewDir(EntryMeta{URL: "http://mirror.test/d/", Name: "d"}, tt.children)

			data, err := json.Marshal(original)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}
			var restored Node
			if err := json.Unmarshal(data, &restored); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}

			if !reflect.DeepEqual(original, &restored) {
				t.Errorf("round-trip changed children: before %#v, after %#v",
					original.Children, restored.Children)
			}
		})
	}
}

func TestNodePromote(t *testing.T) {
	t.Parallel()

	t.Run("advances pending directory and keeps parent metadata", func(t *testing.T) {
		t.Parallel()

		node := NewPendingDir(EntryMeta{
			URL:          "http://mirror.test/pub/sub/",
			Name:         "sub",
			LastModified: "19-Jan-2020 09:12",
			Description:  "nested",
		})

		children := []*Node{NewFile(EntryMeta{URL: "http://mirror.test/pub/sub/a.bin", Name: "a.bin", Size: "10M"})}
		if err := node.Promote("/pub/sub", children); err != nil {
			t.Fatalf("failed to promote: %v", err)
		}

		if !node.IsDir() {
			t.Errorf("expected kind %q, got %q", KindDir, node.Kind)
		}
		if node.Meta.Name != "/pub/sub" {
			t.Errorf("expected name from page title, got %q", node.Meta.Name)
		}
		if node.Meta.Description != "nested" {
			t.Errorf("expected description from parent listing, got %q", node.Meta.Description)
		}
		if node.Meta.LastModified != "19-Jan-2020 09:12" {
			t.Errorf("expected last-modified from parent listing, got %q", node.Meta.LastModified)
		}
		if len(node.Children) != 1 {
			t.Errorf("expected 1 child, got %d", len(node.Children))
		}
	})

	t.Run("rejects expanded directory", func(t *testing.T) {
		t.Parallel()

		node := NewDir(EntryMeta{URL: "http://mirror.test/pub/"}, nil)
		if err := node.Promote("/pub", nil); !errors.Is(err, ErrNotPending) {
			t.Errorf("expected ErrNotPending, got %v", err)
		}
	})

	t.Run("rejects file", func(t *testing.T) {
		t.Parallel()

		node := NewFile(EntryMeta{URL: "http://mirror.test/pub/a.bin", Size: "1K"})
		if err := node.Promote("a", nil); !errors.Is(err, ErrNotPending) {
			t.Errorf("expected ErrNotPending, got %v", err)
		}
	})
}

func TestNodeCounts(t *testing.T) {
	t.Parallel()

	tree := sampleTree()

	if got := tree.CountFiles(); got != 1 {
		t.Errorf("expected 1 file, got %d", got)
	}
	if got := tree.CountPending(); got != 1 {
		t.Errorf("expected 1 pending directory, got %d", got)
	}
}

func TestNodeWalkOrder(t *testing.T) {
	t.Parallel()

	tree := sampleTree()

	var names []string
	tree.Walk(func(n *Node) { names = append(names, n.Meta.Name) })

	want := []string{"/pub", "notes.txt", "sub", "empty"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected walk order %v, got %v", want, names)
	}
}
