package listing

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/mirrordex/mirrordex/internal/model"
)

// row renders one listing row the way mod_autoindex prints it.
func row(href, name, date, size, desc string) string {
	return fmt.Sprintf(
		`<tr><td valign="top"><img src="/icons/blank.gif" alt="[   ]"></td><td><a href=%q>%s</a></td><td align="right">%s  </td><td align="right">%s</td><td>%s</td></tr>`,
		href, name, date, size, desc)
}

// page wraps rows into a minimal listing page.
func page(title string, rows ...string) string {
	var b strings.Builder
	b.WriteString("<html>\n<head><title>Index of " + title + "</title></head>\n<body><h1>Index of " + title + "</h1>\n")
	b.WriteString(`<table><tr><th>Name</th><th>Last modified</th><th>Size</th><th>Description</th></tr>` + "\n")
	b.WriteString(`<tr><td valign="top"><img src="/icons/back.gif" alt="[PARENTDIR]"></td><td><a href="/">Parent Directory</a>       </td><td> </td><td align="right">  - </td><td> </td></tr>` + "\n")
	for _, r := range rows {
		b.WriteString(r + "\n")
	}
	b.WriteString("</table>\n</body></html>\n")
	return b.String()
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", raw, err)
	}
	return u
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("directory row produces pending directory", func(t *testing.T) {
		t.Parallel()

		html := page("/pub", row("sub/", "sub", "19-Jan-2020 09:12", "  - ", "nested tree"))
		title, entries, err := Parse(html, mustURL(t, "http://mirror.test/pub/"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if title != "/pub" {
			t.Errorf("expected title %q, got %q", "/pub", title)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}

		entry := entries[0]
		if !entry.IsPending() {
			t.Errorf("expected pending directory, got kind %q", entry.Kind)
		}
		if entry.Meta.Name != "sub" {
			t.Errorf("expected name %q, got %q", "sub", entry.Meta.Name)
		}
		if entry.Meta.URL != "http://mirror.test/pub/sub/" {
			t.Errorf("expected resolved URL, got %q", entry.Meta.URL)
		}
		if entry.Meta.LastModified != "19-Jan-2020 09:12" {
			t.Errorf("expected verbatim last-modified, got %q", entry.Meta.LastModified)
		}
		if entry.Meta.Description != "nested tree" {
			t.Errorf("expected description, got %q", entry.Meta.Description)
		}
	})

	t.Run("file row produces file with verbatim size", func(t *testing.T) {
		t.Parallel()

		html := page("/pub", row("notes.txt", "notes.txt", "20-Jan-2020 11:47", "1.2K", "release notes"))
		_, entries, err := Parse(html, mustURL(t, "http://mirror.test/pub/"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}

		entry := entries[0]
		if !entry.IsFile() {
			t.Errorf("expected file, got kind %q", entry.Kind)
		}
		if entry.Meta.Size != "1.2K" {
			t.Errorf("expected size %q, got %q", "1.2K", entry.Meta.Size)
		}
		if entry.Meta.URL != "http://mirror.test/pub/notes.txt" {
			t.Errorf("expected resolved URL, got %q", entry.Meta.URL)
		}
	})

	t.Run("classification is driven by the size placeholder alone", func(t *testing.T) {
		t.Parallel()

		html := page("/pub",
			row("a/", "a", "19-Jan-2020 09:12", "  - ", "dir"),
			row("b", "b", "19-Jan-2020 09:12", "0", "empty file"),
			row("c", "c", "19-Jan-2020 09:12", "512M", "big file"),
		)
		_, entries, err := Parse(html, mustURL(t, "http://mirror.test/pub/"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		kinds := []model.NodeKind{model.KindPendingDir, model.KindFile, model.KindFile}
		if len(entries) != len(kinds) {
			t.Fatalf("expected %d entries, got %d", len(kinds), len(entries))
		}
		for i, want := range kinds {
			if entries[i].Kind != want {
				t.Errorf("entry %d: expected kind %q, got %q", i, want, entries[i].Kind)
			}
		}
	})

	t.Run("skips parent directory row and non-matching lines", func(t *testing.T) {
		t.Parallel()

		html := page("/pub", row("only.bin", "only.bin", "19-Jan-2020 09:12", "3.4M", "payload"))
		_, entries, err := Parse(html, mustURL(t, "http://mirror.test/pub/"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected parent row to be skipped, got %d entries", len(entries))
		}
	})

	t.Run("preserves listing order", func(t *testing.T) {
		t.Parallel()

		rows := make([]string, 0, 100)
		want := make([]string, 0, 100)
		for i := 0; i < 100; i++ {
			name := fmt.Sprintf("file-%03d.dat", i)
			rows = append(rows, row(name, name, "19-Jan-2020 09:12", "1K", "data"))
			want = append(want, name)
		}

		_, entries, err := Parse(page("/pub", rows...), mustURL(t, "http://mirror.test/pub/"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		got := make([]string, 0, len(entries))
		for _, e := range entries {
			got = append(got, e.Meta.Name)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("entry order does not follow line order:\n  want %v\n  got  %v", want, got)
		}
	})

	t.Run("strips trailing empty path segments from file URLs", func(t *testing.T) {
		t.Parallel()

		html := page("/pub", row("sub///////", "sub", "19-Jan-2020 09:12", "8.0K", "slashed"))
		_, entries, err := Parse(html, mustURL(t, "http://mirror.test/pub/"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Meta.URL != "http://mirror.test/pub/sub" {
			t.Errorf("expected stripped URL, got %q", entries[0].Meta.URL)
		}
	})

	t.Run("decodes entities before matching", func(t *testing.T) {
		t.Parallel()

		html := page("/pub", row("a&amp;b.txt", "a&amp;b.txt", "19-Jan-2020 09:12", "2K", "entity name"))
		_, entries, err := Parse(html, mustURL(t, "http://mirror.test/pub/"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Meta.Name != "a&b.txt" {
			t.Errorf("expected decoded name, got %q", entries[0].Meta.Name)
		}
	})

	t.Run("missing heading fails with ErrMalformedListing", func(t *testing.T) {
		t.Parallel()

		_, _, err := Parse("<html><body><p>not a listing</p></body></html>", mustURL(t, "http://mirror.test/"))
		if !errors.Is(err, ErrMalformedListing) {
			t.Errorf("expected ErrMalformedListing, got %v", err)
		}
	})

	t.Run("invalid text fails with ErrInvalidEncoding", func(t *testing.T) {
		t.Parallel()

		_, _, err := Parse("<h1>Index of /pub</h1>\n\xff\xfe", mustURL(t, "http://mirror.test/pub/"))
		if !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("expected ErrInvalidEncoding, got %v", err)
		}
	})

	t.Run("is idempotent on identical input", func(t *testing.T) {
		t.Parallel()

		html := page("/pub",
			row("sub/", "sub", "19-Jan-2020 09:12", "  - ", "nested"),
			row("notes.txt", "notes.txt", "20-Jan-2020 11:47", "1.2K", "notes"),
		)
		base := mustURL(t, "http://mirror.test/pub/")

		title1, entries1, err := Parse(html, base)
		if err != nil {
			t.Fatalf("first parse failed: %v", err)
		}
		title2, entries2, err := Parse(html, base)
		if err != nil {
			t.Fatalf("second parse failed: %v", err)
		}

		if title1 != title2 {
			t.Errorf("titles differ: %q vs %q", title1, title2)
		}
		if !reflect.DeepEqual(entries1, entries2) {
			t.Errorf("entries differ between identical parses")
		}
	})
}
