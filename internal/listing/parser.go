package listing

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/mirrordex/mirrordex/internal/model"
)

// Auto-generated index pages are rigidly tabular: mod_autoindex prints
// one <tr> per line with a fixed column layout. We match rows with a
// fixed pattern rather than parsing the DOM because the layout is part
// of the format being mirrored, and lines that do not match (header,
// "Parent Directory", separators) must be skipped silently.
var (
	// rxTitle matches the page heading. First match wins.
	rxTitle = regexp.MustCompile(`<h1>Index of (.+?)</h1>`)

	// rxRow captures href, display name, last-modified, size and
	// description from one listing row.
	rxRow = regexp.MustCompile(`</td><td><a href="(.+?)">(.+?)</a></td><td align="right">(.+?)  </td><td align="right">(.+?)</td><td>(.+?)</td></tr>`)
)

// Capture group positions in rxRow.
const (
	posHref = 1
	posName = 2
	posDate = 3
	posSize = 4
	posDesc = 5
)

// dirSizePlaceholder is the exact size column value the server prints
// for rows that are not files. Classification hangs on this string:
// a row with this size is a sub-directory, anything else is a file.
const dirSizePlaceholder = "  - "

// maxTrailingSegments bounds how many trailing empty path segments are
// stripped from file URLs. Some servers emit runs of redundant trailing
// slashes; segments beyond the bound are left as-is rather than treated
// as an error.
const maxTrailingSegments = 17

// Parse extracts the directory title and entries from one listing page.
//
// HTML entities are decoded before any pattern matching; the decoded
// text must be valid UTF-8 or Parse fails with ErrInvalidEncoding.
// A page without an index heading fails with ErrMalformedListing.
//
// Rows are independent lines with no ordering dependency between them,
// so matching runs as a bounded parallel map. Results are collected by
// line index, so entry order always follows input line order regardless
// of worker count.
func Parse(page string, base *url.URL) (string, []*model.Node, error) {
	text, err := sanitize(page)
	if err != nil {
		return "", nil, err
	}

	m := rxTitle.FindStringSubmatch(text)
	if m == nil {
		return "", nil, ErrMalformedListing
	}
	title := m[1]

	lines := strings.Split(text, "\n")
	rows := make([]*model.Node, len(lines))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, line := range lines {
		g.Go(func() error {
			rows[i] = parseRow(line, base)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, fmt.Errorf("failed to match listing rows: %w", err)
	}

	entries := make([]*model.Node, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			entries = append(entries, row)
		}
	}
	return title, entries, nil
}

// parseRow matches a single line against the row pattern and builds the
// corresponding node. Lines that do not match, including blank lines
// and the "Parent Directory" row, yield nil.
func parseRow(line string, base *url.URL) *model.Node {
	m := rxRow.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	ref, err := url.Parse(m[posHref])
	if err != nil {
		return nil
	}
	abs := base.ResolveReference(ref)

	meta := model.EntryMeta{
		URL:          abs.String(),
		Name:         m[posName],
		LastModified: m[posDate],
		Description:  m[posDesc],
	}

	if m[posSize] == dirSizePlaceholder {
		return model.NewPendingDir(meta)
	}

	meta.Size = m[posSize]
	meta.URL = cleanFileURL(abs)
	return model.NewFile(meta)
}

// cleanFileURL strips trailing empty path segments from a file URL,
// up to maxTrailingSegments of them.
func cleanFileURL(u *url.URL) string {
	clean := *u
	segments := strings.Split(clean.Path, "/")
	for i := 0; i < maxTrailingSegments; i++ {
		if len(segments) < 2 || segments[len(segments)-1] != "" {
			break
		}
		segments = segments[:len(segments)-1]
	}
	clean.Path = strings.Join(segments, "/")
	clean.RawPath = ""
	return clean.String()
}

// sanitize decodes HTML entities and verifies the result is valid text.
func sanitize(page string) (string, error) {
	decoded := html.UnescapeString(page)
	if !utf8.ValidString(decoded) {
		return "", ErrInvalidEncoding
	}
	return decoded, nil
}
