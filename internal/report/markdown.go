package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides type-safe tables, lists, and GitHub-flavored
// markdown alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Mirror Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + summary.RootURL + "`"},
			{"Title", summary.Title},
			{"Started", summary.StartedAt.Format(timeLayout)},
			{"Duration", summary.Duration().Round(timeRounding).String()},
			{"Status", w.statusText(summary)},
		},
	})
	md.PlainText("")

	md.H2("Transfer")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Directories crawled", strconv.Itoa(summary.DirsCrawled)},
			{"Files discovered", strconv.Itoa(summary.TotalFiles)},
			{"Files downloaded", strconv.Itoa(summary.FilesDownloaded)},
			{"Files skipped", strconv.Itoa(summary.FilesSkipped)},
			{"Bytes downloaded", formatBytes(summary.BytesDownloaded)},
			{"Deferred sub-trees", strconv.Itoa(summary.DeferredSubtrees)},
		},
	})
	md.PlainText("")

	if summary.Error != "" {
		md.Warningf("Run aborted: %s", summary.Error)
		md.PlainText("")
	} else if summary.LimitReached {
		md.Note("A file or byte limit stopped the run before the tree was exhausted. Re-run with the same state file to continue.")
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// statusText returns the status cell for the summary table.
func (w *MarkdownWriter) statusText(summary *Summary) string {
	switch {
	case summary.Error != "":
		return "❌ Failed (partial results)"
	case summary.LimitReached:
		return "⚠️ Stopped at limit"
	case summary.DeferredSubtrees > 0:
		return "⚠️ Incomplete"
	default:
		return "✅ Complete"
	}
}
