package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// TextWriter outputs human-readable text summaries.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files or other tools.
type TextWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *TextWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString("Mirror Summary\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	fmt.Fprintf(&sb, "Source:      %s\n", summary.RootURL)
	if summary.Title != "" {
		fmt.Fprintf(&sb, "Title:       %s\n", summary.Title)
	}
	fmt.Fprintf(&sb, "Status:      %s\n", w.statusText(summary))
	fmt.Fprintf(&sb, "Duration:    %s\n", summary.Duration().Round(timeRounding))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Directories crawled:  %d\n", summary.DirsCrawled)
	fmt.Fprintf(&sb, "Files discovered:     %d\n", summary.TotalFiles)
	fmt.Fprintf(&sb, "Files downloaded:     %d\n", summary.FilesDownloaded)
	fmt.Fprintf(&sb, "Files skipped:        %d\n", summary.FilesSkipped)
	fmt.Fprintf(&sb, "Bytes downloaded:     %s\n", formatBytes(summary.BytesDownloaded))

	if summary.DeferredSubtrees > 0 {
		fmt.Fprintf(&sb, "Deferred sub-trees:   %d\n", summary.DeferredSubtrees)
	}

	if w.verbose {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "Started:     %s\n", summary.StartedAt.Format(timeLayout))
		fmt.Fprintf(&sb, "Finished:    %s\n", summary.FinishedAt.Format(timeLayout))
	}

	if summary.Error != "" {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "Error: %s\n", summary.Error)
	}

	return fmt.Fprint(w.output, sb.String())
}

// statusText returns a short status line based on the summary state.
func (w *TextWriter) statusText(summary *Summary) string {
	switch {
	case summary.Error != "":
		return "failed (partial results)"
	case summary.LimitReached:
		return "stopped at limit"
	case summary.DeferredSubtrees > 0:
		return "incomplete"
	default:
		return "complete"
	}
}

// timeLayout is the timestamp format used in text output.
const timeLayout = "2006-01-02 15:04:05 MST"

// timeRounding keeps durations readable in terminal output.
const timeRounding = 10 * time.Millisecond

// formatBytes renders a byte count in a human-friendly unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB (%d bytes)", float64(n)/float64(div), "KMGTPE"[exp], n)
}
