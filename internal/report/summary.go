package report

import "time"

// Summary describes the outcome of one mirror run.
type Summary struct {
	// RootURL is the mirrored root listing.
	RootURL string `json:"root_url"`

	// Title is the root directory's listing title.
	Title string `json:"title"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// DirsCrawled is the number of directory listings fetched.
	DirsCrawled int `json:"dirs_crawled"`

	// TotalFiles is the number of file entries in the discovered tree.
	TotalFiles int `json:"total_files"`

	// FilesDownloaded counts files fetched during this run.
	FilesDownloaded int `json:"files_downloaded"`

	// FilesSkipped counts files already present in the done-list.
	FilesSkipped int `json:"files_skipped"`

	// BytesDownloaded is the total bytes written during this run.
	BytesDownloaded int64 `json:"bytes_downloaded"`

	// LimitReached is set when a file or byte limit cut the run short.
	LimitReached bool `json:"limit_reached"`

	// DeferredSubtrees counts sub-trees still unprocessed when the run
	// ended, either through limits or --no-download.
	DeferredSubtrees int `json:"deferred_subtrees"`

	// Error holds the failure message of an aborted run, empty on
	// success.
	Error string `json:"error,omitempty"`
}

// Duration returns the wall-clock time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Complete reports whether the run finished with every discovered
// file downloaded or skipped.
func (s *Summary) Complete() bool {
	return s.Error == "" && !s.LimitReached && s.DeferredSubtrees == 0
}
