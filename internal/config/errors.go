package config

import "errors"

// Configuration validation errors, returned by Config.Validate().
//
// Design decision: Package-level sentinels instead of ad-hoc
// errors.New() calls inside Validate(), so callers can use errors.Is()
// while the messages stay human-readable. None of them carries dynamic
// values, so errors.New() beats fmt.Errorf() here.
var (
	// ErrNoURL is returned when no root listing URL was given.
	ErrNoURL = errors.New("no URL specified: provide the root listing URL")

	// ErrInvalidURL is returned when the root URL does not parse as an
	// absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL: must be absolute http or https")

	// ErrNoDownloadWithoutState is returned when --no-download is used
	// without a checkpoint path. A crawl-only run that persists
	// nothing would do no useful work.
	ErrNoDownloadWithoutState = errors.New("--no-download requires --state: the crawl would be discarded")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxFiles is returned when the file limit is negative.
	// Use 0 for unlimited.
	ErrInvalidMaxFiles = errors.New("invalid max files: must be non-negative")

	// ErrInvalidMaxBytes is returned when the byte limit is negative.
	// Use 0 for unlimited.
	ErrInvalidMaxBytes = errors.New("invalid max bytes: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
