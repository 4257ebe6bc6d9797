package listing

import "errors"

// Parsing errors.
//
// Design decision: We use package-level sentinel errors rather than
// error types because callers only need errors.Is() to distinguish a
// broken listing from a broken encoding; neither carries dynamic state
// beyond the wrapping message.
var (
	// ErrMalformedListing is returned when the page has no
	// "Index of <name>" heading. Every listing page carries exactly one,
	// so its absence means the page is not a directory listing at all.
	ErrMalformedListing = errors.New("malformed listing: no index heading found")

	// ErrInvalidEncoding is returned when the page text is not valid
	// UTF-8 after HTML entity decoding.
	ErrInvalidEncoding = errors.New("listing is not valid UTF-8 text")
)
