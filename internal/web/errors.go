package web

import "errors"

// Transport errors.
//
// Design decision: Every transport failure wraps ErrFetch so that
// callers can classify "the network step failed" with a single
// errors.Is() check, while the wrapping message keeps the URL and the
// underlying cause for the log.
var (
	// ErrFetch is the root of all transport failures: connection
	// errors, timeouts, and non-success HTTP status codes.
	ErrFetch = errors.New("fetch failed")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address
	// is not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")
)
