package model

import "errors"

// ErrNotPending is returned by Promote when the node is not a pending
// directory. Expanded directories and files never change variant, so
// promoting them indicates a caller bug rather than bad input.
var ErrNotPending = errors.New("node is not a pending directory")
