package download

// Counters are the running download totals checked against limits.
//
// One Counters value is shared by pointer across a whole run: the
// orchestrator clones the initial value once to seed the first-level
// call, then threads the same pointer through every continuation so
// all levels count against a single budget. Nothing accesses a
// Counters concurrently; downloads are strictly sequential.
type Counters struct {
	// Files is the number of files downloaded so far.
	Files int

	// Bytes is the total number of bytes downloaded so far.
	Bytes int64
}

// Clone returns an independent copy.
func (c *Counters) Clone() *Counters {
	clone := *c
	return &clone
}
