// Package database provides SQLite-backed storage for mirror run history.
//
// Each finished run is recorded with its source URL, counters, and
// outcome so the history subcommand can show what was mirrored when.
// The database lives under the XDG data directory by default.
package database
