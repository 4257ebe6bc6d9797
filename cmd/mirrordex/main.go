// Package main provides the entry point for the mirrordex CLI.
//
// Mirrordex mirrors auto-generated "Index of" directory listings into a
// local directory tree. It crawls listing pages breadth-first, records
// the discovered tree in a resumable checkpoint, and downloads files
// that are not already present in the checkpoint's done-list.
//
// Usage:
//
//	mirrordex mirror http://archive.example.com/pub/
//	mirrordex mirror --state mirror.json --max-bytes 100000000 http://archive.example.com/pub/
//
// See --help for all available options.
package main

// main is the entry point for mirrordex.
func main() {
	Execute()
}
