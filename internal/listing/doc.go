// Package listing parses Apache-style auto-generated index pages
// ("Index of ...") into a directory title and an ordered list of file
// and sub-directory entries.
package listing
