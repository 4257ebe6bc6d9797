// Package crawler expands the mirrored tree by fetching listing pages
// and replacing pending directories with their parsed contents.
package crawler
