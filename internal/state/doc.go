// Package state persists crawl and download progress between runs.
// The checkpoint file records the crawl phase with its tree snapshot
// and the ordered list of already-downloaded URLs, so an interrupted
// mirror resumes without repeating completed work.
package state
