// Package report renders the summary of a mirror run in text, JSON,
// or Markdown form.
package report
