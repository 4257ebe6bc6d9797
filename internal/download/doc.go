// Package download walks an expanded tree and mirrors its files to the
// local filesystem, bounded to one extra directory level per call so
// the orchestrator can checkpoint between levels.
package download
