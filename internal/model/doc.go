// Package model defines the mirrored directory tree.
// A tree is built lazily while crawling a remote index site and is
// serialized into the checkpoint file between runs.
package model
