// Package web provides the HTTP transport used for crawling listing
// pages and downloading files, including response decoding to UTF-8 and
// optional SOCKS5 proxying.
package web
