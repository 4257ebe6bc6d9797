// Package log provides a slog.Handler wrapper that redacts credentials
// before they reach the log output. Mirror URLs can embed basic-auth
// userinfo and per-site headers can carry tokens; neither belongs in a
// log file.
package log
