// Package config provides configuration structures and utilities for
// mirrordex: mirror options populated from CLI flags, the optional
// .mirrordex YAML file with per-site overrides, and environment
// overrides.
package config
