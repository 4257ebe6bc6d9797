package config

import (
	"fmt"
	"maps"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds per-host overrides for a single mirror site.
type SiteConfig struct {
	// UserAgent overrides the User-Agent header for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are custom HTTP headers sent with every request to this
	// host, e.g. an Authorization header for a private mirror.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Timeout overrides the per-request timeout for this host.
	// Zero means keep the global value.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// UnmarshalYAML decodes a site entry, accepting human-readable
// durations ("90s", "2m") for the timeout field.
func (s *SiteConfig) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		UserAgent string            `yaml:"userAgent"`
		Headers   map[string]string `yaml:"headers"`
		Timeout   string            `yaml:"timeout"`
	}
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	s.UserAgent = r.UserAgent
	s.Headers = r.Headers
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", r.Timeout, err)
		}
		s.Timeout = d
	}
	return nil
}

// File represents the structure of the .mirrordex configuration file.
type File struct {
	// Sites maps host names (host or host:port) to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults are overrides applied to every host unless the host's
	// own entry sets the field.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// ForHost returns the merged configuration for a host: defaults first,
// then the host's own entry on top. The returned Headers map is always
// a fresh copy; merging one host must never write into the shared
// Defaults map.
func (f *File) ForHost(host string) SiteConfig {
	result := f.Defaults
	result.Headers = maps.Clone(f.Defaults.Headers)

	site, ok := f.Sites[host]
	if !ok {
		return result
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Timeout > 0 {
		result.Timeout = site.Timeout
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}
