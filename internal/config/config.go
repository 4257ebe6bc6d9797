package config

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	// DefaultTimeout is deliberately generous: mirror hosts are often
	// slow volunteer boxes, and a single request covers the full body
	// read of a listing page.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies mirrordex in server logs so mirror
	// operators can tell scripted traffic from browsers.
	DefaultUserAgent = "mirrordex/1.0 (+https://github.com/mirrordex/mirrordex)"

	// DefaultMaxListingSize limits how much of a listing page is read.
	// Auto-generated index pages larger than this are not listings.
	DefaultMaxListingSize = 10 * 1024 * 1024 // 10MB

	// AppName is used for XDG directory paths.
	AppName = "mirrordex"

	// DefaultCheckpointFile is the checkpoint file name used when the
	// user enables resumable state without naming a file.
	DefaultCheckpointFile = "mirrordex-state.json"
)

// Environment variable names honored as overrides. They are loaded
// from the process environment and, if present, from a .env file in
// the working directory.
const (
	// EnvUserAgent overrides the User-Agent header.
	EnvUserAgent = "MIRRORDEX_USER_AGENT"

	// EnvProxy sets a SOCKS5 proxy address in host:port format.
	EnvProxy = "MIRRORDEX_PROXY"
)

// Config holds all options for one mirror run.
// It is populated from CLI flags, optionally refined by the config
// file and environment, and passed through the application by
// dependency injection rather than global state.
type Config struct {
	// URL is the root listing to mirror. Required.
	URL string

	// OutputDir is the local directory the tree is mirrored into.
	OutputDir string

	// StatePath is the checkpoint file path. Empty disables
	// checkpointing (and therefore resume).
	StatePath string

	// NoDownload stops after crawling: the tree is discovered and
	// checkpointed but no files are fetched. Requires StatePath,
	// otherwise the crawl result would be thrown away.
	NoDownload bool

	// MaxFiles limits how many files one run downloads. Zero means
	// unlimited.
	MaxFiles int

	// MaxBytes limits how many bytes one run downloads. Zero means
	// unlimited.
	MaxBytes int64

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in host:port format.
	ProxyAddress string

	// MaxListingSize bounds the body read for listing pages.
	MaxListingSize int64

	// ConfigFilePath is the config file path. Empty means search the
	// working directory and then the home directory for .mirrordex.
	ConfigFilePath string

	// Sites holds per-host overrides loaded from the config file.
	Sites *File

	// JSONReport emits the run summary as JSON instead of text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport emits the run summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the run summary to a file instead of stdout.
	ReportFile string

	// HistoryDir is the directory holding the run-history database.
	// Empty disables history recording.
	HistoryDir string

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig creates a Config with defaults. Many defaults are
// non-zero, so relying on zero values would be wrong; the constructor
// also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:      ".",
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		MaxListingSize: DefaultMaxListingSize,
		Sites:          &File{Sites: make(map[string]SiteConfig)},
		HistoryDir:     XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for mirrordex.
// On Linux: ~/.local/share/mirrordex
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for mirrordex.
// On Linux: ~/.config/mirrordex
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// LoadEnv applies environment overrides to the config. A .env file in
// the working directory is read first if present; real environment
// variables win over the file.
func (c *Config) LoadEnv() {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	if ua := os.Getenv(EnvUserAgent); ua != "" {
		c.UserAgent = ua
	}
	if socksProxy := os.Getenv(EnvProxy); socksProxy != "" {
		c.ProxyAddress = socksProxy
	}
}

// ApplySite merges the per-host overrides for the target URL's host
// into the config. Flag values explicitly set by the user should be
// applied after this call so they win.
func (c *Config) ApplySite() {
	u, err := url.Parse(c.URL)
	if err != nil || c.Sites == nil {
		return
	}

	site := c.Sites.ForHost(u.Host)
	if site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
	if site.Timeout > 0 {
		c.Timeout = site.Timeout
	}
}

// Validate checks the configuration, returning the first problem
// found. Called once after flag parsing, before any network activity.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrNoURL
	}

	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}

	if c.NoDownload && c.StatePath == "" {
		return ErrNoDownloadWithoutState
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxFiles < 0 {
		return ErrInvalidMaxFiles
	}
	if c.MaxBytes < 0 {
		return ErrInvalidMaxBytes
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
