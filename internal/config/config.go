package config

import (
	"math"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultThreshold is the probability at or above which a URL is malicious.
	DefaultThreshold = 0.5

	// DefaultTopK is the number of reasons attached to each verdict.
	DefaultTopK = 5

	// DefaultListenAddr is where `serve` listens. Loopback only, so the
	// service is reachable from a local browser extension and nothing else.
	DefaultListenAddr = "127.0.0.1:5000"

	// DefaultBatchSize is the number of URLs scored concurrently.
	DefaultBatchSize = 10

	// DefaultMaxBodySize limits /predict request bodies.
	DefaultMaxBodySize = 64 * 1024 // 64KiB

	// DefaultShutdownTimeout bounds graceful server shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultHistoryLimit is the number of rows `history` prints.
	DefaultHistoryLimit = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "phishscan"

	// ModelFileName is the artifact looked up in the XDG config directory
	// when no model path is configured.
	ModelFileName = "model.json"
)

// Config holds all configuration options for phishscan.
// It is populated from defaults, then the config file, then CLI flags,
// and passed explicitly to the components that need it.
type Config struct {
	// Threshold is the decision threshold in [0,1].
	Threshold float64

	// ThresholdSet reports whether Threshold came from the config file or a
	// flag. When false, a threshold recorded in the model artifact is used.
	ThresholdSet bool

	// TopK is the maximum number of reasons per verdict. Zero disables
	// explanations.
	TopK int

	// ModelPath is the model artifact to load. Empty means the compiled-in
	// default model.
	ModelPath string

	// RulesEnabled turns on the rule pre-check.
	RulesEnabled bool

	// ListenAddr is the HTTP listen address for `serve`.
	ListenAddr string

	// MaxBodySize is the maximum accepted /predict request body in bytes.
	MaxBodySize int64

	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the server log to JSON.
	LogJSON bool

	// BatchSize is the number of URLs scored concurrently by `score`.
	BatchSize int

	// ConfigFilePath is the configuration file given with --config.
	// If empty, .phishscan is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of URLs to score.
	Targets []string

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/phishscan on Linux).
	DBDir string

	// SaveToDB records every verdict in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Threshold:       DefaultThreshold,
		TopK:            DefaultTopK,
		ListenAddr:      DefaultListenAddr,
		MaxBodySize:     DefaultMaxBodySize,
		ShutdownTimeout: DefaultShutdownTimeout,
		BatchSize:       DefaultBatchSize,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
	}
}

// XDGDataDir returns the XDG data directory for phishscan.
// On Linux: ~/.local/share/phishscan
// On macOS: ~/Library/Application Support/phishscan
// On Windows: %LOCALAPPDATA%\phishscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phishscan.
// On Linux: ~/.config/phishscan
// On macOS: ~/Library/Application Support/phishscan
// On Windows: %APPDATA%\phishscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultModelPath returns the model artifact in the XDG config directory.
// The file may not exist.
func DefaultModelPath() string {
	return filepath.Join(XDGConfigDir(), ModelFileName)
}

// Validate checks the options shared by every command and returns the
// first problem found.
func (c *Config) Validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if c.TopK < 0 {
		return ErrInvalidTopK
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}
	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}
	return nil
}

// ValidateTargets is Validate plus a check that at least one URL is given.
func (c *Config) ValidateTargets() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}
