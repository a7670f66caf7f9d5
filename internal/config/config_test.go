package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig documents the defaults through tests.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Threshold is 0.5", func(t *testing.T) {
		t.Parallel()
		if cfg.Threshold != 0.5 {
			t.Errorf("expected Threshold to be 0.5, got %v", cfg.Threshold)
		}
	})

	t.Run("default TopK is 5", func(t *testing.T) {
		t.Parallel()
		if cfg.TopK != 5 {
			t.Errorf("expected TopK to be 5, got %d", cfg.TopK)
		}
	})

	t.Run("default ListenAddr is loopback port 5000", func(t *testing.T) {
		t.Parallel()
		if cfg.ListenAddr != "127.0.0.1:5000" {
			t.Errorf("expected ListenAddr to be '127.0.0.1:5000', got '%s'", cfg.ListenAddr)
		}
	})

	t.Run("default MaxBodySize is 64KiB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 64*1024 {
			t.Errorf("expected MaxBodySize to be 65536, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default ShutdownTimeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.ShutdownTimeout != 10*time.Second {
			t.Errorf("expected ShutdownTimeout to be 10s, got %v", cfg.ShutdownTimeout)
		}
	})

	t.Run("rules are disabled and history is enabled", func(t *testing.T) {
		t.Parallel()
		if cfg.RulesEnabled {
			t.Error("expected RulesEnabled to be false")
		}
		if !cfg.SaveToDB || cfg.DBDir == "" {
			t.Errorf("expected history in XDG data dir, got SaveToDB=%v DBDir=%q", cfg.SaveToDB, cfg.DBDir)
		}
	})

	t.Run("defaults validate", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults do not validate: %v", err)
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"threshold below 0", func(c *Config) { c.Threshold = -0.01 }, ErrInvalidThreshold},
		{"threshold above 1", func(c *Config) { c.Threshold = 1.01 }, ErrInvalidThreshold},
		{"threshold NaN", func(c *Config) { c.Threshold = math.NaN() }, ErrInvalidThreshold},
		{"threshold 0 is valid", func(c *Config) { c.Threshold = 0 }, nil},
		{"threshold 1 is valid", func(c *Config) { c.Threshold = 1 }, nil},
		{"negative top-k", func(c *Config) { c.TopK = -1 }, ErrInvalidTopK},
		{"zero top-k is valid", func(c *Config) { c.TopK = 0 }, nil},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"both report formats", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"zero body size", func(c *Config) { c.MaxBodySize = 0 }, ErrInvalidMaxBodySize},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, ErrInvalidShutdownTimeout},
		{"history without dir", func(c *Config) { c.DBDir = "" }, ErrNoDBDir},
		{"no history without dir is valid", func(c *Config) { c.DBDir, c.SaveToDB = "", false }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfigValidateTargets(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if err := cfg.ValidateTargets(); !errors.Is(err, ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}

	cfg.Targets = []string{"https://example.com/"}
	if err := cfg.ValidateTargets(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.BatchSize = 0
	if err := cfg.ValidateTargets(); !errors.Is(err, ErrInvalidBatchSize) {
		t.Errorf("expected ErrInvalidBatchSize, got %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.phishscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `threshold: 0.58
top_k: 3
model: /opt/models/rf.yaml
batch_size: 4
db_dir: /var/lib/phishscan
rules:
  enabled: true
server:
  addr: 0.0.0.0:8080
  log_json: true
  max_body_size: 1024
`)
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		f.Apply(cfg)

		if cfg.Threshold != 0.58 || !cfg.ThresholdSet {
			t.Errorf("Threshold = %v, set = %v", cfg.Threshold, cfg.ThresholdSet)
		}
		if cfg.TopK != 3 {
			t.Errorf("TopK = %d", cfg.TopK)
		}
		if cfg.ModelPath != "/opt/models/rf.yaml" {
			t.Errorf("ModelPath = %q", cfg.ModelPath)
		}
		if cfg.BatchSize != 4 {
			t.Errorf("BatchSize = %d", cfg.BatchSize)
		}
		if cfg.DBDir != "/var/lib/phishscan" {
			t.Errorf("DBDir = %q", cfg.DBDir)
		}
		if !cfg.RulesEnabled {
			t.Error("expected RulesEnabled")
		}
		if cfg.ListenAddr != "0.0.0.0:8080" || !cfg.LogJSON || cfg.MaxBodySize != 1024 {
			t.Errorf("server = %q %v %d", cfg.ListenAddr, cfg.LogJSON, cfg.MaxBodySize)
		}
	})

	t.Run("unset keys keep defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "top_k: 0\n")
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		f.Apply(cfg)
		if cfg.TopK != 0 {
			t.Errorf("explicit zero top_k was ignored: %d", cfg.TopK)
		}
		if cfg.Threshold != DefaultThreshold || cfg.ListenAddr != DefaultListenAddr {
			t.Errorf("defaults were overwritten: %+v", cfg)
		}
		if cfg.ThresholdSet {
			t.Error("ThresholdSet without a threshold key")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(writeConfig(t, `invalid: yaml: content: [}`))
		if err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("nil file applies nothing", func(t *testing.T) {
		t.Parallel()

		var f *File
		cfg := NewConfig()
		f.Apply(cfg)
		if cfg.Threshold != DefaultThreshold {
			t.Error("nil file changed the config")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit file is applied", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "threshold: 0.7\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Threshold != 0.7 {
			t.Errorf("Threshold = %v", cfg.Threshold)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("ConfigFilePath = %q", cfg.ConfigFilePath)
		}
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("broken explicit file fails", func(t *testing.T) {
		t.Parallel()

		_, err := Load(writeConfig(t, "threshold: [\n"))
		if err == nil || !strings.Contains(err.Error(), "failed to load config file") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := writeConfig(t, "top_k: 1\n")

		result := FindConfigFile(configPath)
		if result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		result := FindConfigFile("/nonexistent/path/config.yaml")
		if result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("finds file in current directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("top_k: 1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)

		result := FindConfigFile("")
		if filepath.Base(result) != DefaultConfigFile || filepath.Dir(result) == "" {
			t.Errorf("expected %s in %s, got %q", DefaultConfigFile, dir, result)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	t.Run("XDGDataDir ends with app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGDataDir()) != AppName {
			t.Errorf("unexpected XDG data dir %q", XDGDataDir())
		}
	})

	t.Run("XDGConfigDir ends with app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGConfigDir()) != AppName {
			t.Errorf("unexpected XDG config dir %q", XDGConfigDir())
		}
	})

	t.Run("DefaultModelPath lives in config dir", func(t *testing.T) {
		t.Parallel()
		if DefaultModelPath() != filepath.Join(XDGConfigDir(), ModelFileName) {
			t.Errorf("unexpected model path %q", DefaultModelPath())
		}
	})
}

func TestResolveModelPath(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.ModelPath = "/explicit/model.yaml"
	if got := cfg.ResolveModelPath(); got != "/explicit/model.yaml" {
		t.Errorf("ResolveModelPath() = %q", got)
	}
}
