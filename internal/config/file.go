package config

// File represents the structure of the .phishscan configuration file.
// Pointer fields distinguish "not set" from zero values so that only the
// keys present in the file override defaults.
type File struct {
	// Threshold is the decision threshold in [0,1].
	Threshold *float64 `yaml:"threshold,omitempty"`

	// TopK is the number of reasons per verdict.
	TopK *int `yaml:"top_k,omitempty"`

	// Model is the path to a model artifact (.json, .yaml or .yml).
	Model string `yaml:"model,omitempty"`

	// BatchSize is the number of URLs scored concurrently.
	BatchSize *int `yaml:"batch_size,omitempty"`

	// DBDir overrides the history database directory.
	DBDir string `yaml:"db_dir,omitempty"`

	// Rules configures the rule pre-check.
	Rules RulesFile `yaml:"rules,omitempty"`

	// Server configures `serve`.
	Server ServerFile `yaml:"server,omitempty"`
}

// RulesFile is the rules section of the configuration file.
type RulesFile struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// ServerFile is the server section of the configuration file.
type ServerFile struct {
	Addr        string `yaml:"addr,omitempty"`
	LogJSON     *bool  `yaml:"log_json,omitempty"`
	MaxBodySize *int64 `yaml:"max_body_size,omitempty"`
}

// Apply copies every value set in f onto c.
func (f *File) Apply(c *Config) {
	if f == nil {
		return
	}
	if f.Threshold != nil {
		c.Threshold = *f.Threshold
		c.ThresholdSet = true
	}
	if f.TopK != nil {
		c.TopK = *f.TopK
	}
	if f.Model != "" {
		c.ModelPath = f.Model
	}
	if f.BatchSize != nil {
		c.BatchSize = *f.BatchSize
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
	if f.Rules.Enabled != nil {
		c.RulesEnabled = *f.Rules.Enabled
	}
	if f.Server.Addr != "" {
		c.ListenAddr = f.Server.Addr
	}
	if f.Server.LogJSON != nil {
		c.LogJSON = *f.Server.LogJSON
	}
	if f.Server.MaxBodySize != nil {
		c.MaxBodySize = *f.Server.MaxBodySize
	}
}
