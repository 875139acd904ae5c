// Package config provides configuration structures and loading for pealscope.
package config

// Config represents the complete application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// InputConfig locates the peal definition files.
type InputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Pattern string `yaml:"pattern" mapstructure:"pattern"` // glob relative to Dir
}

// AnalysisConfig bounds the analysis run.
type AnalysisConfig struct {
	MaxStage        int  `yaml:"max_stage" mapstructure:"max_stage"`                 // largest stage enumerated for the group catalog
	SamplesPerCycle int  `yaml:"samples_per_cycle" mapstructure:"samples_per_cycle"` // samples kept per cycle type
	Workers         int  `yaml:"workers" mapstructure:"workers"`                     // concurrent sequence analyses
	Strict          bool `yaml:"strict" mapstructure:"strict"`                       // fail the run on the first rejected sequence
}

// OutputConfig controls the JSON export.
type OutputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"` // file path or "-" for stdout
	Indent    bool   `yaml:"indent" mapstructure:"indent"`
	Overwrite bool   `yaml:"overwrite" mapstructure:"overwrite"`
}

// DatabaseConfig represents the optional MySQL result store.
type DatabaseConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
	TablePrefix        string `yaml:"table_prefix" mapstructure:"table_prefix"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Dir:     "peals/raw",
			Pattern: "*.txt",
		},
		Analysis: AnalysisConfig{
			MaxStage:        8,
			SamplesPerCycle: 3,
			Workers:         4,
			Strict:          false,
		},
		Output: OutputConfig{
			Path:   "music_structures.json",
			Indent: true,
		},
		Database: DatabaseConfig{
			Enabled:            false,
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     4,
			MaxIdleConnections: 2,
			TablePrefix:        "pealscope_",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
