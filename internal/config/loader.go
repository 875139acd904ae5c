package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOrDefault behaves like Load but falls back to DefaultConfig when the
// file does not exist. Any other read or parse failure is returned.
func LoadOrDefault(configPath string) (*Config, bool, error) {
	if configPath == "" {
		return DefaultConfig(), false, nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), false, nil
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)
	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Input.Dir = expandEnvVar(cfg.Input.Dir)
	cfg.Output.Path = expandEnvVar(cfg.Output.Path)

	cfg.Database.Host = expandEnvVar(cfg.Database.Host)
	cfg.Database.User = expandEnvVar(cfg.Database.User)
	cfg.Database.Password = expandEnvVar(cfg.Database.Password)
	cfg.Database.Database = expandEnvVar(cfg.Database.Database)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, inputDir, outputPath string, maxStage, workers int, strict bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if inputDir != "" {
		c.Input.Dir = inputDir
	}
	if outputPath != "" {
		c.Output.Path = outputPath
	}
	if maxStage > 0 {
		c.Analysis.MaxStage = maxStage
	}
	if workers > 0 {
		c.Analysis.Workers = workers
	}
	if strict {
		c.Analysis.Strict = true
	}
}
