package config

import (
	"strings"
	"testing"
)

func TestValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database = DatabaseConfig{
		Enabled:     true,
		Host:        "localhost",
		Port:        3306,
		User:        "root",
		Password:    "pass",
		Database:    "towers",
		TablePrefix: "ps_",
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestDisabledDatabaseSkipsValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database = DatabaseConfig{Enabled: false}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected disabled database to be ignored, got: %v", err)
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty input dir", func(c *Config) { c.Input.Dir = "  " }, "input.dir"},
		{"pattern with separator", func(c *Config) { c.Input.Pattern = "sub/*.txt" }, "input.pattern"},
		{"negative max stage", func(c *Config) { c.Analysis.MaxStage = -1 }, "analysis.max_stage"},
		{"max stage above limit", func(c *Config) { c.Analysis.MaxStage = MaxStageLimit + 1 }, "analysis.max_stage"},
		{"negative samples", func(c *Config) { c.Analysis.SamplesPerCycle = -3 }, "analysis.samples_per_cycle"},
		{"negative workers", func(c *Config) { c.Analysis.Workers = -1 }, "analysis.workers"},
		{"empty output path", func(c *Config) { c.Output.Path = "" }, "output.path"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"database without host", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, Port: 3306, User: "u", Database: "d"}
		}, "database.host"},
		{"database bad port", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, Host: "h", Port: 70000, User: "u", Database: "d"}
		}, "database.port"},
		{"database bad tls", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, Host: "h", Port: 3306, User: "u", Database: "d", TLS: "always"}
		}, "database.tls"},
		{"database bad prefix", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, Host: "h", Port: 3306, User: "u", Database: "d", TablePrefix: "ps-"}
		}, "database.table_prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error mentioning %s, got: %v", tt.field, err)
			}
		})
	}
}

func TestMultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Dir = ""
	cfg.Analysis.Workers = -1
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verrs), err)
	}
	if !strings.HasPrefix(err.Error(), "validation failed:") {
		t.Errorf("unexpected error format: %s", err.Error())
	}
}
