package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test input defaults
	if cfg.Input.Dir != "peals/raw" {
		t.Errorf("expected input dir 'peals/raw', got %s", cfg.Input.Dir)
	}
	if cfg.Input.Pattern != "*.txt" {
		t.Errorf("expected input pattern '*.txt', got %s", cfg.Input.Pattern)
	}

	// Test analysis defaults
	if cfg.Analysis.MaxStage != 8 {
		t.Errorf("expected max_stage 8, got %d", cfg.Analysis.MaxStage)
	}
	if cfg.Analysis.SamplesPerCycle != 3 {
		t.Errorf("expected samples_per_cycle 3, got %d", cfg.Analysis.SamplesPerCycle)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Analysis.Workers)
	}
	if cfg.Analysis.Strict {
		t.Errorf("expected strict mode off by default")
	}

	// Test output defaults
	if cfg.Output.Path != "music_structures.json" {
		t.Errorf("expected output path 'music_structures.json', got %s", cfg.Output.Path)
	}
	if cfg.Output.Overwrite {
		t.Errorf("expected overwrite off by default")
	}

	// Test database defaults
	if cfg.Database.Enabled {
		t.Errorf("expected database disabled by default")
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("expected database port 3306, got %d", cfg.Database.Port)
	}
	if cfg.Database.TablePrefix != "pealscope_" {
		t.Errorf("expected table prefix 'pealscope_', got %s", cfg.Database.TablePrefix)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("expected logging output 'stderr', got %s", cfg.Logging.Output)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("expected default config to validate, got: %v", err)
	}
}
