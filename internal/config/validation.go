package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/pealscope/internal/sqlutil"
)

// MaxStageLimit is the largest stage the group catalog may be asked to
// enumerate: 10! is 3,628,800 permutations.
const MaxStageLimit = 10

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateInput(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateAnalysis(); err != nil {
		errors = append(errors, err...)
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "output.path",
			Message: "output path is required (use '-' for stdout)",
		})
	}

	// The result store is optional
	if c.Database.Enabled {
		if err := c.validateDatabase("database", &c.Database); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateInput() ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(c.Input.Dir) == "" {
		errors = append(errors, ValidationError{
			Field:   "input.dir",
			Message: "input directory is required",
		})
	}

	if strings.ContainsAny(c.Input.Pattern, "/\\") {
		errors = append(errors, ValidationError{
			Field:   "input.pattern",
			Message: "pattern must not contain path separators",
		})
	}

	return errors
}

func (c *Config) validateAnalysis() ValidationErrors {
	var errors ValidationErrors

	if c.Analysis.MaxStage < 0 || c.Analysis.MaxStage > MaxStageLimit {
		errors = append(errors, ValidationError{
			Field:   "analysis.max_stage",
			Message: fmt.Sprintf("max_stage must be between 0 and %d", MaxStageLimit),
		})
	}

	if c.Analysis.SamplesPerCycle < 0 {
		errors = append(errors, ValidationError{
			Field:   "analysis.samples_per_cycle",
			Message: "samples_per_cycle cannot be negative",
		})
	}

	if c.Analysis.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "analysis.workers",
			Message: "workers cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateDatabase(prefix string, db *DatabaseConfig) ValidationErrors {
	var errors ValidationErrors

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	if db.TablePrefix != "" {
		if err := sqlutil.ValidateIdentifier(db.TablePrefix); err != nil {
			errors = append(errors, ValidationError{
				Field:   prefix + ".table_prefix",
				Message: err.Error(),
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
