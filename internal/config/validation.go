package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

const maxDimension = 10000

// Validate checks cfg. Referenced files must exist; relative paths are
// resolved against cfg.Dir.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}
	c.validateWindow(result)
	c.validateFiles(result)

	if _, err := ParseLevel(c.LogLevel); err != nil {
		result.AddError("log_level", err.Error())
	}
	if c.Backend < BackendWindow || c.Backend > BackendPNG {
		result.AddError("backend", fmt.Sprintf("unknown backend: %d", c.Backend))
	}
	if c.Backend == BackendPNG && c.Output == "" {
		result.AddError("output", "required for the png backend")
	}
	if c.Transparent && c.Backend != BackendWindow {
		result.AddWarning("transparent", fmt.Sprintf("ignored by the %s backend", c.Backend))
	}
	if c.Watch && c.Backend == BackendPNG {
		result.AddWarning("watch", "ignored by the png backend")
	}
	return result
}

func (c *Config) validateWindow(result *ValidationResult) {
	if c.Width <= 0 {
		result.AddError("width", fmt.Sprintf("must be positive, got %d", c.Width))
	}
	if c.Height <= 0 {
		result.AddError("height", fmt.Sprintf("must be positive, got %d", c.Height))
	}
	if c.Width > maxDimension {
		result.AddWarning("width", fmt.Sprintf("unusually large value %d", c.Width))
	}
	if c.Height > maxDimension {
		result.AddWarning("height", fmt.Sprintf("unusually large value %d", c.Height))
	}
	if c.TPS < 0 {
		result.AddError("tps", fmt.Sprintf("must be non-negative, got %d", c.TPS))
	}
	if c.TPS > 240 {
		result.AddWarning("tps", fmt.Sprintf("very high rate %d may cause high CPU usage", c.TPS))
	}
}

func (c *Config) validateFiles(result *ValidationResult) {
	if c.Scene != "" {
		checkFile(result, "scene", c.Resolve(c.Scene))
	}
	for name, p := range c.Images {
		field := fmt.Sprintf("images.%s", name)
		if name == "" {
			result.AddError("images", "empty image name")
			continue
		}
		if p == "" {
			result.AddError(field, "empty path")
			continue
		}
		checkFile(result, field, c.Resolve(p))
	}
	for i, f := range c.Fonts {
		field := fmt.Sprintf("fonts[%d]", i+1)
		if f.Family == "" {
			result.AddError(field, "missing family")
		}
		if f.Path == "" {
			result.AddError(field, "missing path")
			continue
		}
		checkFile(result, field, c.Resolve(f.Path))
	}
}

func checkFile(result *ValidationResult, field, p string) {
	info, err := os.Stat(p)
	switch {
	case err != nil:
		result.AddError(field, fmt.Sprintf("cannot read %s: %v", p, err))
	case info.IsDir():
		result.AddError(field, fmt.Sprintf("%s is a directory", p))
	}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
	return l, nil
}
