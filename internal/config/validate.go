package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gferrors "github.com/gateflow-tech/gateflow/internal/errors"
)

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}

	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (e *ValidationError) HasWarnings() bool {
	return len(e.Warnings) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validator validates configuration.
type Validator struct {
	errors *ValidationError
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: &ValidationError{},
	}
}

// Validate validates the configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateThresholds(cfg.Thresholds)
	v.validateApproval(cfg.Approval)
	v.validateStorage(cfg.Storage)
	v.validatePending(cfg.Pending)
	v.validateOutput(cfg.Output)

	// Print warnings to stderr even if there are no errors
	if v.errors.HasWarnings() {
		fmt.Fprintf(os.Stderr, "\n⚠️  Configuration Warnings:\n")
		for _, warning := range v.errors.Warnings {
			fmt.Fprintf(os.Stderr, "  - %s\n", warning)
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	if v.errors.HasErrors() {
		return gferrors.Validation("config.Validate", v.errors.Error())
	}

	return nil
}

// validateThresholds validates the cost-change gate configuration.
func (v *Validator) validateThresholds(cfg ThresholdsConfig) {
	if cfg.Percent < 0 {
		v.errors.Addf("thresholds.percent: must be non-negative, got %f", cfg.Percent)
	}

	// A value like 5 almost always means 5% written as a whole number.
	if cfg.Percent > 1 {
		v.errors.Warnf("thresholds.percent: %.2f is greater than 1; the limit is a fraction, so 5%% is 0.05", cfg.Percent)
	}

	if cfg.Absolute < 0 {
		v.errors.Addf("thresholds.absolute: must be non-negative, got %f", cfg.Absolute)
	}

	validModes := []string{"OR", "AND"}
	if !slices.Contains(validModes, cfg.Mode) {
		v.errors.Addf("thresholds.mode: must be one of %v, got %q", validModes, cfg.Mode)
	}

	if cfg.Percent == 0 && cfg.Absolute == 0 {
		v.errors.Warnf("thresholds: both limits are zero, so every cost change requires approval")
	}
}

// validateApproval validates chain routing and approver ladders.
func (v *Validator) validateApproval(cfg ApprovalConfig) {
	validPolicies := []string{"dual", "banded"}
	if !slices.Contains(validPolicies, cfg.Policy) {
		v.errors.Addf("approval.policy: must be one of %v, got %q", validPolicies, cfg.Policy)
	}

	validLevelPolicies := []string{"all", "any"}
	if !slices.Contains(validLevelPolicies, cfg.LevelPolicy) {
		v.errors.Addf("approval.level_policy: must be one of %v, got %q", validLevelPolicies, cfg.LevelPolicy)
	}

	for docType, ladder := range cfg.Ladders {
		if !slices.Contains(DocumentTypeNames, docType) {
			v.errors.Addf("approval.ladders.%s: unknown document type, must be one of %v", docType, DocumentTypeNames)
			continue
		}

		if len(ladder) == 0 {
			v.errors.Addf("approval.ladders.%s: ladder is empty", docType)
			continue
		}

		seenIDs := make(map[string]bool)
		hasLevelOne := false
		for i, approver := range ladder {
			if strings.TrimSpace(approver.ID) == "" {
				v.errors.Addf("approval.ladders.%s[%d].id: required", docType, i)
			}
			if approver.Level < 1 {
				v.errors.Addf("approval.ladders.%s[%d].level: must be at least 1, got %d", docType, i, approver.Level)
			}
			if approver.Level == 1 {
				hasLevelOne = true
			}
			if approver.ID != "" && seenIDs[approver.ID] {
				v.errors.Addf("approval.ladders.%s[%d].id: duplicate approver %q", docType, i, approver.ID)
			}
			seenIDs[approver.ID] = true
		}

		if !hasLevelOne {
			v.errors.Warnf("approval.ladders.%s: no level 1 approver, small changes cannot be routed", docType)
		}
	}
}

// validateStorage validates persistence configuration.
func (v *Validator) validateStorage(cfg StorageConfig) {
	validBackends := []string{"file", "memory"}
	if !slices.Contains(validBackends, cfg.Backend) {
		v.errors.Addf("storage.backend: must be one of %v, got %q", validBackends, cfg.Backend)
	}

	if cfg.Backend == "file" && strings.TrimSpace(cfg.Dir) == "" {
		v.errors.Addf("storage.dir: required when backend is 'file'")
	}

	if cfg.Backend == "memory" {
		v.errors.Warnf("storage.backend: 'memory' loses all revisions and chains on exit")
	}
}

// validatePending validates the pending-approval query service configuration.
func (v *Validator) validatePending(cfg PendingConfig) {
	if cfg.PollInterval <= 0 {
		v.errors.Addf("pending.poll_interval: must be positive")
	}

	if cfg.CountConcurrency < 1 {
		v.errors.Addf("pending.count_concurrency: must be at least 1, got %d", cfg.CountConcurrency)
	}

	if cfg.RetryAttempts < 0 {
		v.errors.Addf("pending.retry_attempts: must be non-negative, got %d", cfg.RetryAttempts)
	}

	if cfg.RetryInitialWait < 0 {
		v.errors.Addf("pending.retry_initial_wait: must be non-negative")
	}

	if cfg.RetryMaxWait < 0 {
		v.errors.Addf("pending.retry_max_wait: must be non-negative")
	}

	if cfg.RetryMaxWait > 0 && cfg.RetryInitialWait > cfg.RetryMaxWait {
		v.errors.Warnf("pending.retry_initial_wait: %s exceeds retry_max_wait %s, backoff is capped immediately",
			cfg.RetryInitialWait, cfg.RetryMaxWait)
	}

	if cfg.BreakerEnabled {
		if cfg.BreakerThreshold < 1 {
			v.errors.Addf("pending.breaker_threshold: must be at least 1 when the breaker is enabled, got %d", cfg.BreakerThreshold)
		}
		if cfg.BreakerTimeout <= 0 {
			v.errors.Addf("pending.breaker_timeout: must be positive when the breaker is enabled")
		}
		if cfg.BreakerMaxRequests < 1 {
			v.errors.Addf("pending.breaker_max_requests: must be at least 1 when the breaker is enabled, got %d", cfg.BreakerMaxRequests)
		}
	}
}

// validateOutput validates output configuration.
func (v *Validator) validateOutput(cfg OutputConfig) {
	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, cfg.Format) {
		v.errors.Addf("output.format: must be one of %v, got %q", validFormats, cfg.Format)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		v.errors.Addf("output.log_level: must be one of %v, got %q", validLogLevels, cfg.LogLevel)
	}

	// Quiet and verbose are mutually exclusive
	if cfg.Quiet && cfg.Verbose {
		v.errors.Addf("output: quiet and verbose cannot both be enabled")
	}

	// Validate log_file directory exists
	if cfg.LogFile != "" {
		dir := filepath.Dir(cfg.LogFile)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				v.errors.Addf("output.log_file: directory does not exist: %s", dir)
			}
		}
	}
}

// Validate is a convenience function to validate configuration.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// ValidateAndLoad loads and validates configuration.
func ValidateAndLoad() (*Config, error) {
	cfg, err := NewLoader().Load()
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
