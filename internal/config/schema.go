// Package config provides configuration management for GateFlow.
package config

import (
	"time"
)

// Config is the root configuration for GateFlow.
type Config struct {
	// Thresholds configures the cost-change gate.
	Thresholds ThresholdsConfig `mapstructure:"thresholds" json:"thresholds"`
	// Approval configures chain routing and approver ladders.
	Approval ApprovalConfig `mapstructure:"approval" json:"approval"`
	// Storage configures where revisions, chains and events persist.
	Storage StorageConfig `mapstructure:"storage" json:"storage"`
	// Pending configures the pending-approval query service.
	Pending PendingConfig `mapstructure:"pending" json:"pending"`
	// Output configures output settings.
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// ThresholdsConfig configures the cost-change gate.
type ThresholdsConfig struct {
	// Percent is the relative limit as a fraction (0.05 means 5%).
	Percent float64 `mapstructure:"percent" json:"percent"`
	// Absolute is the absolute limit in currency units.
	Absolute float64 `mapstructure:"absolute" json:"absolute"`
	// Mode combines the limits: "OR" trips on either, "AND" needs both.
	Mode string `mapstructure:"mode" json:"mode"`
}

// ApprovalConfig configures chain routing and approver ladders.
type ApprovalConfig struct {
	// Policy selects ladder depth: "dual" keeps every chain at a single
	// manager level, "banded" escalates with the size of the change.
	Policy string `mapstructure:"policy" json:"policy"`
	// LevelPolicy resolves levels staffed by several approvers:
	// "all" requires every approver on the level, "any" requires one.
	LevelPolicy string `mapstructure:"level_policy" json:"level_policy"`
	// Ladders maps document types (purchase_order, sales_order, rma)
	// to their approver ladders, ordered by level.
	Ladders map[string][]ApproverConfig `mapstructure:"ladders" json:"ladders,omitempty"`
}

// ApproverConfig is one approver entry in a ladder.
type ApproverConfig struct {
	// ID is the principal identifier the approver signs decisions with.
	ID string `mapstructure:"id" json:"id"`
	// Name is the display name.
	Name string `mapstructure:"name" json:"name,omitempty"`
	// Role is the organizational role (manager, director, executive).
	Role string `mapstructure:"role" json:"role,omitempty"`
	// Email is an optional contact address.
	Email string `mapstructure:"email" json:"email,omitempty"`
	// Level is the ladder rung, starting at 1.
	Level int `mapstructure:"level" json:"level"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// Backend selects the store: "file" or "memory".
	Backend string `mapstructure:"backend" json:"backend"`
	// Dir is the root directory for file-backed storage. Environment
	// variables expand, so "${HOME}/.gateflow" works.
	Dir string `mapstructure:"dir" json:"dir"`
}

// PendingConfig configures the pending-approval query service.
type PendingConfig struct {
	// PollInterval is how often the service refreshes in the background.
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	// CountConcurrency bounds parallel per-principal count fetches.
	CountConcurrency int `mapstructure:"count_concurrency" json:"count_concurrency"`
	// RetryAttempts is how many times a failed fetch is retried.
	RetryAttempts int `mapstructure:"retry_attempts" json:"retry_attempts"`
	// RetryInitialWait is the first retry backoff delay.
	RetryInitialWait time.Duration `mapstructure:"retry_initial_wait" json:"retry_initial_wait"`
	// RetryMaxWait caps the retry backoff delay.
	RetryMaxWait time.Duration `mapstructure:"retry_max_wait" json:"retry_max_wait"`
	// BreakerEnabled turns the circuit breaker on.
	BreakerEnabled bool `mapstructure:"breaker_enabled" json:"breaker_enabled"`
	// BreakerThreshold is the consecutive failures before the breaker opens.
	BreakerThreshold int `mapstructure:"breaker_threshold" json:"breaker_threshold"`
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout" json:"breaker_timeout"`
	// BreakerMaxRequests is the number of probes allowed while half-open.
	BreakerMaxRequests int `mapstructure:"breaker_max_requests" json:"breaker_max_requests"`
}

// OutputConfig configures output settings.
type OutputConfig struct {
	// Format is the output format (text, json).
	Format string `mapstructure:"format" json:"format"`
	// Color enables colored output.
	Color bool `mapstructure:"color" json:"color"`
	// Verbose enables verbose output.
	Verbose bool `mapstructure:"verbose" json:"verbose"`
	// Quiet suppresses non-essential output.
	Quiet bool `mapstructure:"quiet" json:"quiet"`
	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	// LogFile is the path to a log file. Environment variables expand.
	LogFile string `mapstructure:"log_file" json:"log_file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdsConfig{
			Percent:  0.05,
			Absolute: 500,
			Mode:     "OR",
		},
		Approval: ApprovalConfig{
			Policy:      "banded",
			LevelPolicy: "all",
			Ladders:     DefaultLadders(),
		},
		Storage: StorageConfig{
			Backend: "file",
			Dir:     ".gateflow",
		},
		Pending: PendingConfig{
			PollInterval:       30 * time.Second,
			CountConcurrency:   4,
			RetryAttempts:      3,
			RetryInitialWait:   200 * time.Millisecond,
			RetryMaxWait:       5 * time.Second,
			BreakerEnabled:     true,
			BreakerThreshold:   5,
			BreakerTimeout:     30 * time.Second,
			BreakerMaxRequests: 3,
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    true,
			Verbose:  false,
			Quiet:    false,
			LogLevel: "info",
		},
	}
}

// DefaultLadders returns a placeholder three-level ladder for every
// document type. Deployments override these with their own people.
func DefaultLadders() map[string][]ApproverConfig {
	ladder := []ApproverConfig{
		{ID: "manager-1", Name: "Manager", Role: "manager", Level: 1},
		{ID: "director-1", Name: "Director", Role: "director", Level: 2},
		{ID: "executive-1", Name: "Executive", Role: "executive", Level: 3},
	}
	return map[string][]ApproverConfig{
		"purchase_order": ladder,
		"sales_order":    ladder,
		"rma":            ladder,
	}
}

// DocumentTypeNames are the ladder keys the configuration accepts.
var DocumentTypeNames = []string{
	"purchase_order",
	"sales_order",
	"rma",
}

// ConfigFileNames to search for.
// Only .gateflow.{yaml,yml,json,toml} is supported for consistency
// with Go ecosystem conventions (.goreleaser.yaml, .golangci.yml, etc.).
var ConfigFileNames = []string{
	".gateflow",
}

// ConfigFileExtensions supported by Viper.
var ConfigFileExtensions = []string{
	"yaml",
	"yml",
	"json",
	"toml",
}
