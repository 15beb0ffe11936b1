package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	gferrors "github.com/gateflow-tech/gateflow/internal/errors"
)

// Pre-compiled regex patterns for environment variable expansion.
// These are compiled once at package initialization to avoid repeated compilation.
var (
	// envVarPattern matches ${VAR} or ${VAR:-default} syntax
	envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)
	// simpleEnvVarPattern matches $VAR syntax
	simpleEnvVarPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Loader handles configuration loading and merging.
type Loader struct {
	v           *viper.Viper
	configPath  string
	searchPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("GATEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:           v,
		searchPaths: []string{"."},
	}
}

// WithConfigPath sets an explicit config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths adds directories to search for config files.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = append(l.searchPaths, paths...)
	return l
}

// Load loads the configuration.
func (l *Loader) Load() (*Config, error) {
	const op = "config.Load"

	// Set defaults
	l.setDefaults()

	// Load config file
	if err := l.loadConfigFile(); err != nil {
		return nil, gferrors.ConfigWrap(err, op, "failed to load config file")
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, gferrors.ConfigWrap(err, op, "failed to unmarshal config")
	}

	// Ladders have no Viper defaults, so a config file without the key
	// falls back to the placeholder ladders here.
	if cfg.Approval.Ladders == nil {
		cfg.Approval.Ladders = DefaultLadders()
	}

	// Expand environment variables in path fields
	l.expandEnvVars(cfg)

	return cfg, nil
}

// setDefaults sets default values using Viper.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	// Threshold defaults
	l.v.SetDefault("thresholds.percent", defaults.Thresholds.Percent)
	l.v.SetDefault("thresholds.absolute", defaults.Thresholds.Absolute)
	l.v.SetDefault("thresholds.mode", defaults.Thresholds.Mode)

	// Approval defaults. Ladders are deliberately not defaulted through
	// Viper: a map default would merge with a partial ladder from the
	// config file instead of being replaced by it.
	l.v.SetDefault("approval.policy", defaults.Approval.Policy)
	l.v.SetDefault("approval.level_policy", defaults.Approval.LevelPolicy)

	// Storage defaults
	l.v.SetDefault("storage.backend", defaults.Storage.Backend)
	l.v.SetDefault("storage.dir", defaults.Storage.Dir)

	// Pending defaults
	l.v.SetDefault("pending.poll_interval", defaults.Pending.PollInterval)
	l.v.SetDefault("pending.count_concurrency", defaults.Pending.CountConcurrency)
	l.v.SetDefault("pending.retry_attempts", defaults.Pending.RetryAttempts)
	l.v.SetDefault("pending.retry_initial_wait", defaults.Pending.RetryInitialWait)
	l.v.SetDefault("pending.retry_max_wait", defaults.Pending.RetryMaxWait)
	l.v.SetDefault("pending.breaker_enabled", defaults.Pending.BreakerEnabled)
	l.v.SetDefault("pending.breaker_threshold", defaults.Pending.BreakerThreshold)
	l.v.SetDefault("pending.breaker_timeout", defaults.Pending.BreakerTimeout)
	l.v.SetDefault("pending.breaker_max_requests", defaults.Pending.BreakerMaxRequests)

	// Output defaults
	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.color", defaults.Output.Color)
	l.v.SetDefault("output.verbose", defaults.Output.Verbose)
	l.v.SetDefault("output.quiet", defaults.Output.Quiet)
	l.v.SetDefault("output.log_level", defaults.Output.LogLevel)
}

// loadConfigFile loads the configuration file.
func (l *Loader) loadConfigFile() error {
	// If explicit path provided, use it
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", l.configPath, err)
		}
		return nil
	}

	// Search for config file in paths
	for _, searchPath := range l.searchPaths {
		for _, name := range ConfigFileNames {
			for _, ext := range ConfigFileExtensions {
				configFile := filepath.Join(searchPath, name+"."+ext)
				if _, err := os.Stat(configFile); err == nil {
					l.v.SetConfigFile(configFile)
					if err := l.v.ReadInConfig(); err != nil {
						return fmt.Errorf("reading config file %s: %w", configFile, err)
					}
					return nil
				}
			}
		}
	}

	// No config file found - this is OK, we use defaults
	return nil
}

// expandEnvVars expands environment variables in path configuration fields.
func (l *Loader) expandEnvVars(cfg *Config) {
	cfg.Storage.Dir = expandEnvVar(cfg.Storage.Dir)
	cfg.Output.LogFile = expandEnvVar(cfg.Output.LogFile)
}

// expandEnvVar expands environment variables in a string.
// Supports both ${VAR} and $VAR syntax.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Use pre-compiled pattern for ${VAR} or ${VAR:-default}
	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultValue := ""
		if len(submatch) > 2 {
			defaultValue = submatch[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})

	// Also expand simple $VAR syntax (but not $$) using pre-compiled pattern
	result = simpleEnvVarPattern.ReplaceAllStringFunc(result, func(match string) string {
		varName := match[1:] // Remove leading $
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})

	return result
}

// GetConfigPath returns the path to the loaded config file, if any.
func (l *Loader) GetConfigPath() string {
	return l.v.ConfigFileUsed()
}

// MergeConfig merges additional configuration values.
func (l *Loader) MergeConfig(values map[string]any) error {
	for key, value := range values {
		l.v.Set(key, value)
	}
	return nil
}

// WriteConfig writes the current configuration to a file.
func WriteConfig(cfg *Config, path string) error {
	const op = "config.WriteConfig"

	v := viper.New()

	// Set all values from config
	v.Set("thresholds", cfg.Thresholds)
	v.Set("approval", cfg.Approval)
	v.Set("storage", cfg.Storage)
	v.Set("pending", cfg.Pending)
	v.Set("output", cfg.Output)

	// Write to file
	if err := v.WriteConfigAs(path); err != nil {
		return gferrors.ConfigWrap(err, op, "failed to write config file")
	}

	return nil
}

// WriteDefaultConfig writes the default configuration to a file.
func WriteDefaultConfig(path string) error {
	return WriteConfig(DefaultConfig(), path)
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// LoadFromDirectory loads configuration from a directory.
func LoadFromDirectory(dir string) (*Config, error) {
	return NewLoader().WithSearchPaths(dir).Load()
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := NewLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// FindConfigFile searches for a config file and returns its path.
func FindConfigFile(searchPaths ...string) (string, error) {
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}

	for _, searchPath := range searchPaths {
		for _, name := range ConfigFileNames {
			for _, ext := range ConfigFileExtensions {
				configFile := filepath.Join(searchPath, name+"."+ext)
				if _, err := os.Stat(configFile); err == nil {
					return configFile, nil
				}
			}
		}
	}

	return "", gferrors.NotFound("config.FindConfigFile", "no config file found")
}

// ConfigExists returns true if a config file exists in the given directory.
func ConfigExists(dir string) bool {
	_, err := FindConfigFile(dir)
	return err == nil
}
