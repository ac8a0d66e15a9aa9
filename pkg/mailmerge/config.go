package mailmerge

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the merge engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// StrictMode reports table regions that cannot be found as errors
	// instead of skipping them.
	StrictMode bool `yaml:"strict_mode"`
	// KeepFieldFormatting copies the run properties of a simple field's
	// result run onto the text that replaces it.
	KeepFieldFormatting bool `yaml:"keep_field_formatting"`
	// DateFormat is the Go layout used to stringify time.Time values
	DateFormat string `yaml:"date_format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:            "info",
		StrictMode:          false,
		KeepFieldFormatting: true,
		DateFormat:          time.DateOnly,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	config.applyEnvOverrides()
	return config
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.applyEnvOverrides()
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnvOverrides()
	return config, nil
}

func (c *Config) applyEnvOverrides() {
	// MAILMERGE_LOG_LEVEL
	if val := os.Getenv("MAILMERGE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	// MAILMERGE_STRICT_MODE
	if val := os.Getenv("MAILMERGE_STRICT_MODE"); val != "" {
		c.StrictMode = parseBool(val)
	}

	// MAILMERGE_KEEP_FIELD_FORMATTING
	if val := os.Getenv("MAILMERGE_KEEP_FIELD_FORMATTING"); val != "" {
		c.KeepFieldFormatting = parseBool(val)
	}

	// MAILMERGE_DATE_FORMAT
	if val := os.Getenv("MAILMERGE_DATE_FORMAT"); val != "" {
		c.DateFormat = val
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	verr := &ValidationError{}

	if _, _, err := ParseLogLevel(c.LogLevel); err != nil {
		verr.Add("log_level", err.Error())
	}

	if strings.TrimSpace(c.DateFormat) == "" {
		verr.Add("date_format", "must not be empty")
	}

	return verr.Err()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
