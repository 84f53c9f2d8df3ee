package gangway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the instrumented Engine. It does not
// affect the pure permission sets in any way: decisions are identical
// whether or not auditing or logging is enabled.
type Config struct {
	// Audit enables writing decision log entries to the configured
	// store. Ignored when the engine has no store.
	Audit bool `json:"audit" yaml:"audit"`

	// AuditDeniedOnly restricts audit writes to denied operations.
	// Allowed operations dominate sync traffic; on busy stores the
	// denials are the interesting part.
	AuditDeniedOnly bool `json:"audit_denied_only" yaml:"audit_denied_only"`

	// LogDecisions enables per-decision debug logging.
	LogDecisions bool `json:"log_decisions" yaml:"log_decisions"`
}

// DefaultConfig returns a Config with sensible defaults: audit every
// decision when a store is configured, no per-decision debug logging.
func DefaultConfig() Config {
	return Config{Audit: true}
}

// LoadConfig reads a YAML config file. Missing fields keep their zero
// values; callers wanting defaults for unset files should start from
// DefaultConfig and overlay.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gangway: read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("gangway: parse config %s: %w", path, err)
	}
	return cfg, nil
}
