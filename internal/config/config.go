package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied when a field is absent from config.json.
const (
	DefaultStaleLockThreshold = 5 * time.Minute
	DefaultLockPollInterval   = 2 * time.Second
	DefaultSyncInterval       = 5 * time.Second
	DefaultSyncMaxRetries     = 3
	DefaultSyncBaseDelayMs    = 1000
	DefaultBatchMaxCount      = 50
	DefaultBatchMaxBytes      = 1_000_000
	DefaultPendingPageSize    = 50
)

// Config represents the flat acode configuration
type Config struct {
	Version          string `json:"version"`
	RemoteEndpoint   string `json:"remote_endpoint,omitempty"`    // sync delivery URL
	StaleLockSeconds int    `json:"stale_lock_seconds,omitempty"` // lock stale threshold
	SyncIntervalSecs int    `json:"sync_interval_seconds,omitempty"`
	SyncMaxRetries   int    `json:"sync_max_retries,omitempty"`
	SyncBaseDelayMs  int    `json:"sync_base_delay_ms,omitempty"`
	BatchMaxCount    int    `json:"batch_max_count,omitempty"`
	BatchMaxBytes    int    `json:"batch_max_bytes,omitempty"`
}

// HomeDir returns the acode state directory (~/.acode).
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".acode"), nil
}

// LocksDir returns the directory holding worktree lock files.
func LocksDir() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "locks"), nil
}

// LoadConfig reads config.json from the acode home directory.
// Returns defaults if no config file exists - a missing config is not an error.
func LoadConfig() (*Config, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{Version: "1"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to the acode home directory.
func SaveConfig(cfg *Config) error {
	dir, err := HomeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create acode dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// StaleLockThreshold returns the configured stale threshold or the default.
func (c *Config) StaleLockThreshold() time.Duration {
	if c.StaleLockSeconds > 0 {
		return time.Duration(c.StaleLockSeconds) * time.Second
	}
	return DefaultStaleLockThreshold
}

// SyncInterval returns the configured sync polling interval or the default.
func (c *Config) SyncInterval() time.Duration {
	if c.SyncIntervalSecs > 0 {
		return time.Duration(c.SyncIntervalSecs) * time.Second
	}
	return DefaultSyncInterval
}

// SyncBaseDelay returns the configured retry base delay or the default.
func (c *Config) SyncBaseDelay() time.Duration {
	if c.SyncBaseDelayMs > 0 {
		return time.Duration(c.SyncBaseDelayMs) * time.Millisecond
	}
	return DefaultSyncBaseDelayMs * time.Millisecond
}

// MaxRetries returns the configured retry cap or the default.
func (c *Config) MaxRetries() int {
	if c.SyncMaxRetries > 0 {
		return c.SyncMaxRetries
	}
	return DefaultSyncMaxRetries
}

// BatchLimits returns the configured batch count/byte limits or defaults.
func (c *Config) BatchLimits() (maxCount, maxBytes int) {
	maxCount = c.BatchMaxCount
	if maxCount <= 0 {
		maxCount = DefaultBatchMaxCount
	}
	maxBytes = c.BatchMaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultBatchMaxBytes
	}
	return maxCount, maxBytes
}
