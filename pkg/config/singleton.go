package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	current  atomic.Pointer[Config]
	initOnce sync.Once
	initErr  error
)

// Initialize loads the file at path, applies COURIER_* overrides and
// installs the result as the process configuration. Only the first call
// loads; later calls return the first call's error.
func Initialize(path string) error {
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		current.Store(cfg)
	})
	return initErr
}

// GetConfig returns the installed configuration, or nil before Initialize.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig installs cfg. Tests use it to reset state.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig reads path again. A file that fails to load or validate
// leaves the installed configuration untouched.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(cfg)
	return cfg, nil
}
