// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

var (
	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string

	// configFilePathOverride forces loading from a specific config file,
	// set from the --config flag before any Load call.
	configFilePathOverride string

	cacheMu      sync.Mutex
	cachedConfig *Config
)

// Reset clears overrides and the cached config. Call from test cleanup to
// restore defaults.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configDirOverride = ""
	configFilePathOverride = ""
	cachedConfig = nil
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configDirOverride = dir
	cachedConfig = nil
}

// SetConfigFilePathOverride forces all subsequent Load calls to read the
// given config file exclusively.
func SetConfigFilePathOverride(path string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configFilePathOverride = path
	cachedConfig = nil
}

// Load returns the process-wide configuration, loading it on first use and
// caching it afterward. Overrides set before the first call take effect;
// changing an override invalidates the cache.
func Load() (*Config, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cachedConfig != nil {
		return cachedConfig, nil
	}

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: configFilePathOverride,
		ConfigDirPath:  configDirOverride,
	})
	if err != nil {
		return nil, err
	}

	cachedConfig = cfg
	return cfg, nil
}
