// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions names the explicit inputs to a configuration load.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config.cue when set.
		ConfigFilePath string
		// ConfigDirPath overrides the per-OS config directory lookup when set.
		ConfigDirPath string
	}

	// Provider loads tool configuration from explicit options, without the
	// process-wide cache that Load maintains.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	cueFileProvider struct{}
)

// NewProvider returns a Provider backed by the CUE config file lookup.
func NewProvider() Provider {
	return &cueFileProvider{}
}

// Load reads and validates configuration from the requested source.
func (p *cueFileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
