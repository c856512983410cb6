// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize caps the size of CUE files accepted for parsing (5MB).
// Bindlefiles and config files are small; anything near this limit is not one.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	// parseOptions holds the knobs for a single CUE parse.
	parseOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures parsing behavior.
	Option func(*parseOptions)
)

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// WithMaxFileSize sets the maximum allowed file size.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) {
		o.maxFileSize = size
	}
}

// WithConcrete sets whether all values must be concrete after unification.
// Default is true. Tool config files pass false: every field there is
// optional and filled from viper defaults.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) {
		o.concrete = concrete
	}
}

// WithFilename sets the filename reported in CUE error output.
func WithFilename(name string) Option {
	return func(o *parseOptions) {
		o.filename = name
	}
}
