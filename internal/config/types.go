// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// TempDirSystem extracts one-file payloads into the system temp directory.
	// Defined locally to avoid coupling config to pkg/manifest;
	// the build driver casts to manifest.TempDirStrategy at the boundary.
	TempDirSystem TempDirStrategy = "system"
	// TempDirUserCache extracts one-file payloads into the user cache directory.
	TempDirUserCache TempDirStrategy = "user-cache"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidTempDirStrategy is returned when a TempDirStrategy value is not recognized.
	ErrInvalidTempDirStrategy = errors.New("invalid temp dir strategy")
	// ErrInvalidOutputDirPath is returned when an OutputDirPath value is whitespace-only.
	ErrInvalidOutputDirPath = errors.New("invalid output dir path")
	// ErrInvalidBuildConfig is the sentinel error wrapped by InvalidBuildConfigError.
	ErrInvalidBuildConfig = errors.New("invalid build config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// TempDirStrategy specifies where one-file artifacts extract at launch.
	TempDirStrategy string

	// InvalidTempDirStrategyError is returned when a TempDirStrategy value is not
	// recognized. It wraps ErrInvalidTempDirStrategy for errors.Is() compatibility.
	InvalidTempDirStrategyError struct {
		Value TempDirStrategy
	}

	// OutputDirPath represents a filesystem path used for build output.
	// The zero value ("") is valid and means "use the built-in default".
	// Non-zero values must not be whitespace-only.
	OutputDirPath string

	// InvalidOutputDirPathError is returned when an OutputDirPath value is
	// non-empty but whitespace-only.
	InvalidOutputDirPathError struct {
		Value OutputDirPath
	}

	// InvalidBuildConfigError is returned when a BuildConfig has invalid fields.
	// It wraps ErrInvalidBuildConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidBuildConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DistPath is the default directory for finished artifacts.
		DistPath OutputDirPath `json:"distpath" mapstructure:"distpath"`
		// WorkPath is the default directory for build intermediates.
		WorkPath OutputDirPath `json:"workpath" mapstructure:"workpath"`
		// Build sets defaults for per-build runtime flags.
		Build BuildConfig `json:"build" mapstructure:"build"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// BuildConfig sets the default runtime flags applied when a bindlefile or
	// command line does not override them.
	BuildConfig struct {
		// OneFile produces a single self-extracting executable by default.
		OneFile bool `json:"onefile" mapstructure:"onefile"`
		// Console keeps the artifact attached to a console by default.
		Console bool `json:"console" mapstructure:"console"`
		// Compress enables payload compression in the module archive.
		Compress bool `json:"compress" mapstructure:"compress"`
		// Strip removes symbol tables from copied native binaries.
		Strip bool `json:"strip" mapstructure:"strip"`
		// TempDir selects where one-file artifacts extract at launch.
		TempDir TempDirStrategy `json:"tempdir" mapstructure:"tempdir"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the TempDirStrategy.
func (s TempDirStrategy) String() string { return string(s) }

// IsValid returns whether the TempDirStrategy is one of the defined strategies,
// and a list of validation errors if it is not.
func (s TempDirStrategy) IsValid() (bool, []error) {
	switch s {
	case TempDirSystem, TempDirUserCache:
		return true, nil
	default:
		return false, []error{&InvalidTempDirStrategyError{Value: s}}
	}
}

// Error implements the error interface for InvalidTempDirStrategyError.
func (e *InvalidTempDirStrategyError) Error() string {
	return fmt.Sprintf("invalid temp dir strategy %q (valid: system, user-cache)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidTempDirStrategyError) Unwrap() error { return ErrInvalidTempDirStrategy }

// String returns the string representation of the OutputDirPath.
func (p OutputDirPath) String() string { return string(p) }

// IsValid returns whether the OutputDirPath is valid.
// The zero value ("") is valid (means "use the built-in default").
// Non-zero values must not be whitespace-only.
func (p OutputDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidOutputDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidOutputDirPathError.
func (e *InvalidOutputDirPathError) Error() string {
	return fmt.Sprintf("invalid output dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidOutputDirPathError) Unwrap() error { return ErrInvalidOutputDirPath }

// IsValid returns whether the BuildConfig has valid fields.
// It delegates to TempDir.IsValid(); bool fields need no validation.
func (c BuildConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.TempDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidBuildConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidBuildConfigError.
func (e *InvalidBuildConfigError) Error() string {
	return fmt.Sprintf("invalid build config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidBuildConfig for errors.Is() compatibility.
func (e *InvalidBuildConfigError) Unwrap() error { return ErrInvalidBuildConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to DistPath.IsValid(), WorkPath.IsValid(), Build.IsValid(),
// and UI.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.DistPath.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.WorkPath.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Build.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DistPath: "dist",
		WorkPath: "build",
		Build: BuildConfig{
			OneFile:  false,
			Console:  true,
			Compress: true,
			Strip:    false,
			TempDir:  TempDirSystem,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
