// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"

	"bindle-cli/internal/platform"
)

const (
	// TempDirSystem extracts onefile payloads under the OS temp directory.
	TempDirSystem TempDirStrategy = "system"
	// TempDirUserCache extracts onefile payloads under the user cache directory,
	// which survives reboots and lets repeated launches reuse the extraction.
	TempDirUserCache TempDirStrategy = "user-cache"

	// DefaultDistDir is the output directory for assembled artifacts.
	DefaultDistDir = "dist"
	// DefaultWorkDir is the build cache / intermediate analysis directory.
	DefaultWorkDir = "build"
)

var (
	// ErrMissingEntryScript is returned when a manifest has no entry script.
	ErrMissingEntryScript = errors.New("missing entry script")
	// ErrInvalidTempDirStrategy is returned when a TempDirStrategy value is not recognized.
	ErrInvalidTempDirStrategy = errors.New("invalid tempdir strategy")
	// ErrReservedOutputName is returned when the output name is a Windows reserved device name.
	ErrReservedOutputName = errors.New("reserved output name")
	// ErrInvalidSpec is the sentinel error wrapped by InvalidSpecError.
	ErrInvalidSpec = errors.New("invalid SRC:DEST spec")
)

type (
	// TempDirStrategy selects where a onefile artifact unpacks itself at launch.
	TempDirStrategy string

	// BinaryDependency declares a native dynamic library to ship with the
	// artifact. SourcePath must exist and be readable at build time; DestDir is
	// the directory inside the bundle where the library lands at runtime.
	// Several binaries may share a DestDir as long as their filenames differ.
	BinaryDependency struct {
		SourcePath string `json:"source"`
		DestDir    string `json:"dest"`
	}

	// DataResource declares opaque data files to ship with the artifact.
	// SourceGlob is expanded against the filesystem at build time; an empty
	// expansion is a warning, not an error.
	DataResource struct {
		SourceGlob string `json:"source"`
		DestDir    string `json:"dest"`
	}

	// RuntimeFlags configure the behavior of the assembled artifact.
	RuntimeFlags struct {
		// OneFile packs everything into a single self-extracting file instead
		// of an output directory.
		OneFile bool `json:"onefile"`
		// Console keeps a visible output stream attached at launch.
		Console bool `json:"console"`
		// Debug keeps symbol information and verbose loader output.
		Debug bool `json:"debug"`
		// Strip removes symbol tables from bundled binaries where possible.
		Strip bool `json:"strip"`
		// Compress deflates module payloads inside the archive.
		Compress bool `json:"compress"`
		// TempDir selects the onefile extraction location.
		TempDir TempDirStrategy `json:"tempdir"`
	}

	// Manifest is the root build configuration: one immutable value passed
	// through the whole pipeline. It is owned by the build driver for the
	// duration of a single build and never mutated after validation.
	Manifest struct {
		// EntryScript is the root of the import closure.
		EntryScript string `json:"entry"`
		// SearchPaths are directories searched for importable modules, in order.
		// The entry script's own directory is always searched first.
		SearchPaths []string `json:"paths"`
		// Binaries are native libraries to bundle.
		Binaries []BinaryDependency `json:"binaries"`
		// Datas are data resources to bundle.
		Datas []DataResource `json:"datas"`
		// HiddenImports force-includes modules the static walk cannot discover.
		HiddenImports []string `json:"hidden_imports"`
		// Excludes force-removes modules regardless of how they were discovered.
		Excludes []string `json:"excludes"`
		// OutputName names the final artifact. Defaults to the entry script's
		// base name without extension.
		OutputName string `json:"name"`
		// Runtime holds artifact behavior flags.
		Runtime RuntimeFlags `json:"runtime"`
	}

	// InvalidTempDirStrategyError is returned when a TempDirStrategy value is
	// not recognized. It wraps ErrInvalidTempDirStrategy for errors.Is().
	InvalidTempDirStrategyError struct {
		Value TempDirStrategy
	}

	// InvalidSpecError is returned when a SRC:DEST flag value cannot be split.
	// It wraps ErrInvalidSpec for errors.Is() compatibility.
	InvalidSpecError struct {
		Spec string
	}

	// ValidationError is returned when a manifest fails validation before the
	// pipeline starts. It corresponds to the "build does not start" error class.
	ValidationError struct {
		Field string
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidTempDirStrategyError) Error() string {
	return fmt.Sprintf("invalid tempdir strategy %q (valid: %q, %q)",
		e.Value, TempDirSystem, TempDirUserCache)
}

// Unwrap returns the sentinel for errors.Is() checks.
func (e *InvalidTempDirStrategyError) Unwrap() error { return ErrInvalidTempDirStrategy }

// Error implements the error interface.
func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid spec %q: expected SRC:DEST", e.Spec)
}

// Unwrap returns the sentinel for errors.Is() checks.
func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest field %s: %v", e.Field, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error { return e.Cause }

// IsValid reports whether the strategy is one of the known values.
// The zero value is not valid; use DefaultRuntimeFlags for defaults.
func (s TempDirStrategy) IsValid() bool {
	return s == TempDirSystem || s == TempDirUserCache
}

// DefaultRuntimeFlags returns the runtime flags applied when neither the
// bindlefile nor the CLI set them.
func DefaultRuntimeFlags() RuntimeFlags {
	return RuntimeFlags{
		OneFile:  false,
		Console:  true,
		Debug:    false,
		Strip:    false,
		Compress: true,
		TempDir:  TempDirSystem,
	}
}

// Normalize fills derived defaults: the output name from the entry script's
// base name, and the tempdir strategy when unset. Call before Validate.
func (m *Manifest) Normalize() {
	if m.OutputName == "" {
		base := m.EntryScript
		if idx := strings.LastIndexAny(base, `/\`); idx != -1 {
			base = base[idx+1:]
		}
		if idx := strings.LastIndex(base, "."); idx > 0 {
			base = base[:idx]
		}
		m.OutputName = base
	}
	if m.Runtime.TempDir == "" {
		m.Runtime.TempDir = TempDirSystem
	}
}

// Validate checks the manifest invariants that must hold before the pipeline
// starts. Filesystem checks (entry existence, binary existence, glob
// expansion) belong to the resolver; this only validates the manifest value
// itself.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.EntryScript) == "" {
		return &ValidationError{Field: "entry", Cause: ErrMissingEntryScript}
	}
	if !m.Runtime.TempDir.IsValid() {
		return &ValidationError{
			Field: "runtime.tempdir",
			Cause: &InvalidTempDirStrategyError{Value: m.Runtime.TempDir},
		}
	}
	if platform.IsWindowsReservedName(m.OutputName) {
		return &ValidationError{
			Field: "name",
			Cause: fmt.Errorf("%w: %q", ErrReservedOutputName, m.OutputName),
		}
	}
	return nil
}

// ParseAddSpec splits a --add-data / --add-binary flag value into its source
// and destination halves. Both ':' and ';' are accepted as separators; when a
// ';' is present it wins, so Windows-style specs with drive letters still
// split correctly. The split happens at the last separator occurrence.
func ParseAddSpec(spec string) (src, dest string, err error) {
	sep := ";"
	if !strings.Contains(spec, sep) {
		sep = ":"
	}
	idx := strings.LastIndex(spec, sep)
	if idx <= 0 || idx == len(spec)-1 {
		return "", "", &InvalidSpecError{Spec: spec}
	}
	src = strings.TrimSpace(spec[:idx])
	dest = strings.TrimSpace(spec[idx+1:])
	if src == "" || dest == "" {
		return "", "", &InvalidSpecError{Spec: spec}
	}
	return src, dest, nil
}
