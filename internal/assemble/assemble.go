// SPDX-License-Identifier: MPL-2.0

// Package assemble turns a resolution plus a packed module archive into the
// final launchable artifact: either a one-directory bundle with a launcher
// script, or a single self-extracting executable.
//
// All output is written to a temporary location first and moved into place
// with a rename, so a failed build never leaves a partial artifact at the
// destination path.
package assemble

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bindle-cli/internal/platform"
	"bindle-cli/internal/resolve"
	"bindle-cli/pkg/archive"
	"bindle-cli/pkg/manifest"
)

// ArchiveFileName is the module archive's filename inside a bundle.
const ArchiveFileName = "modules.bndl"

var (
	// ErrAssemblyFailed is the sentinel wrapped by AssemblyError.
	ErrAssemblyFailed = errors.New("artifact assembly failed")
	// ErrArchMismatch is returned when a bundled ELF binary targets a
	// different architecture than the build host.
	ErrArchMismatch = errors.New("binary architecture mismatch")
)

type (
	// AssemblyError wraps a failure in any assembly stage with the stage name.
	AssemblyError struct {
		Stage string
		Cause error
	}

	// ArchMismatchError is returned when a native binary cannot run on the
	// build host architecture. It wraps ErrArchMismatch for errors.Is().
	ArchMismatchError struct {
		BinaryPath string
		BinaryArch string
		HostArch   string
	}

	// Input is everything the assembler needs to produce an artifact.
	Input struct {
		// Manifest carries the output name and runtime flags.
		Manifest *manifest.Manifest
		// Resolution lists the modules, binaries, and data files to ship.
		Resolution *resolve.Resolution
		// Archive is the packed module archive.
		Archive *archive.Archive
		// DistPath is the directory that receives the finished artifact.
		DistPath string
		// WorkDir is the scratch directory for staging intermediates.
		WorkDir string
	}

	// Artifact describes a finished build output.
	Artifact struct {
		// Path is the artifact's final location: the bundle directory for a
		// one-directory build, the executable file for a one-file build.
		Path string
		// OneFile reports which layout was produced.
		OneFile bool
	}
)

// Error implements the error interface.
func (e *AssemblyError) Error() string {
	return fmt.Sprintf("artifact assembly failed at %s: %v", e.Stage, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *AssemblyError) Unwrap() []error { return []error{ErrAssemblyFailed, e.Cause} }

// Error implements the error interface.
func (e *ArchMismatchError) Error() string {
	return fmt.Sprintf("binary %s targets %s but the build host is %s",
		e.BinaryPath, e.BinaryArch, e.HostArch)
}

// Unwrap returns the sentinel for errors.Is() checks.
func (e *ArchMismatchError) Unwrap() error { return ErrArchMismatch }

// Assemble stages the bundle tree, verifies native binaries against the host
// architecture, and produces the artifact selected by the manifest's runtime
// flags. The destination is replaced atomically on success and untouched on
// failure.
func Assemble(in Input) (*Artifact, error) {
	if err := verifyBinaries(in.Resolution.Binaries); err != nil {
		return nil, err
	}

	staging := filepath.Join(in.WorkDir, "stage", in.Manifest.OutputName)
	if err := os.RemoveAll(staging); err != nil {
		return nil, &AssemblyError{Stage: "staging", Cause: err}
	}
	if err := stageBundle(staging, in); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}

	if err := os.MkdirAll(in.DistPath, 0o755); err != nil {
		return nil, &AssemblyError{Stage: "output", Cause: err}
	}

	if in.Manifest.Runtime.OneFile {
		return assembleOneFile(staging, in)
	}
	return assembleOneDir(staging, in)
}

// assembleOneDir moves the staged tree into the dist directory, replacing any
// previous bundle of the same name.
func assembleOneDir(staging string, in Input) (*Artifact, error) {
	dest := filepath.Join(in.DistPath, in.Manifest.OutputName)

	if err := os.RemoveAll(dest); err != nil {
		return nil, &AssemblyError{Stage: "output", Cause: err}
	}
	if err := os.Rename(staging, dest); err != nil {
		// Cross-device rename fails; fall back to a copy into place.
		if copyErr := copyTree(staging, dest); copyErr != nil {
			os.RemoveAll(dest)
			return nil, &AssemblyError{Stage: "output", Cause: copyErr}
		}
		os.RemoveAll(staging)
	}

	return &Artifact{Path: dest, OneFile: false}, nil
}

// verifyBinaries rejects ELF binaries whose machine does not match the build
// host. Non-ELF payloads cannot be checked and pass through.
func verifyBinaries(binaries []resolve.ResolvedBinary) error {
	host := platform.HostArch()

	for _, bin := range binaries {
		header := make([]byte, 64)
		f, err := os.Open(bin.SourcePath)
		if err != nil {
			return &AssemblyError{Stage: "binary verification", Cause: err}
		}
		n, _ := io.ReadFull(f, header)
		f.Close()

		if !platform.IsELF(header[:n]) {
			continue
		}

		ef, err := elf.Open(bin.SourcePath)
		if err != nil {
			return &AssemblyError{Stage: "binary verification",
				Cause: fmt.Errorf("failed to parse ELF header of %s: %w", bin.SourcePath, err)}
		}
		machine := ef.Machine
		ef.Close()

		if arch := platform.ELFArch(machine); arch != host {
			return &ArchMismatchError{
				BinaryPath: bin.SourcePath,
				BinaryArch: archLabel(arch),
				HostArch:   host,
			}
		}
	}

	return nil
}

func archLabel(arch string) string {
	if arch == "" {
		return "an unknown architecture"
	}
	return arch
}

// copyFile copies a regular file, preserving its permission bits.
func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyTree copies a directory recursively.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}
