// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/syntax"
)

//go:embed launcher.sh.tmpl
var launcherTemplate string

// launcherData feeds the launcher script template.
type launcherData struct {
	Name        string
	EntryPath   string
	Interpreter string
	LibDirs     []string
	Console     bool
	Debug       bool
}

// stageBundle materializes the complete one-directory layout under dir:
// the module source tree under app/, the module archive, native binaries,
// data files, and the rendered launcher script named after the artifact.
func stageBundle(dir string, in Input) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &AssemblyError{Stage: "staging", Cause: err}
	}

	for _, rec := range in.Resolution.IncludedModules() {
		dest := filepath.Join(dir, "app", modulePath(rec.Name, rec.Path))
		if err := copyFile(rec.Path, dest); err != nil {
			return &AssemblyError{Stage: "module staging", Cause: err}
		}
	}

	archivePath := filepath.Join(dir, ArchiveFileName)
	if err := os.WriteFile(archivePath, in.Archive.Bytes(), 0o644); err != nil {
		return &AssemblyError{Stage: "archive staging", Cause: err}
	}

	for _, bin := range in.Resolution.Binaries {
		dest := filepath.Join(dir, bin.DestPath)
		if err := copyFile(bin.SourcePath, dest); err != nil {
			return &AssemblyError{Stage: "binary staging", Cause: err}
		}
		if in.Manifest.Runtime.Strip {
			stripBinary(dest)
		}
	}

	for _, data := range in.Resolution.Datas {
		dest := filepath.Join(dir, data.DestPath)
		if err := copyFile(data.SourcePath, dest); err != nil {
			return &AssemblyError{Stage: "data staging", Cause: err}
		}
	}

	if err := writeLauncher(dir, in); err != nil {
		return &AssemblyError{Stage: "launcher", Cause: err}
	}

	return nil
}

// writeLauncher renders the launcher script at the bundle root.
func writeLauncher(dir string, in Input) error {
	tmpl, err := template.New("launcher").Parse(launcherTemplate)
	if err != nil {
		return fmt.Errorf("internal error: failed to parse launcher template: %w", err)
	}

	entry, ok := entryModulePath(in)
	if !ok {
		return fmt.Errorf("entry module %q missing from resolution", in.Resolution.EntryModule)
	}

	data := launcherData{
		Name:        in.Manifest.OutputName,
		EntryPath:   filepath.ToSlash(filepath.Join("app", entry)),
		Interpreter: "python3",
		LibDirs:     binaryDirs(in),
		Console:     in.Manifest.Runtime.Console,
		Debug:       in.Manifest.Runtime.Debug,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return fmt.Errorf("failed to render launcher script: %w", err)
	}
	if err := validateScript("launcher", sb.String()); err != nil {
		return err
	}

	path := filepath.Join(dir, in.Manifest.OutputName)
	return os.WriteFile(path, []byte(sb.String()), 0o755)
}

// validateScript parses a rendered script as POSIX sh, turning template
// mistakes into build failures instead of shipped broken artifacts.
func validateScript(name, script string) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(strings.NewReader(script), name); err != nil {
		return fmt.Errorf("rendered %s script is not valid sh: %w", name, err)
	}
	return nil
}

// entryModulePath finds the entry module's relative path inside app/.
func entryModulePath(in Input) (string, bool) {
	for _, rec := range in.Resolution.IncludedModules() {
		if rec.Name == in.Resolution.EntryModule {
			return modulePath(rec.Name, rec.Path), true
		}
	}
	return "", false
}

// binaryDirs returns the distinct destination directories of all native
// binaries, sorted, for the launcher's library path.
func binaryDirs(in Input) []string {
	seen := make(map[string]bool)
	for _, bin := range in.Resolution.Binaries {
		d := filepath.ToSlash(filepath.Dir(bin.DestPath))
		if d == "." || seen[d] {
			continue
		}
		seen[d] = true
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// modulePath maps a dotted module name to its relative path in the staged
// source tree. Package modules keep their __init__ filename.
func modulePath(name, sourcePath string) string {
	parts := strings.Split(name, ".")
	if filepath.Base(sourcePath) == "__init__.py" {
		return filepath.Join(append(parts, "__init__.py")...)
	}
	parts[len(parts)-1] += ".py"
	return filepath.Join(parts...)
}

// stripBinary removes symbol tables from a staged binary when the system
// strip tool is available. Failure is not fatal: the bundle still works,
// just larger.
func stripBinary(path string) {
	strip, err := exec.LookPath("strip")
	if err != nil {
		return
	}
	_ = exec.Command(strip, path).Run()
}
