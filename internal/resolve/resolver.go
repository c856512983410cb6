// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bindle-cli/pkg/manifest"
)

var (
	// ErrEntryScriptNotFound is returned when the manifest's entry script does
	// not exist or is not readable. The build does not start.
	ErrEntryScriptNotFound = errors.New("entry script not found")
	// ErrBinaryMissing is returned when a declared binary dependency does not
	// exist at build time. The build aborts before packing.
	ErrBinaryMissing = errors.New("declared binary not found")
)

type (
	// EntryNotFoundError wraps ErrEntryScriptNotFound with the offending path.
	EntryNotFoundError struct {
		Path string
	}

	// BinaryMissingError wraps ErrBinaryMissing with the offending source path.
	BinaryMissingError struct {
		SourcePath string
	}

	// ResolvedBinary is a verified native library with its destination inside
	// the bundle (directory plus original filename).
	ResolvedBinary struct {
		SourcePath string
		DestPath   string
	}

	// ResolvedData is one expanded data file with its destination inside the
	// bundle. Directory matches are walked recursively, preserving subpaths.
	ResolvedData struct {
		SourcePath string
		DestPath   string
	}

	// Resolution is the complete output of the resolver stage: every module
	// record (including excluded ones, for reporting), the verified binaries,
	// the expanded data files, and all non-fatal diagnostics.
	Resolution struct {
		// EntryModule is the dotted name of the entry script's module.
		EntryModule string
		Modules     []ModuleRecord
		Binaries    []ResolvedBinary
		Datas       []ResolvedData
		Diagnostics []Diagnostic
	}
)

// Error implements the error interface.
func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry script not found: %s", e.Path)
}

// Unwrap returns the sentinel for errors.Is() checks.
func (e *EntryNotFoundError) Unwrap() error { return ErrEntryScriptNotFound }

// Error implements the error interface.
func (e *BinaryMissingError) Error() string {
	return fmt.Sprintf("declared binary not found: %s", e.SourcePath)
}

// Unwrap returns the sentinel for errors.Is() checks.
func (e *BinaryMissingError) Unwrap() error { return ErrBinaryMissing }

// IncludedModules returns the records that survived the exclusion filter,
// in name order. Only these reach the archive packer.
func (r *Resolution) IncludedModules() []ModuleRecord {
	out := make([]ModuleRecord, 0, len(r.Modules))
	for _, rec := range r.Modules {
		if rec.Included {
			out = append(out, rec)
		}
	}
	return out
}

// Resolve produces the closure of modules, binaries, and data files a build
// must ship. Discovery merges the static import walk with the declared
// hidden imports, then applies the exclusion list as
// the final hard filter. Binary existence failures are fatal; everything
// else surfaces as Diagnostics.
func Resolve(m *manifest.Manifest) (*Resolution, error) {
	entryPath := m.EntryScript
	if !isFile(entryPath) {
		return nil, &EntryNotFoundError{Path: entryPath}
	}

	// The entry script's directory is always the first search root.
	searchPaths := append([]string{filepath.Dir(entryPath)}, m.SearchPaths...)

	res := &Resolution{
		EntryModule: moduleNameForEntry(entryPath),
	}

	records := make(map[string]*ModuleRecord)

	// Source 1: static import walk from the entry script.
	if err := walkImports(res.EntryModule, entryPath, searchPaths, records); err != nil {
		return nil, err
	}

	// Source 2: declared hidden imports. A name already walked keeps its
	// walked origin and resolved path; the declaration never overrides it.
	for _, name := range m.HiddenImports {
		if _, seen := records[name]; seen {
			continue
		}
		path := locateModule(name, searchPaths)
		if path == "" {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeHiddenImportUnresolved,
				Message:  fmt.Sprintf("hidden import %q not found on any search path; it will be absent from the artifact", name),
				Subject:  name,
			})
			continue
		}
		records[name] = &ModuleRecord{Name: name, Origin: OriginDeclared, Path: path, Included: true}
	}

	// Final filter: exclusion wins over every discovery source.
	for name, rec := range records {
		if !matchesAny(name, m.Excludes) {
			continue
		}
		rec.Included = false
		if rec.Origin == OriginDeclared {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeHiddenImportExcluded,
				Message:  fmt.Sprintf("hidden import %q is also excluded; exclusion wins and the module is dropped", name),
				Subject:  name,
			})
			continue
		}
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityInfo,
			Code:     CodeModuleExcluded,
			Message:  fmt.Sprintf("module %q dropped by the exclusion list", name),
			Subject:  name,
		})
	}

	for _, rec := range records {
		res.Modules = append(res.Modules, *rec)
	}
	sort.Slice(res.Modules, func(i, j int) bool { return res.Modules[i].Name < res.Modules[j].Name })

	if err := resolveAssets(m, res); err != nil {
		return nil, err
	}

	return res, nil
}

// resolveAssets runs the binary and data stages against an already-built
// module closure.
func resolveAssets(m *manifest.Manifest, res *Resolution) error {
	// Binary dependencies are verified before anything is packed: a missing
	// source path aborts the build here (fail-fast ordering).
	for _, bin := range m.Binaries {
		if !isFile(bin.SourcePath) {
			return &BinaryMissingError{SourcePath: bin.SourcePath}
		}
		res.Binaries = append(res.Binaries, ResolvedBinary{
			SourcePath: bin.SourcePath,
			DestPath:   filepath.Join(bin.DestDir, filepath.Base(bin.SourcePath)),
		})
	}

	// Data resources expand at build time; an empty expansion is a warning.
	for _, data := range m.Datas {
		expanded, err := expandData(data)
		if err != nil {
			return err
		}
		if len(expanded) == 0 {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeDataGlobEmpty,
				Message:  fmt.Sprintf("data pattern %q matched no files", data.SourceGlob),
				Subject:  data.SourceGlob,
			})
			continue
		}
		res.Datas = append(res.Datas, expanded...)
	}

	return nil
}

// Rehydrate rebuilds a Resolution from a previously computed module closure,
// re-running only the binary verification and data expansion stages. The
// module-stage diagnostics recorded with the closure are replayed so a cached
// build warns identically to a cold one. Callers must have checked that the
// cached closure is still fresh; stale module records silently produce a
// stale bundle.
func Rehydrate(m *manifest.Manifest, modules []ModuleRecord, diags []Diagnostic) (*Resolution, error) {
	entryPath := m.EntryScript
	if !isFile(entryPath) {
		return nil, &EntryNotFoundError{Path: entryPath}
	}

	res := &Resolution{
		EntryModule: moduleNameForEntry(entryPath),
		Modules:     make([]ModuleRecord, len(modules)),
	}
	copy(res.Modules, modules)
	for _, d := range diags {
		if !d.IsAssetStage() {
			res.Diagnostics = append(res.Diagnostics, d)
		}
	}

	if err := resolveAssets(m, res); err != nil {
		return nil, err
	}
	return res, nil
}

// walkImports performs the breadth-first static import walk. Names that do
// not resolve on the search paths are interpreter- or site-provided and are
// outside the bundle's module scope; they are skipped silently.
func walkImports(entryName, entryPath string, searchPaths []string, records map[string]*ModuleRecord) error {
	type item struct{ name, path string }

	records[entryName] = &ModuleRecord{Name: entryName, Origin: OriginWalked, Path: entryPath, Included: true}
	queue := []item{{name: entryName, path: entryPath}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		candidates, err := scanImports(cur.path, packageContext(cur.name, cur.path))
		if err != nil {
			return fmt.Errorf("failed to scan imports of %s: %w", cur.path, err)
		}

		for _, cand := range candidates {
			for _, name := range withParentPackages(cand) {
				if _, seen := records[name]; seen {
					continue
				}
				path := locateModule(name, searchPaths)
				if path == "" {
					continue
				}
				records[name] = &ModuleRecord{Name: name, Origin: OriginWalked, Path: path, Included: true}
				queue = append(queue, item{name: name, path: path})
			}
		}
	}

	return nil
}

// packageContext returns the dotted package a module file belongs to: the
// module name itself for an __init__ file, otherwise its parent package.
// Top-level modules and the entry script have no package context.
func packageContext(name, path string) string {
	if filepath.Base(path) == "__init__.py" {
		return name
	}
	if idx := strings.LastIndex(name, "."); idx != -1 {
		return name[:idx]
	}
	return ""
}

// withParentPackages expands "a.b.c" to ["a", "a.b", "a.b.c"] so package
// __init__ modules are pulled in alongside their submodules.
func withParentPackages(name string) []string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], "."))
	}
	return out
}

// matchesAny reports whether name equals an exclusion or lives under an
// excluded package (dotted-prefix semantics: excluding "pkg" drops
// "pkg.plugin" too).
func matchesAny(name string, excludes []string) bool {
	for _, excl := range excludes {
		if name == excl || strings.HasPrefix(name, excl+".") {
			return true
		}
	}
	return false
}

// moduleNameForEntry derives the entry module's dotted name from the script
// filename (its stem).
func moduleNameForEntry(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// expandData expands one data resource declaration. A glob match that is a
// directory is walked recursively, preserving subpaths under the
// destination directory.
func expandData(data manifest.DataResource) ([]ResolvedData, error) {
	matches, err := filepath.Glob(data.SourceGlob)
	if err != nil {
		return nil, fmt.Errorf("invalid data pattern %q: %w", data.SourceGlob, err)
	}

	var out []ResolvedData
	for _, match := range matches {
		if isDir(match) {
			err := filepath.WalkDir(match, func(path string, d os.DirEntry, walkErr error) error {
				if walkErr != nil {
					return walkErr
				}
				if d.IsDir() {
					return nil
				}
				rel, relErr := filepath.Rel(filepath.Dir(match), path)
				if relErr != nil {
					return relErr
				}
				out = append(out, ResolvedData{
					SourcePath: path,
					DestPath:   filepath.Join(data.DestDir, rel),
				})
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk data directory %s: %w", match, err)
			}
			continue
		}
		out = append(out, ResolvedData{
			SourcePath: match,
			DestPath:   filepath.Join(data.DestDir, filepath.Base(match)),
		})
	}

	return out, nil
}
