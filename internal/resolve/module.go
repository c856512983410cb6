// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// OriginWalked marks a module discovered by the static import walk.
	OriginWalked Origin = "walked"
	// OriginDeclared marks a module force-included through hidden imports.
	OriginDeclared Origin = "declared"
)

type (
	// Origin records which discovery source produced a module record.
	Origin string

	// ModuleRecord is one module of the resolved closure. Records whose
	// Included flag is false were removed by the exclusion list; they are kept
	// for reporting but never reach the archive packer.
	ModuleRecord struct {
		// Name is the dotted logical identifier (e.g., "speech_handlers.base").
		Name string
		// Origin is the discovery source. When the same name is discovered by
		// both sources the walked origin wins and its resolved path is kept.
		Origin Origin
		// Path is the resolved source file, empty for records that could not
		// be located on the search paths.
		Path string
		// Included is false when the exclusion list removed this record.
		Included bool
	}
)

// String returns a human-readable origin name.
func (o Origin) String() string {
	switch o {
	case OriginWalked:
		return "static import walk"
	case OriginDeclared:
		return "declared hidden import"
	default:
		return "unknown"
	}
}

// locateModule resolves a dotted module name against the search paths.
// A name resolves to either <parts>.py or a package directory containing
// __init__.py. Returns the source file path, or "" when not found.
func locateModule(name string, searchPaths []string) string {
	parts := strings.Split(name, ".")
	rel := filepath.Join(parts...)

	for _, dir := range searchPaths {
		if p := filepath.Join(dir, rel+".py"); isFile(p) {
			return p
		}
		if p := filepath.Join(dir, rel, "__init__.py"); isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// isDir reports whether path exists and is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
