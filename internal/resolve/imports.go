// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// Static import statement forms recognized by the walk. Conditional and
// reflection-based imports are invisible here; hidden imports exist to
// compensate for exactly that gap.
var (
	importRe     = regexp.MustCompile(`^\s*import\s+(.+?)(?:\s+#.*)?$`)
	fromImportRe = regexp.MustCompile(`^\s*from\s+([\w.]+|\.+[\w.]*)\s+import\s+(.+?)(?:\s+#.*)?$`)
)

// scanImports extracts the module names statically imported by the source
// file at path. pkg is the dotted package the file belongs to (the package
// itself for an __init__ module), used to resolve package-relative imports;
// it is empty for top-level modules and the entry script.
//
// The returned names are raw candidates: "from pkg import x" yields both
// "pkg" and "pkg.x" because x may be either a submodule or an attribute. The
// caller decides by attempting to locate each candidate on the search paths.
func scanImports(path, pkg string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if m := fromImportRe.FindStringSubmatch(line); m != nil {
			base := resolveRelative(m[1], pkg)
			if base == "" {
				continue
			}
			names = append(names, base)
			for _, item := range splitImportList(m[2]) {
				names = append(names, base+"."+item)
			}
			continue
		}

		if m := importRe.FindStringSubmatch(line); m != nil {
			// "import a.b, c as d": keep the real module names, drop aliases.
			for _, item := range splitImportList(m[1]) {
				if strings.HasPrefix(item, ".") {
					continue
				}
				names = append(names, item)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return names, nil
}

// splitImportList splits "a, b as c, d" into the imported names, discarding
// aliases, parentheses, and wildcard imports.
func splitImportList(list string) []string {
	list = strings.NewReplacer("(", "", ")", "", "\\", "").Replace(list)

	var out []string
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if idx := strings.Index(name, " as "); idx != -1 {
			name = strings.TrimSpace(name[:idx])
		}
		if name == "" || name == "*" || !validDottedName(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// resolveRelative turns a possibly-relative "from" target into an absolute
// dotted name using the importing file's package. One leading dot means that
// package itself, each further dot one level up. Returns "" when the
// relative reference escapes the known package root (or when there is no
// package context, as for the entry script).
func resolveRelative(target, pkg string) string {
	if !strings.HasPrefix(target, ".") {
		return target
	}
	if pkg == "" {
		return ""
	}

	dots := 0
	for dots < len(target) && target[dots] == '.' {
		dots++
	}
	rest := target[dots:]

	pkgParts := strings.Split(pkg, ".")

	// Each dot beyond the first climbs one additional level.
	for i := 1; i < dots; i++ {
		if len(pkgParts) == 0 {
			return ""
		}
		pkgParts = pkgParts[:len(pkgParts)-1]
	}

	if rest != "" {
		pkgParts = append(pkgParts, strings.Split(rest, ".")...)
	}
	if len(pkgParts) == 0 {
		return ""
	}
	return strings.Join(pkgParts, ".")
}

var dottedNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

func validDottedName(name string) bool {
	return dottedNameRe.MatchString(name)
}
