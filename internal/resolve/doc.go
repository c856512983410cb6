// SPDX-License-Identifier: MPL-2.0

// Package resolve discovers everything a build needs to ship: the transitive
// closure of statically-importable modules reachable from the entry script,
// the declared hidden imports the static walk cannot see, the native binary
// dependencies, and the expanded data resources.
//
// Discovery runs as two independent sources (static walk, declarations)
// merged into one set; the exclusion list is applied as the final filter
// stage so discovery order never decides precedence. Non-fatal problems are
// returned as structured Diagnostics rather than written to stderr, leaving
// rendering policy to the CLI layer.
package resolve
