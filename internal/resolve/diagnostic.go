// SPDX-License-Identifier: MPL-2.0

package resolve

const (
	// SeverityWarning indicates a recoverable resolution warning.
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates an expected outcome worth reporting, such as a
	// module dropped by an explicit exclusion.
	SeverityInfo Severity = "info"
)

// Diagnostic codes emitted by the resolver.
const (
	// CodeDataGlobEmpty: a data resource glob matched no files.
	CodeDataGlobEmpty = "data_glob_empty"
	// CodeHiddenImportUnresolved: a declared hidden import was not found on
	// any search path; it will be absent from the artifact.
	CodeHiddenImportUnresolved = "hidden_import_unresolved"
	// CodeHiddenImportExcluded: a declared hidden import was removed again by
	// the exclusion list.
	CodeHiddenImportExcluded = "hidden_import_excluded"
	// CodeModuleExcluded: a walked module was removed by the exclusion list.
	CodeModuleExcluded = "module_excluded"
)

type (
	// Severity represents resolution diagnostic severity.
	Severity string

	// Diagnostic represents a structured resolution diagnostic that is
	// returned to callers (rather than written to stderr) for consistent
	// rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "data_glob_empty").
		Code string
		// Message is the human-readable description.
		Message string
		// Subject is the module name, glob, or path the diagnostic refers to.
		Subject string
	}
)

// IsAssetStage reports whether the diagnostic comes from the binary/data
// stages, which re-run on every build. Module-stage diagnostics are only
// produced by the full import walk and must be replayed from the cache.
func (d Diagnostic) IsAssetStage() bool {
	return d.Code == CodeDataGlobEmpty
}
