// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling for build failures.
//
// Errors carry an operation, the resource involved, remediation suggestions,
// and Markdown-formatted guidance, so a failed bundle build tells the user
// what to fix rather than only what broke.
package issue
