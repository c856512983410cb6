// SPDX-License-Identifier: MPL-2.0

// Package manifest defines the build manifest: the immutable root
// configuration of a bindle build. A manifest comes either from CLI flags or
// from a bindlefile.cue validated against the embedded CUE schema; once
// normalized and validated it flows read-only through the resolver, the
// archive packer, and the assembler.
package manifest
