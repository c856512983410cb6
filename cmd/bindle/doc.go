// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bindle.
//
// This package implements the Cobra command hierarchy for the bindle CLI:
// the root command, the build driver that runs the resolve/pack/assemble
// pipeline, manifest scaffolding, and artifact inspection.
package cmd
