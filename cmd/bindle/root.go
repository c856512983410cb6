// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bindle.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bindle-cli/internal/config"
	"bindle-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "bindle",
		Short: "Bundle interpreted applications into self-contained executables",
		Long: TitleStyle.Render("bindle") + SubtitleStyle.Render(" - Bundle interpreted applications into self-contained executables") + `

bindle analyzes an application's entry script, resolves the full closure
of modules, native libraries, and data files it needs, and assembles
everything into a launchable artifact: a one-directory bundle or a
single self-extracting executable.

Builds are described either entirely on the command line or in a
'bindlefile.cue' manifest using CUE format.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'bindle init' to create a bindlefile for your project
  2. Adjust the entry script, data files, and hidden imports
  3. Build with: bindle build

` + SubtitleStyle.Render("Examples:") + `
  bindle build app.py            Bundle app.py into dist/app/
  bindle build app.py --onefile  Produce a single executable dist/app
  bindle build                   Build from ./bindlefile.cue
  bindle inspect dist/app        List the modules packed into an artifact
  bindle init                    Create a new bindlefile`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/bindle/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(inspectCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		if verbose {
			renderIssueCard(issue.ConfigLoadFailedId)
		}
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// renderIssueCard prints a rendered issue catalog card to stderr. Render
// failures are ignored; the plain error text still reaches the user.
func renderIssueCard(id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(issueStyle())
	if err != nil {
		return
	}
	fmt.Fprint(os.Stderr, rendered)
}

// issueStyle maps the configured color scheme onto a glamour style name.
func issueStyle() string {
	if cfg, err := config.Load(); err == nil && cfg != nil {
		return string(cfg.UI.ColorScheme)
	}
	return string(config.ColorSchemeDark)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
