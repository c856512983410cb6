// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"bindle-cli/pkg/manifest"

	"github.com/spf13/cobra"
)

var (
	initForce    bool
	initEntry    string
	initTemplate string

	// initCmd creates a new bindlefile
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a new bindlefile in the current directory",
		Long: `Create a new bindlefile in the current directory.

This command generates a starter bindlefile describing the entry script,
bundled resources, and runtime flags, so you can adjust it instead of
writing the manifest from scratch.`,
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing bindlefile")
	initCmd.Flags().StringVarP(&initEntry, "entry", "e", "main.py", "entry script the manifest starts from")
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "default", "template to use (default, minimal, full)")
}

func runInit(cmd *cobra.Command, args []string) error {
	filename := manifest.DefaultFileName
	if len(args) > 0 {
		filename = args[0]
	}

	// Check if file exists
	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	// Generate content based on template
	content := generateBindlefile(initTemplate, initEntry)

	// Write file
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit the bindlefile to match your project layout")
	fmt.Println("  2. Run 'bindle build' to produce an artifact")
	fmt.Println("  3. Run 'bindle inspect dist/<name>' to review what was packed")

	return nil
}

func generateBindlefile(template, entry string) string {
	var m *manifest.Manifest

	switch template {
	case "minimal":
		m = &manifest.Manifest{
			EntryScript: entry,
			Runtime:     manifest.DefaultRuntimeFlags(),
		}

	case "full":
		m = &manifest.Manifest{
			EntryScript: entry,
			SearchPaths: []string{"src"},
			Binaries: []manifest.BinaryDependency{
				{SourcePath: "native/libexample.so", DestDir: "lib"},
			},
			Datas: []manifest.DataResource{
				{SourceGlob: "assets/*", DestDir: "assets"},
				{SourceGlob: "models", DestDir: "data"},
			},
			HiddenImports: []string{"plugins.default"},
			Excludes:      []string{"tests"},
			Runtime:       manifest.DefaultRuntimeFlags(),
		}

	default: // "default"
		m = &manifest.Manifest{
			EntryScript: entry,
			Datas: []manifest.DataResource{
				{SourceGlob: "assets/*", DestDir: "assets"},
			},
			Runtime: manifest.DefaultRuntimeFlags(),
		}
	}

	m.Normalize()
	return manifest.GenerateCUE(m)
}
