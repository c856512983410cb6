// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	p := NewProvider()

	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.DistPath != defaults.DistPath {
		t.Errorf("DistPath = %q, want %q", cfg.DistPath, defaults.DistPath)
	}
	if cfg.Build.TempDir != TempDirSystem {
		t.Errorf("Build.TempDir = %q, want system", cfg.Build.TempDir)
	}
	if !cfg.Build.Console || !cfg.Build.Compress {
		t.Error("console and compress should default to true")
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("UI.ColorScheme = %q, want auto", cfg.UI.ColorScheme)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
distpath: "out"
build: {
	onefile: true
	tempdir: "user-cache"
}
ui: verbose: true
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DistPath != "out" {
		t.Errorf("DistPath = %q, want out", cfg.DistPath)
	}
	if !cfg.Build.OneFile {
		t.Error("build.onefile should be true")
	}
	if cfg.Build.TempDir != TempDirUserCache {
		t.Errorf("Build.TempDir = %q, want user-cache", cfg.Build.TempDir)
	}
	// Unset fields keep their defaults.
	if cfg.WorkPath != "build" {
		t.Errorf("WorkPath = %q, want build", cfg.WorkPath)
	}
	if !cfg.UI.Verbose {
		t.Error("ui.verbose should be true")
	}
}

func TestLoadExplicitFilePath(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		path := writeConfigFile(t, t.TempDir(), `workpath: "tmpwork"`)

		cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.WorkPath != "tmpwork" {
			t.Errorf("WorkPath = %q, want tmpwork", cfg.WorkPath)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := NewProvider().Load(context.Background(), LoadOptions{
			ConfigFilePath: filepath.Join(t.TempDir(), "absent.cue"),
		})
		if err == nil {
			t.Fatal("an explicitly requested config file must exist")
		}
	})
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("schema violation", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, `build: tempdir: "ramdisk"`)

		if _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir}); err == nil {
			t.Fatal("expected a schema validation error")
		}
	})

	t.Run("malformed CUE", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, `distpath: "unterminated`)

		if _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir}); err == nil {
			t.Fatal("expected a parse error")
		}
	})
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := DefaultConfig()
	original.DistPath = "artifacts"
	original.Build.OneFile = true
	original.UI.ColorScheme = ColorSchemeDark

	writeConfigFile(t, dir, GenerateCUE(original))

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DistPath != original.DistPath ||
		cfg.Build.OneFile != original.Build.OneFile ||
		cfg.UI.ColorScheme != original.UI.ColorScheme {
		t.Error("generated CUE did not round-trip through Load")
	}
}
