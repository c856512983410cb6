// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"

	"bindle-cli/internal/config"
	"bindle-cli/internal/issue"
	"bindle-cli/internal/resolve"
	"bindle-cli/pkg/manifest"
)

func resetBuildFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		buildFile, buildName, buildTempDir = "", "", ""
		buildOneFile, buildWindowed, buildDebug, buildStrip, buildNoCompress, buildClean = false, false, false, false, false, false
		buildDistPath, buildWorkPath = "", ""
		buildPaths, buildHiddenImports, buildExcludes, buildAddData, buildAddBinary = nil, nil, nil, nil, nil
	})
}

func TestRuntimeDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Build.OneFile = true
	cfg.Build.Console = false
	cfg.Build.TempDir = config.TempDirUserCache

	flags := runtimeDefaults(cfg)
	if !flags.OneFile {
		t.Error("OneFile should follow the config default")
	}
	if flags.Console {
		t.Error("Console should follow the config default")
	}
	if flags.TempDir != manifest.TempDirUserCache {
		t.Errorf("TempDir = %q, want user-cache", flags.TempDir)
	}
}

func TestIssueForDiagnostic(t *testing.T) {
	tests := []struct {
		code   string
		wantId issue.Id
		wantOk bool
	}{
		{code: resolve.CodeDataGlobEmpty, wantId: issue.DataGlobEmptyId, wantOk: true},
		{code: resolve.CodeHiddenImportUnresolved, wantId: issue.HiddenImportUnresolvedId, wantOk: true},
		{code: resolve.CodeHiddenImportExcluded, wantOk: false},
		{code: "unknown_code", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			id, ok := issueForDiagnostic(tt.code)
			if ok != tt.wantOk || (ok && id != tt.wantId) {
				t.Errorf("issueForDiagnostic(%q) = (%v, %v), want (%v, %v)", tt.code, id, ok, tt.wantId, tt.wantOk)
			}
			if ok && issue.Get(id) == nil {
				t.Errorf("issue %v has no catalog card", id)
			}
		})
	}
}

func TestRenderedIssueCardsExist(t *testing.T) {
	// Every catalog id the failure paths render must resolve to a card.
	for _, id := range []issue.Id{
		issue.BindlefileNotFoundId,
		issue.BindlefileParseErrorId,
		issue.EntryScriptNotFoundId,
		issue.BinaryNotFoundId,
		issue.ArchMismatchId,
		issue.AssemblyFailedId,
		issue.ConfigLoadFailedId,
		issue.ArchiveCorruptId,
		issue.OutputNameReservedId,
	} {
		if issue.Get(id) == nil {
			t.Errorf("no catalog card registered for id %v", id)
		}
	}
}

func TestApplyBuildFlags(t *testing.T) {
	t.Run("add specs extend the manifest", func(t *testing.T) {
		resetBuildFlags(t)
		buildAddData = []string{"assets/*:assets"}
		buildAddBinary = []string{"libx.so:lib"}
		buildHiddenImports = []string{"plugins.extra"}
		buildExcludes = []string{"tests"}

		m := &manifest.Manifest{EntryScript: "app.py", Runtime: manifest.DefaultRuntimeFlags()}
		if err := applyBuildFlags(buildCmd, m); err != nil {
			t.Fatalf("applyBuildFlags failed: %v", err)
		}

		if len(m.Datas) != 1 || m.Datas[0].SourceGlob != "assets/*" || m.Datas[0].DestDir != "assets" {
			t.Errorf("Datas = %+v", m.Datas)
		}
		if len(m.Binaries) != 1 || m.Binaries[0].SourcePath != "libx.so" {
			t.Errorf("Binaries = %+v", m.Binaries)
		}
		if len(m.HiddenImports) != 1 || len(m.Excludes) != 1 {
			t.Error("hidden imports and excludes should be appended")
		}
	})

	t.Run("malformed add-data spec fails", func(t *testing.T) {
		resetBuildFlags(t)
		buildAddData = []string{"no-separator"}

		m := &manifest.Manifest{EntryScript: "app.py", Runtime: manifest.DefaultRuntimeFlags()}
		err := applyBuildFlags(buildCmd, m)
		if !errors.Is(err, manifest.ErrInvalidSpec) {
			t.Fatalf("expected ErrInvalidSpec, got %v", err)
		}
	})

	t.Run("name flag overrides the manifest", func(t *testing.T) {
		resetBuildFlags(t)
		buildName = "custom"

		m := &manifest.Manifest{EntryScript: "app.py", OutputName: "app", Runtime: manifest.DefaultRuntimeFlags()}
		if err := applyBuildFlags(buildCmd, m); err != nil {
			t.Fatalf("applyBuildFlags failed: %v", err)
		}
		if m.OutputName != "custom" {
			t.Errorf("OutputName = %q, want custom", m.OutputName)
		}
	})
}
