// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"testing"
)

func TestParseAddSpec(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantSrc  string
		wantDest string
		wantErr  bool
	}{
		{name: "colon separator", spec: "models/vosk:models", wantSrc: "models/vosk", wantDest: "models"},
		{name: "semicolon separator", spec: "models/vosk;models", wantSrc: "models/vosk", wantDest: "models"},
		{name: "semicolon wins over drive colon", spec: `C:\libs\vosk.dll;lib`, wantSrc: `C:\libs\vosk.dll`, wantDest: "lib"},
		{name: "splits at last colon", spec: "a:b:c", wantSrc: "a:b", wantDest: "c"},
		{name: "missing separator", spec: "justapath", wantErr: true},
		{name: "empty dest", spec: "src:", wantErr: true},
		{name: "empty src", spec: ":dest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dest, err := ParseAddSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.spec)
				}
				if !errors.Is(err, ErrInvalidSpec) {
					t.Errorf("error should wrap ErrInvalidSpec, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src != tt.wantSrc || dest != tt.wantDest {
				t.Errorf("got (%q, %q), want (%q, %q)", src, dest, tt.wantSrc, tt.wantDest)
			}
		})
	}
}

func TestManifest_Normalize(t *testing.T) {
	t.Run("output name derived from entry", func(t *testing.T) {
		m := &Manifest{EntryScript: "app/main.py"}
		m.Normalize()
		if m.OutputName != "main" {
			t.Errorf("OutputName = %q, want %q", m.OutputName, "main")
		}
	})

	t.Run("explicit name preserved", func(t *testing.T) {
		m := &Manifest{EntryScript: "app/main.py", OutputName: "leia"}
		m.Normalize()
		if m.OutputName != "leia" {
			t.Errorf("OutputName = %q, want %q", m.OutputName, "leia")
		}
	})

	t.Run("tempdir defaulted", func(t *testing.T) {
		m := &Manifest{EntryScript: "main.py"}
		m.Normalize()
		if m.Runtime.TempDir != TempDirSystem {
			t.Errorf("TempDir = %q, want %q", m.Runtime.TempDir, TempDirSystem)
		}
	})
}

func TestManifest_Validate(t *testing.T) {
	valid := func() *Manifest {
		m := &Manifest{EntryScript: "main.py"}
		m.Normalize()
		return m
	}

	t.Run("valid manifest passes", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing entry script", func(t *testing.T) {
		m := valid()
		m.EntryScript = "   "
		err := m.Validate()
		if !errors.Is(err, ErrMissingEntryScript) {
			t.Errorf("expected ErrMissingEntryScript, got %v", err)
		}
	})

	t.Run("invalid tempdir strategy", func(t *testing.T) {
		m := valid()
		m.Runtime.TempDir = "ramdisk"
		err := m.Validate()
		if !errors.Is(err, ErrInvalidTempDirStrategy) {
			t.Errorf("expected ErrInvalidTempDirStrategy, got %v", err)
		}
	})

	t.Run("reserved output name", func(t *testing.T) {
		m := valid()
		m.OutputName = "CON"
		err := m.Validate()
		if !errors.Is(err, ErrReservedOutputName) {
			t.Errorf("expected ErrReservedOutputName, got %v", err)
		}
	})
}

func TestTempDirStrategy_IsValid(t *testing.T) {
	for _, s := range []TempDirStrategy{TempDirSystem, TempDirUserCache} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []TempDirStrategy{"", "ramdisk", "SYSTEM"} {
		if s.IsValid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
