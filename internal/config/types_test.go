// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestColorSchemeIsValid(t *testing.T) {
	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if valid, _ := cs.IsValid(); !valid {
			t.Errorf("%q should be valid", cs)
		}
	}

	valid, errs := ColorScheme("neon").IsValid()
	if valid {
		t.Fatal("neon should be invalid")
	}
	if !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("expected ErrInvalidColorScheme, got %v", errs[0])
	}
}

func TestTempDirStrategyIsValid(t *testing.T) {
	for _, s := range []TempDirStrategy{TempDirSystem, TempDirUserCache} {
		if valid, _ := s.IsValid(); !valid {
			t.Errorf("%q should be valid", s)
		}
	}

	valid, errs := TempDirStrategy("ramdisk").IsValid()
	if valid {
		t.Fatal("ramdisk should be invalid")
	}
	if !errors.Is(errs[0], ErrInvalidTempDirStrategy) {
		t.Errorf("expected ErrInvalidTempDirStrategy, got %v", errs[0])
	}
}

func TestOutputDirPathIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value OutputDirPath
		want  bool
	}{
		{name: "empty means default", value: "", want: true},
		{name: "normal path", value: "dist", want: true},
		{name: "whitespace only", value: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := tt.value.IsValid()
			if valid != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, valid, tt.want)
			}
			if !valid && !errors.Is(errs[0], ErrInvalidOutputDirPath) {
				t.Errorf("expected ErrInvalidOutputDirPath, got %v", errs[0])
			}
		})
	}
}

func TestConfigIsValid(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		if valid, errs := DefaultConfig().IsValid(); !valid {
			t.Errorf("default config should be valid, got %v", errs)
		}
	})

	t.Run("errors cascade with sentinel wrappers", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Build.TempDir = "ramdisk"
		cfg.UI.ColorScheme = "neon"

		valid, errs := cfg.IsValid()
		if valid {
			t.Fatal("config should be invalid")
		}
		if !errors.Is(errs[0], ErrInvalidConfig) {
			t.Errorf("top-level error should wrap ErrInvalidConfig, got %v", errs[0])
		}

		var invalid *InvalidConfigError
		if !errors.As(errs[0], &invalid) {
			t.Fatal("expected *InvalidConfigError")
		}
		if len(invalid.FieldErrors) != 2 {
			t.Errorf("expected 2 field errors, got %d", len(invalid.FieldErrors))
		}
	})
}
