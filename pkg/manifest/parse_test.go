// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseBytes(t *testing.T) {
	t.Run("full bindlefile parses", func(t *testing.T) {
		data := []byte(`
entry: "leia.py"
name:  "leia"
paths: ["recognizers", "speech_handlers"]

binaries: [
	{source: "/usr/lib/libvosk.so", dest: "lib"},
]

datas: [
	{source: "models/*", dest: "models"},
]

hidden_imports: ["recognizers.azure_recognizer"]
excludes: ["tkinter"]

runtime: {
	onefile: true
	console: false
}
`)
		m, err := ParseBytes(data, "bindlefile.cue")
		if err != nil {
			t.Fatalf("ParseBytes failed: %v", err)
		}

		if m.EntryScript != "leia.py" {
			t.Errorf("EntryScript = %q, want %q", m.EntryScript, "leia.py")
		}
		if m.OutputName != "leia" {
			t.Errorf("OutputName = %q, want %q", m.OutputName, "leia")
		}
		if len(m.Binaries) != 1 || m.Binaries[0].SourcePath != "/usr/lib/libvosk.so" || m.Binaries[0].DestDir != "lib" {
			t.Errorf("unexpected binaries: %+v", m.Binaries)
		}
		if len(m.Datas) != 1 || m.Datas[0].SourceGlob != "models/*" {
			t.Errorf("unexpected datas: %+v", m.Datas)
		}
		if !m.Runtime.OneFile {
			t.Error("Runtime.OneFile should be true")
		}
		if m.Runtime.Console {
			t.Error("Runtime.Console should be false")
		}
		// Schema defaults for fields the file does not set.
		if !m.Runtime.Compress {
			t.Error("Runtime.Compress should default to true")
		}
		if m.Runtime.TempDir != TempDirSystem {
			t.Errorf("Runtime.TempDir = %q, want %q", m.Runtime.TempDir, TempDirSystem)
		}
	})

	t.Run("minimal bindlefile gets defaults", func(t *testing.T) {
		m, err := ParseBytes([]byte(`
entry: "main.py"
runtime: {}
`), "bindlefile.cue")
		if err != nil {
			t.Fatalf("ParseBytes failed: %v", err)
		}
		if m.OutputName != "main" {
			t.Errorf("OutputName = %q, want derived %q", m.OutputName, "main")
		}
		if !m.Runtime.Console {
			t.Error("Runtime.Console should default to true")
		}
		if m.Runtime.OneFile {
			t.Error("Runtime.OneFile should default to false")
		}
	})

	t.Run("missing entry is rejected", func(t *testing.T) {
		_, err := ParseBytes([]byte(`
name: "app"
runtime: {}
`), "bindlefile.cue")
		if err == nil {
			t.Fatal("expected error for missing entry")
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := ParseBytes([]byte(`
entry: "main.py"
runtime: {}
bogus_field: true
`), "bindlefile.cue")
		if err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("bad tempdir value is rejected by schema", func(t *testing.T) {
		_, err := ParseBytes([]byte(`
entry: "main.py"
runtime: {tempdir: "ramdisk"}
`), "bindlefile.cue")
		if err == nil {
			t.Fatal("expected error for invalid tempdir")
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("reads from disk", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultFileName)
		content := "entry: \"main.py\"\nruntime: {}\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		m, err := Parse(path)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if m.EntryScript != "main.py" {
			t.Errorf("EntryScript = %q, want %q", m.EntryScript, "main.py")
		}
	})

	t.Run("missing file reports path", func(t *testing.T) {
		_, err := Parse(filepath.Join(t.TempDir(), "nope.cue"))
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "nope.cue") {
			t.Errorf("error should name the file, got: %v", err)
		}
	})
}
