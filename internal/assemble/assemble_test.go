// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"bindle-cli/internal/resolve"
	"bindle-cli/pkg/archive"
	"bindle-cli/pkg/manifest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// testInput builds a complete assembler input from a small two-module project.
func testInput(t *testing.T) Input {
	t.Helper()
	proj := t.TempDir()

	writeFile(t, filepath.Join(proj, "main.py"), "import helper\n")
	writeFile(t, filepath.Join(proj, "helper.py"), "GREETING = 'hi'\n")
	writeFile(t, filepath.Join(proj, "assets", "banner.txt"), "hello\n")

	m := &manifest.Manifest{
		EntryScript: filepath.Join(proj, "main.py"),
		Datas: []manifest.DataResource{
			{SourceGlob: filepath.Join(proj, "assets", "*.txt"), DestDir: "assets"},
		},
		Runtime: manifest.DefaultRuntimeFlags(),
	}
	m.Normalize()

	res, err := resolve.Resolve(m)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var sources []archive.Source
	for _, rec := range res.IncludedModules() {
		sources = append(sources, archive.Source{Name: rec.Name, Path: rec.Path})
	}
	ar, err := archive.Pack(sources, true)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	return Input{
		Manifest:   m,
		Resolution: res,
		Archive:    ar,
		DistPath:   filepath.Join(t.TempDir(), "dist"),
		WorkDir:    t.TempDir(),
	}
}

func TestAssembleOneDir(t *testing.T) {
	in := testInput(t)

	artifact, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if artifact.OneFile {
		t.Error("expected a one-directory artifact")
	}

	bundle := filepath.Join(in.DistPath, "main")
	if artifact.Path != bundle {
		t.Errorf("Path = %q, want %q", artifact.Path, bundle)
	}

	t.Run("launcher is executable", func(t *testing.T) {
		info, err := os.Stat(filepath.Join(bundle, "main"))
		if err != nil {
			t.Fatalf("launcher missing: %v", err)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Error("launcher should have the owner execute bit")
		}

		content, err := os.ReadFile(filepath.Join(bundle, "main"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(content), "#!/bin/sh") {
			t.Error("launcher should be a POSIX shell script")
		}
		if !strings.Contains(string(content), `exec python3 "$here/app/main.py" "$@"`) {
			t.Errorf("launcher should exec the entry script:\n%s", content)
		}
	})

	t.Run("module tree is staged", func(t *testing.T) {
		for _, rel := range []string{"app/main.py", "app/helper.py"} {
			if _, err := os.Stat(filepath.Join(bundle, rel)); err != nil {
				t.Errorf("%s missing: %v", rel, err)
			}
		}
	})

	t.Run("module archive is shipped and readable", func(t *testing.T) {
		ar, err := archive.Open(filepath.Join(bundle, ArchiveFileName))
		if err != nil {
			t.Fatalf("shipped archive unreadable: %v", err)
		}
		if _, ok := ar.Lookup("helper"); !ok {
			t.Error("helper missing from shipped archive")
		}
	})

	t.Run("data files land at their destinations", func(t *testing.T) {
		content, err := os.ReadFile(filepath.Join(bundle, "assets", "banner.txt"))
		if err != nil {
			t.Fatalf("data file missing: %v", err)
		}
		if string(content) != "hello\n" {
			t.Errorf("data content = %q", content)
		}
	})
}

func TestAssembleWindowedLauncher(t *testing.T) {
	in := testInput(t)
	in.Manifest.Runtime.Console = false

	artifact, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(artifact.Path, "main"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), ">/dev/null 2>&1") {
		t.Error("windowed launcher should detach from the console streams")
	}
}

func TestAssembleOneFile(t *testing.T) {
	in := testInput(t)
	in.Manifest.Runtime.OneFile = true

	artifact, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !artifact.OneFile {
		t.Error("expected a one-file artifact")
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatal(err)
	}

	marker := []byte(payloadMarker + "\n")
	idx := bytes.Index(data, marker)
	if idx == -1 {
		t.Fatal("payload marker missing from artifact")
	}
	stub := data[:idx]
	payload := data[idx+len(marker):]

	if !bytes.HasPrefix(stub, []byte("#!/bin/sh")) {
		t.Error("stub should be a POSIX shell script")
	}
	if !bytes.Contains(stub, []byte("mktemp -d")) {
		t.Error("system temp strategy should extract via mktemp")
	}

	t.Run("payload is a tar.gz of the bundle", func(t *testing.T) {
		gz, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("payload is not gzip: %v", err)
		}
		tr := tar.NewReader(gz)

		names := map[string]bool{}
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("payload is not a tar stream: %v", err)
			}
			names[hdr.Name] = true
		}

		for _, want := range []string{"main/main", "main/app/main.py", "main/" + ArchiveFileName} {
			if !names[want] {
				t.Errorf("%s missing from payload, got %v", want, names)
			}
		}
	})

	t.Run("no temp file left behind", func(t *testing.T) {
		entries, err := os.ReadDir(in.DistPath)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Errorf("temp file left in dist: %s", e.Name())
			}
		}
	})
}

func TestAssembleOneFileUserCache(t *testing.T) {
	in := testInput(t)
	in.Manifest.Runtime.OneFile = true
	in.Manifest.Runtime.TempDir = manifest.TempDirUserCache

	artifact, err := Assemble(in)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("XDG_CACHE_HOME")) {
		t.Error("user-cache stub should extract under the user cache directory")
	}
	if bytes.Contains(data[:bytes.Index(data, []byte(payloadMarker))], []byte("mktemp -d")) {
		t.Error("user-cache stub should not use a throwaway temp directory")
	}
}

func TestAssembleOneFileDeterminism(t *testing.T) {
	in := testInput(t)
	in.Manifest.Runtime.OneFile = true

	first, err := Assemble(in)
	if err != nil {
		t.Fatalf("first Assemble failed: %v", err)
	}
	firstBytes, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatal(err)
	}

	second, err := Assemble(in)
	if err != nil {
		t.Fatalf("second Assemble failed: %v", err)
	}
	secondBytes, err := os.ReadFile(second.Path)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(firstBytes, secondBytes) {
		t.Error("rebuilding an unchanged project must produce a byte-identical artifact")
	}
}

// fakeELF builds a minimal but parseable ELF64 header for the given machine.
func fakeELF(t *testing.T, path string, machine uint16) {
	t.Helper()

	var buf bytes.Buffer
	ident := [16]byte{0x7f, 'E', 'L', 'F', 2, 1, 1}
	buf.Write(ident[:])
	binary.Write(&buf, binary.LittleEndian, uint16(2))      // e_type: EXEC
	binary.Write(&buf, binary.LittleEndian, machine)        // e_machine
	binary.Write(&buf, binary.LittleEndian, uint32(1))      // e_version
	binary.Write(&buf, binary.LittleEndian, uint64(0))      // e_entry
	binary.Write(&buf, binary.LittleEndian, uint64(0))      // e_phoff
	binary.Write(&buf, binary.LittleEndian, uint64(0))      // e_shoff
	binary.Write(&buf, binary.LittleEndian, uint32(0))      // e_flags
	binary.Write(&buf, binary.LittleEndian, uint16(64))     // e_ehsize
	binary.Write(&buf, binary.LittleEndian, uint16(0))      // e_phentsize
	binary.Write(&buf, binary.LittleEndian, uint16(0))      // e_phnum
	binary.Write(&buf, binary.LittleEndian, uint16(0))      // e_shentsize
	binary.Write(&buf, binary.LittleEndian, uint16(0))      // e_shnum
	binary.Write(&buf, binary.LittleEndian, uint16(0))      // e_shstrndx
	if err := os.WriteFile(path, buf.Bytes(), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestAssembleArchMismatch(t *testing.T) {
	in := testInput(t)

	// A machine that cannot match the build host.
	foreign := uint16(62) // EM_X86_64
	if runtime.GOARCH == "amd64" {
		foreign = 183 // EM_AARCH64
	}

	lib := filepath.Join(t.TempDir(), "libforeign.so")
	fakeELF(t, lib, foreign)
	in.Resolution.Binaries = []resolve.ResolvedBinary{
		{SourcePath: lib, DestPath: filepath.Join("lib", "libforeign.so")},
	}

	_, err := Assemble(in)
	if !errors.Is(err, ErrArchMismatch) {
		t.Fatalf("expected ErrArchMismatch, got %v", err)
	}

	var mismatch *ArchMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatal("error should be a *ArchMismatchError")
	}
	if mismatch.BinaryPath != lib {
		t.Errorf("error should identify the binary, got %q", mismatch.BinaryPath)
	}

	if _, statErr := os.Stat(filepath.Join(in.DistPath, "main")); !os.IsNotExist(statErr) {
		t.Error("a failed build must not leave a partial artifact in dist")
	}
}

func TestAssembleFailureWrapsSentinel(t *testing.T) {
	in := testInput(t)
	in.Resolution.Binaries = []resolve.ResolvedBinary{
		{SourcePath: filepath.Join(t.TempDir(), "gone.so"), DestPath: "lib/gone.so"},
	}

	_, err := Assemble(in)
	if !errors.Is(err, ErrAssemblyFailed) {
		t.Fatalf("expected ErrAssemblyFailed, got %v", err)
	}
}

func TestValidateScript(t *testing.T) {
	t.Run("rendered launcher parses as sh", func(t *testing.T) {
		script := "#!/bin/sh\nset -eu\nhere=$(pwd)\nexec python3 \"$here/app/main.py\" \"$@\"\n"
		if err := validateScript("launcher", script); err != nil {
			t.Errorf("valid script rejected: %v", err)
		}
	})

	t.Run("syntax errors fail the build", func(t *testing.T) {
		if err := validateScript("stub", "#!/bin/sh\nif true; then\n"); err == nil {
			t.Error("unterminated if should be rejected")
		}
		if err := validateScript("stub", "echo 'unclosed\n"); err == nil {
			t.Error("unclosed quote should be rejected")
		}
	})
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		name   string
		module string
		source string
		want   string
	}{
		{name: "top-level module", module: "main", source: "/p/main.py", want: "main.py"},
		{name: "nested module", module: "pkg.core", source: "/p/pkg/core.py", want: filepath.Join("pkg", "core.py")},
		{name: "package init", module: "pkg", source: "/p/pkg/__init__.py", want: filepath.Join("pkg", "__init__.py")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := modulePath(tt.module, tt.source); got != tt.want {
				t.Errorf("modulePath(%q) = %q, want %q", tt.module, got, tt.want)
			}
		})
	}
}
