// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"bindle-cli/pkg/manifest"
)

//go:embed stub.sh.tmpl
var stubTemplate string

// payloadMarker separates the shell stub from the compressed payload. The
// stub locates it with sed at launch.
const payloadMarker = "__BINDLE_PAYLOAD__"

// stubData feeds the self-extracting stub template.
type stubData struct {
	Name      string
	PayloadID string
	UserCache bool
	Debug     bool
}

// assembleOneFile packs the staged bundle tree into a deterministic tar.gz
// payload, prepends the rendered extraction stub, and moves the executable
// into the dist directory with a temp-file rename.
func assembleOneFile(staging string, in Input) (*Artifact, error) {
	payload, err := packPayload(staging, in.Manifest.OutputName)
	if err != nil {
		return nil, &AssemblyError{Stage: "payload", Cause: err}
	}

	stub, err := renderStub(in, payload)
	if err != nil {
		return nil, &AssemblyError{Stage: "stub", Cause: err}
	}

	dest := filepath.Join(in.DistPath, in.Manifest.OutputName)
	tmp := filepath.Join(in.DistPath, "."+in.Manifest.OutputName+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return nil, &AssemblyError{Stage: "output", Cause: err}
	}
	if _, err := f.Write(stub); err == nil {
		_, err = f.Write(payload)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return nil, &AssemblyError{Stage: "output", Cause: err}
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return nil, &AssemblyError{Stage: "output", Cause: err}
	}

	os.RemoveAll(staging)
	return &Artifact{Path: dest, OneFile: true}, nil
}

// renderStub produces the extraction stub, ending with the payload marker
// line so the compressed bytes can follow directly.
func renderStub(in Input, payload []byte) ([]byte, error) {
	tmpl, err := template.New("stub").Parse(stubTemplate)
	if err != nil {
		return nil, fmt.Errorf("internal error: failed to parse stub template: %w", err)
	}

	sum := sha256.Sum256(payload)
	data := stubData{
		Name:      in.Manifest.OutputName,
		PayloadID: hex.EncodeToString(sum[:8]),
		UserCache: in.Manifest.Runtime.TempDir == manifest.TempDirUserCache,
		Debug:     in.Manifest.Runtime.Debug,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("failed to render stub: %w", err)
	}
	if err := validateScript("stub", sb.String()); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// packPayload builds a deterministic tar.gz of the staged tree under a
// top-level directory named after the artifact. File order, ownership, and
// timestamps are all fixed so identical trees produce identical payloads.
func packPayload(staging, name string) ([]byte, error) {
	var files []string
	err := filepath.WalkDir(staging, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk staging tree: %w", err)
	}
	sort.Strings(files)

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(gz)

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return nil, err
		}

		hdr := &tar.Header{
			Name:     filepath.ToSlash(filepath.Join(name, rel)),
			Mode:     int64(info.Mode().Perm()),
			Size:     info.Size(),
			Typeflag: tar.TypeReg,
			Format:   tar.FormatUSTAR,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
