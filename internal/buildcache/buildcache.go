// SPDX-License-Identifier: MPL-2.0

// Package buildcache manages the per-build work directory: intermediate
// artifacts plus a TOML index that records the inputs of the last successful
// resolution. A later build with an unchanged manifest and unchanged inputs
// reuses the cached resolution instead of re-walking the project.
//
// Everything under the work directory is safe to discard; a build with
// --clean starts from an empty directory and produces the same artifact.
package buildcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"bindle-cli/internal/resolve"
	"bindle-cli/pkg/manifest"
)

// indexFileName is the cache index inside each work directory.
const indexFileName = "cache.toml"

type (
	// Fingerprint records what a file looked like when the snapshot was
	// taken. Size plus modification time is the freshness check; content
	// hashing is deliberately avoided to keep no-op rebuilds fast.
	Fingerprint struct {
		Path    string `toml:"path"`
		Size    int64  `toml:"size"`
		ModTime int64  `toml:"mtime"`
	}

	// CachedModule is one resolved module record persisted in the index.
	CachedModule struct {
		Name     string `toml:"name"`
		Origin   string `toml:"origin"`
		Path     string `toml:"path"`
		Included bool   `toml:"included"`
	}

	// CachedDiagnostic is one module-stage resolution diagnostic persisted in
	// the index, replayed on cache hits so warning output matches a cold build.
	CachedDiagnostic struct {
		Severity string `toml:"severity"`
		Code     string `toml:"code"`
		Message  string `toml:"message"`
		Subject  string `toml:"subject"`
	}

	// Snapshot is the persisted result of a resolution: the manifest hash it
	// was computed for, the module closure, its module-stage diagnostics, and
	// the fingerprints of every file that fed it.
	Snapshot struct {
		ManifestHash string             `toml:"manifest_hash"`
		CreatedAt    time.Time          `toml:"created_at"`
		Modules      []CachedModule     `toml:"modules"`
		Diagnostics  []CachedDiagnostic `toml:"diagnostics"`
		Inputs       []Fingerprint      `toml:"inputs"`
	}

	// Cache is the work directory for one named build.
	Cache struct {
		root string
	}
)

// Open creates (if needed) and returns the work directory for a build.
func Open(workPath, name string) (*Cache, error) {
	root := filepath.Join(workPath, name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work directory %s: %w", root, err)
	}
	return &Cache{root: root}, nil
}

// Dir returns the work directory path. Build stages place intermediates here.
func (c *Cache) Dir() string { return c.root }

// Clean removes the entire work directory and recreates it empty.
func (c *Cache) Clean() error {
	if err := os.RemoveAll(c.root); err != nil {
		return fmt.Errorf("failed to clean work directory %s: %w", c.root, err)
	}
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return fmt.Errorf("failed to recreate work directory %s: %w", c.root, err)
	}
	return nil
}

// Load reads the cache index. A missing index returns (nil, nil); only a
// present-but-unreadable index is an error.
func (c *Cache) Load() (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(c.root, indexFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}

	var snap Snapshot
	if err := toml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse cache index: %w", err)
	}
	return &snap, nil
}

// Store writes the cache index atomically (temp file plus rename).
func (c *Cache) Store(snap *Snapshot) error {
	data, err := toml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode cache index: %w", err)
	}

	tmp := filepath.Join(c.root, indexFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache index: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.root, indexFileName)); err != nil {
		return fmt.Errorf("failed to commit cache index: %w", err)
	}
	return nil
}

// NewSnapshot captures a resolution into a persistable snapshot, taking a
// fingerprint of every module source that fed it.
func NewSnapshot(manifestHash string, res *resolve.Resolution) (*Snapshot, error) {
	snap := &Snapshot{
		ManifestHash: manifestHash,
		CreatedAt:    time.Now().UTC(),
	}

	for _, rec := range res.Modules {
		snap.Modules = append(snap.Modules, CachedModule{
			Name:     rec.Name,
			Origin:   string(rec.Origin),
			Path:     rec.Path,
			Included: rec.Included,
		})
		fp, err := FingerprintFile(rec.Path)
		if err != nil {
			return nil, err
		}
		snap.Inputs = append(snap.Inputs, fp)
	}

	// Asset-stage diagnostics are re-emitted by Rehydrate's own asset pass;
	// only the module-stage ones need persisting.
	for _, d := range res.Diagnostics {
		if d.IsAssetStage() {
			continue
		}
		snap.Diagnostics = append(snap.Diagnostics, CachedDiagnostic{
			Severity: string(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			Subject:  d.Subject,
		})
	}

	return snap, nil
}

// DiagnosticRecords converts the cached module-stage diagnostics back into
// resolver diagnostics, ready for resolve.Rehydrate.
func (s *Snapshot) DiagnosticRecords() []resolve.Diagnostic {
	out := make([]resolve.Diagnostic, 0, len(s.Diagnostics))
	for _, d := range s.Diagnostics {
		out = append(out, resolve.Diagnostic{
			Severity: resolve.Severity(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			Subject:  d.Subject,
		})
	}
	return out
}

// ModuleRecords converts the cached closure back into resolver records,
// ready for resolve.Rehydrate.
func (s *Snapshot) ModuleRecords() []resolve.ModuleRecord {
	out := make([]resolve.ModuleRecord, 0, len(s.Modules))
	for _, m := range s.Modules {
		out = append(out, resolve.ModuleRecord{
			Name:     m.Name,
			Origin:   resolve.Origin(m.Origin),
			Path:     m.Path,
			Included: m.Included,
		})
	}
	return out
}

// Fresh reports whether the snapshot can be reused for a manifest with the
// given hash: the hash must match and every fingerprinted input must still
// exist with the same size and modification time.
func (s *Snapshot) Fresh(manifestHash string) bool {
	if s.ManifestHash != manifestHash {
		return false
	}
	for _, want := range s.Inputs {
		got, err := FingerprintFile(want.Path)
		if err != nil {
			return false
		}
		if got.Size != want.Size || got.ModTime != want.ModTime {
			return false
		}
	}
	return true
}

// FingerprintFile stats a file and captures its freshness fingerprint.
func FingerprintFile(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}
	return Fingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
	}, nil
}

// ManifestHash derives a stable content hash for a normalized manifest.
// Any field change invalidates cached resolutions keyed on the old hash.
func ManifestHash(m *manifest.Manifest) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to hash manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
