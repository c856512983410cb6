// SPDX-License-Identifier: MPL-2.0

// Package archive implements the module archive embedded in every artifact:
// an ordered mapping from dotted module name to (optionally deflated)
// payload, with the lookup index written ahead of the payloads so the
// bootstrap loader can find a module by name without scanning.
//
// The format is deterministic: entries are stored in name order, payloads
// are compressed at a fixed level, and no timestamps are recorded. Packing
// the same sources twice therefore produces byte-identical output.
package archive

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// Magic identifies a bindle module archive.
const Magic = "BNDL"

// FormatVersion is the current archive format version.
const FormatVersion uint16 = 1

// compressionLevel is pinned so identical inputs always produce identical
// compressed bytes across builds.
const compressionLevel = flate.BestCompression

const flagDeflated uint16 = 1 << 0

var (
	// ErrNotArchive is returned when data does not start with the archive magic.
	ErrNotArchive = errors.New("not a bindle archive")
	// ErrUnsupportedVersion is returned for archives written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported archive version")
	// ErrModuleNotFound is returned when a lookup names an absent module.
	ErrModuleNotFound = errors.New("module not found in archive")
	// ErrCorrupt is returned when the index or payloads are truncated or inconsistent.
	ErrCorrupt = errors.New("corrupt archive")
)

type (
	// Source is one module to pack: its dotted name and the file holding its
	// source representation.
	Source struct {
		Name string
		Path string
	}

	// Entry is one index record. Offset is relative to the payload section.
	Entry struct {
		Name           string
		Offset         uint64
		CompressedSize uint64
		RawSize        uint64
	}

	// Archive is an immutable packed module archive. It is built once by Pack
	// (or parsed from bytes) and never modified afterward.
	Archive struct {
		entries  []Entry
		byName   map[string]int
		payload  []byte
		deflated bool
	}
)

// Pack reads each source once, compresses it, and builds the archive.
// Sources are stored in name order regardless of input order, making the
// output a pure function of the (name, content) pairs.
func Pack(sources []Source, compress bool) (*Archive, error) {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	a := &Archive{
		byName:   make(map[string]int, len(sorted)),
		deflated: compress,
	}

	var payload bytes.Buffer
	for _, src := range sorted {
		raw, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read module %s: %w", src.Name, err)
		}

		offset := uint64(payload.Len())
		var stored []byte
		if compress {
			stored, err = deflate(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to compress module %s: %w", src.Name, err)
			}
		} else {
			stored = raw
		}
		payload.Write(stored)

		a.byName[src.Name] = len(a.entries)
		a.entries = append(a.entries, Entry{
			Name:           src.Name,
			Offset:         offset,
			CompressedSize: uint64(len(stored)),
			RawSize:        uint64(len(raw)),
		})
	}

	a.payload = payload.Bytes()
	return a, nil
}

// Len returns the number of modules in the archive.
func (a *Archive) Len() int { return len(a.entries) }

// Entries returns the index records in stored (name) order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Lookup finds a module's index record by name in O(1).
func (a *Archive) Lookup(name string) (Entry, bool) {
	idx, ok := a.byName[name]
	if !ok {
		return Entry{}, false
	}
	return a.entries[idx], true
}

// ReadModule returns the decompressed source of a module.
func (a *Archive) ReadModule(name string) ([]byte, error) {
	entry, ok := a.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	// Checked separately so Offset+CompressedSize cannot wrap around uint64.
	total := uint64(len(a.payload))
	if entry.Offset > total || entry.CompressedSize > total-entry.Offset {
		return nil, fmt.Errorf("%w: payload truncated for %s", ErrCorrupt, name)
	}
	stored := a.payload[entry.Offset : entry.Offset+entry.CompressedSize]

	if !a.deflated {
		out := make([]byte, len(stored))
		copy(out, stored)
		return out, nil
	}

	r := flate.NewReader(bytes.NewReader(stored))
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to inflate %s: %v", ErrCorrupt, name, err)
	}
	if uint64(len(raw)) != entry.RawSize {
		return nil, fmt.Errorf("%w: size mismatch for %s", ErrCorrupt, name)
	}
	return raw, nil
}

// WriteTo serializes the archive: magic, version, flags, entry count, the
// full index, then the payload section. Implements io.WriterTo.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	buf.WriteString(Magic)
	writeU16(&buf, FormatVersion)
	flags := uint16(0)
	if a.deflated {
		flags |= flagDeflated
	}
	writeU16(&buf, flags)
	writeU32(&buf, uint32(len(a.entries)))

	for _, e := range a.entries {
		writeU16(&buf, uint16(len(e.Name)))
		buf.WriteString(e.Name)
		writeU64(&buf, e.Offset)
		writeU64(&buf, e.CompressedSize)
		writeU64(&buf, e.RawSize)
	}

	buf.Write(a.payload)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Bytes returns the full serialized archive.
func (a *Archive) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = a.WriteTo(&buf) // bytes.Buffer writes cannot fail
	return buf.Bytes()
}

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, compressionLevel)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func writeU64(buf *bytes.Buffer, v uint64) {
	_ = binary.Write(buf, binary.BigEndian, v)
}
