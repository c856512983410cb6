// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"encoding/binary"
	"fmt"
	"os"
)

// headerSize is magic (4) + version (2) + flags (2) + entry count (4).
const headerSize = 4 + 2 + 2 + 4

// Open reads and parses an archive file.
func Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse decodes a serialized archive. The index is read eagerly; payloads
// stay referenced in place and are only inflated on ReadModule.
func Parse(data []byte) (*Archive, error) {
	if len(data) < headerSize || string(data[:4]) != Magic {
		return nil, ErrNotArchive
	}

	version := binary.BigEndian.Uint16(data[4:6])
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
	}
	flags := binary.BigEndian.Uint16(data[6:8])
	count := binary.BigEndian.Uint32(data[8:12])

	a := &Archive{
		byName:   make(map[string]int, count),
		deflated: flags&flagDeflated != 0,
	}

	pos := uint64(headerSize)
	total := uint64(len(data))
	for i := uint32(0); i < count; i++ {
		if pos+2 > total {
			return nil, fmt.Errorf("%w: index truncated", ErrCorrupt)
		}
		nameLen := uint64(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2

		if pos+nameLen+24 > total {
			return nil, fmt.Errorf("%w: index truncated", ErrCorrupt)
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen

		entry := Entry{
			Name:           name,
			Offset:         binary.BigEndian.Uint64(data[pos : pos+8]),
			CompressedSize: binary.BigEndian.Uint64(data[pos+8 : pos+16]),
			RawSize:        binary.BigEndian.Uint64(data[pos+16 : pos+24]),
		}
		pos += 24

		if _, dup := a.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrCorrupt, name)
		}
		a.byName[name] = len(a.entries)
		a.entries = append(a.entries, entry)
	}

	a.payload = data[pos:]
	payloadLen := uint64(len(a.payload))
	for _, e := range a.entries {
		// Checked separately so Offset+CompressedSize cannot wrap around uint64.
		if e.Offset > payloadLen || e.CompressedSize > payloadLen-e.Offset {
			return nil, fmt.Errorf("%w: entry %q points past payload end", ErrCorrupt, e.Name)
		}
	}

	return a, nil
}
