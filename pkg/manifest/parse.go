// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"fmt"
	"os"

	"bindle-cli/internal/cueutil"
)

// DefaultFileName is the manifest file looked up in the working directory
// when no explicit path is given.
const DefaultFileName = "bindlefile.cue"

//go:embed bindlefile_schema.cue
var bindlefileSchema string

// Parse reads and parses a bindlefile from the given path.
func Parse(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindlefile at %s: %w", path, err)
	}

	return ParseBytes(data, path)
}

// ParseBytes parses bindlefile content from bytes.
// Uses cueutil.ParseAndDecodeString for the 3-step CUE parsing flow:
// compile schema → compile user data → validate and decode.
func ParseBytes(data []byte, path string) (*Manifest, error) {
	result, err := cueutil.ParseAndDecodeString[Manifest](
		bindlefileSchema,
		data,
		"#Bindlefile",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	m := result.Value
	m.Normalize()

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}
