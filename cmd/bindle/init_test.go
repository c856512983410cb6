// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"bindle-cli/pkg/manifest"
)

func TestGenerateBindlefile(t *testing.T) {
	// Every template must produce a manifest that parses against the schema.
	for _, template := range []string{"minimal", "default", "full"} {
		t.Run(template, func(t *testing.T) {
			content := generateBindlefile(template, "app.py")

			m, err := manifest.ParseBytes([]byte(content), "bindlefile.cue")
			if err != nil {
				t.Fatalf("generated %s bindlefile does not parse: %v\n%s", template, err, content)
			}
			if m.EntryScript != "app.py" {
				t.Errorf("entry = %q, want app.py", m.EntryScript)
			}
			if m.OutputName != "app" {
				t.Errorf("name = %q, want app", m.OutputName)
			}
		})
	}

	t.Run("full template carries every section", func(t *testing.T) {
		content := generateBindlefile("full", "app.py")
		for _, section := range []string{"binaries:", "datas:", "hidden_imports:", "excludes:", "paths:"} {
			if !strings.Contains(content, section) {
				t.Errorf("full template missing %s section", section)
			}
		}
	})
}
