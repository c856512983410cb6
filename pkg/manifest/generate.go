// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"strings"
)

// GenerateCUE generates a CUE representation of a manifest, suitable for
// writing as a starter bindlefile.
func GenerateCUE(m *Manifest) string {
	var sb strings.Builder

	sb.WriteString("// Bindle build manifest.\n\n")

	sb.WriteString(fmt.Sprintf("entry: %q\n", m.EntryScript))
	if m.OutputName != "" {
		sb.WriteString(fmt.Sprintf("name: %q\n", m.OutputName))
	}

	if len(m.SearchPaths) > 0 {
		sb.WriteString("\npaths: [\n")
		for _, p := range m.SearchPaths {
			sb.WriteString(fmt.Sprintf("\t%q,\n", p))
		}
		sb.WriteString("]\n")
	}

	if len(m.Binaries) > 0 {
		sb.WriteString("\nbinaries: [\n")
		for _, b := range m.Binaries {
			sb.WriteString(fmt.Sprintf("\t{source: %q, dest: %q},\n", b.SourcePath, b.DestDir))
		}
		sb.WriteString("]\n")
	}

	if len(m.Datas) > 0 {
		sb.WriteString("\ndatas: [\n")
		for _, d := range m.Datas {
			sb.WriteString(fmt.Sprintf("\t{source: %q, dest: %q},\n", d.SourceGlob, d.DestDir))
		}
		sb.WriteString("]\n")
	}

	if len(m.HiddenImports) > 0 {
		sb.WriteString("\nhidden_imports: [\n")
		for _, h := range m.HiddenImports {
			sb.WriteString(fmt.Sprintf("\t%q,\n", h))
		}
		sb.WriteString("]\n")
	}

	if len(m.Excludes) > 0 {
		sb.WriteString("\nexcludes: [\n")
		for _, e := range m.Excludes {
			sb.WriteString(fmt.Sprintf("\t%q,\n", e))
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\nruntime: {\n")
	sb.WriteString(fmt.Sprintf("\tonefile: %v\n", m.Runtime.OneFile))
	sb.WriteString(fmt.Sprintf("\tconsole: %v\n", m.Runtime.Console))
	sb.WriteString(fmt.Sprintf("\tcompress: %v\n", m.Runtime.Compress))
	sb.WriteString(fmt.Sprintf("\ttempdir: %q\n", m.Runtime.TempDir))
	sb.WriteString("}\n")

	return sb.String()
}
