// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bindle-cli/internal/assemble"
	"bindle-cli/internal/issue"
	"bindle-cli/pkg/archive"

	"github.com/spf13/cobra"
)

// inspectCmd lists the modules packed into a built artifact.
var inspectCmd = &cobra.Command{
	Use:   "inspect <artifact>",
	Short: "List the modules packed into a built artifact",
	Long: `List the modules packed into a built artifact.

The argument may be a one-directory bundle, a one-file executable, or a
raw module archive. The index is printed in stored order with the raw
and compressed size of each module.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	ar, err := openArtifactArchive(args[0])
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("%d modules", ar.Len())))
	for _, entry := range ar.Entries() {
		fmt.Printf("  %s %s\n",
			CmdStyle.Render(entry.Name),
			SubtitleStyle.Render(fmt.Sprintf("(%d bytes, %d stored)", entry.RawSize, entry.CompressedSize)))
	}

	return nil
}

// openArtifactArchive locates and parses the module archive inside any
// artifact form: bundle directory, one-file executable, or bare archive.
func openArtifactArchive(path string) (*archive.Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("artifact not found: %s", path)
	}

	if info.IsDir() {
		return openDecorated(filepath.Join(path, assemble.ArchiveFileName))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	// A bare module archive.
	if ar, err := archive.Parse(data); err == nil {
		return ar, nil
	} else if !errors.Is(err, archive.ErrNotArchive) {
		return nil, decorateCorruptArchive(path, err)
	}

	// A one-file executable: extract the archive from the embedded payload.
	ar, err := archiveFromOneFile(data)
	if err != nil {
		return nil, decorateCorruptArchive(path, err)
	}
	return ar, nil
}

func openDecorated(path string) (*archive.Archive, error) {
	ar, err := archive.Open(path)
	if err != nil {
		return nil, decorateCorruptArchive(path, err)
	}
	return ar, nil
}

// archiveFromOneFile digs the module archive out of a self-extracting
// executable: everything after the payload marker is a tar.gz of the bundle
// tree, which contains the archive at <name>/modules.bndl.
func archiveFromOneFile(data []byte) (*archive.Archive, error) {
	marker := []byte("__BINDLE_PAYLOAD__\n")
	idx := bytes.Index(data, marker)
	if idx == -1 {
		return nil, errors.New("not a bindle artifact: payload marker missing")
	}

	gz, err := gzip.NewReader(bytes.NewReader(data[idx+len(marker):]))
	if err != nil {
		return nil, fmt.Errorf("payload is not gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("payload is not a tar stream: %w", err)
		}
		if strings.HasSuffix(hdr.Name, "/"+assemble.ArchiveFileName) {
			payload, err := io.ReadAll(tr)
			if err != nil {
				return nil, err
			}
			return archive.Parse(payload)
		}
	}

	return nil, errors.New("module archive missing from payload")
}

func decorateCorruptArchive(path string, err error) error {
	renderIssueCard(issue.ArchiveCorruptId)
	return issue.NewErrorContext().
		WithOperation("inspect artifact").
		WithResource(path).
		WithSuggestion("Rebuild the artifact with 'bindle build'").
		WithSuggestion("Pass the bundle directory, the executable, or the modules.bndl file").
		Wrap(err).
		BuildError()
}
