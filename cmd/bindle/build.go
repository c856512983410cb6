// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"bindle-cli/internal/assemble"
	"bindle-cli/internal/buildcache"
	"bindle-cli/internal/config"
	"bindle-cli/internal/issue"
	"bindle-cli/internal/resolve"
	"bindle-cli/pkg/archive"
	"bindle-cli/pkg/manifest"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	buildFile          string
	buildName          string
	buildOneFile       bool
	buildWindowed      bool
	buildDebug         bool
	buildStrip         bool
	buildNoCompress    bool
	buildClean         bool
	buildTempDir       string
	buildDistPath      string
	buildWorkPath      string
	buildPaths         []string
	buildHiddenImports []string
	buildExcludes      []string
	buildAddData       []string
	buildAddBinary     []string

	// buildCmd runs the full pipeline: resolve, pack, assemble.
	buildCmd = &cobra.Command{
		Use:   "build [entry-script]",
		Short: "Bundle an application into a launchable artifact",
		Long: `Bundle an application into a launchable artifact.

With an entry script argument, the build is described entirely by flags.
Without one, the build manifest is read from 'bindlefile.cue' in the
current directory (or the file given via --file).

The resolver walks the entry script's static imports, merges in declared
hidden imports, and applies the exclusion list. The resulting closure is
packed into a module archive and assembled into either a one-directory
bundle or a single self-extracting executable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildFile, "file", "f", "", "bindlefile to build from (default ./"+manifest.DefaultFileName+")")
	buildCmd.Flags().StringVarP(&buildName, "name", "n", "", "artifact name (default: entry script base name)")
	buildCmd.Flags().BoolVar(&buildOneFile, "onefile", false, "produce a single self-extracting executable")
	buildCmd.Flags().BoolVarP(&buildWindowed, "windowed", "w", false, "detach the artifact from the console at launch")
	buildCmd.Flags().BoolVarP(&buildDebug, "debug", "d", false, "keep debug output in the launcher")
	buildCmd.Flags().BoolVarP(&buildStrip, "strip", "s", false, "strip symbol tables from bundled binaries")
	buildCmd.Flags().BoolVar(&buildNoCompress, "no-compress", false, "store module payloads uncompressed")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "discard the build cache before building")
	buildCmd.Flags().StringVar(&buildTempDir, "tempdir", "", "onefile extraction location: system or user-cache")
	buildCmd.Flags().StringVar(&buildDistPath, "distpath", "", "directory for finished artifacts")
	buildCmd.Flags().StringVar(&buildWorkPath, "workpath", "", "directory for build intermediates")
	buildCmd.Flags().StringSliceVarP(&buildPaths, "paths", "p", nil, "extra module search paths")
	buildCmd.Flags().StringArrayVar(&buildHiddenImports, "hidden-import", nil, "force-include a module the static walk cannot see (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildExcludes, "exclude-module", nil, "force-exclude a module and its submodules (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildAddData, "add-data", nil, "bundle data files as SRC:DEST (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildAddBinary, "add-binary", nil, "bundle a native library as SRC:DEST (repeatable)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger := newBuildLogger()

	m, err := buildManifest(cmd, args, cfg)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	m.Normalize()
	if err := m.Validate(); err != nil {
		return &ExitError{Code: 2, Err: decorateManifestError(err)}
	}

	distPath := firstNonEmpty(buildDistPath, cfg.DistPath.String(), manifest.DefaultDistDir)
	workPath := firstNonEmpty(buildWorkPath, cfg.WorkPath.String(), manifest.DefaultWorkDir)

	cache, err := buildcache.Open(workPath, m.OutputName)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if buildClean {
		logger.Debug("discarding build cache", "dir", cache.Dir())
		if err := cache.Clean(); err != nil {
			return &ExitError{Code: 1, Err: err}
		}
	}

	res, err := resolveWithCache(logger, cache, m)
	if err != nil {
		return &ExitError{Code: 1, Err: decorateResolveError(err)}
	}

	for _, diag := range res.Diagnostics {
		if diag.Severity == resolve.SeverityInfo {
			logger.Debug(diag.Message, "code", diag.Code)
			continue
		}
		logger.Warn(diag.Message, "code", diag.Code)
		if verbose {
			if id, ok := issueForDiagnostic(diag.Code); ok {
				renderIssueCard(id)
			}
		}
	}

	included := res.IncludedModules()
	logger.Debug("resolution complete",
		"modules", len(included),
		"binaries", len(res.Binaries),
		"datas", len(res.Datas))

	sources := make([]archive.Source, 0, len(included))
	for _, rec := range included {
		sources = append(sources, archive.Source{Name: rec.Name, Path: rec.Path})
	}
	ar, err := archive.Pack(sources, m.Runtime.Compress)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	artifact, err := assemble.Assemble(assemble.Input{
		Manifest:   m,
		Resolution: res,
		Archive:    ar,
		DistPath:   distPath,
		WorkDir:    cache.Dir(),
	})
	if err != nil {
		return &ExitError{Code: 1, Err: decorateAssembleError(err)}
	}

	layout := "one-directory bundle"
	if artifact.OneFile {
		layout = "one-file executable"
	}
	fmt.Printf("%s Built %s (%s)\n", SuccessStyle.Render("✓"), CmdStyle.Render(artifact.Path), layout)
	if verbose {
		fmt.Println(VerboseStyle.Render(fmt.Sprintf(
			"  %d modules, %d binaries, %d data files", len(included), len(res.Binaries), len(res.Datas))))
	}

	return nil
}

// buildManifest produces the build manifest: from flags when an entry script
// argument is given, otherwise from the bindlefile. Flags override manifest
// values in both cases.
func buildManifest(cmd *cobra.Command, args []string, cfg *config.Config) (*manifest.Manifest, error) {
	var m *manifest.Manifest

	if len(args) > 0 {
		m = &manifest.Manifest{
			EntryScript: args[0],
			Runtime:     runtimeDefaults(cfg),
		}
	} else {
		path := buildFile
		if path == "" {
			path = manifest.DefaultFileName
		}
		if _, err := os.Stat(path); err != nil {
			renderIssueCard(issue.BindlefileNotFoundId)
			return nil, issue.NewErrorContext().
				WithOperation("load build manifest").
				WithResource(path).
				WithSuggestion("Run 'bindle init' to create a bindlefile").
				WithSuggestion("Or pass an entry script directly: bindle build app.py").
				Wrap(fmt.Errorf("bindlefile not found: %s", path)).
				BuildError()
		}
		parsed, err := manifest.Parse(path)
		if err != nil {
			renderIssueCard(issue.BindlefileParseErrorId)
			return nil, issue.NewErrorContext().
				WithOperation("parse build manifest").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the fields match the bindlefile schema").
				Wrap(err).
				BuildError()
		}
		m = parsed
	}

	if err := applyBuildFlags(cmd, m); err != nil {
		return nil, err
	}
	return m, nil
}

// runtimeDefaults maps the config-level build defaults onto runtime flags
// for manifests built purely from the command line.
func runtimeDefaults(cfg *config.Config) manifest.RuntimeFlags {
	flags := manifest.DefaultRuntimeFlags()
	flags.OneFile = cfg.Build.OneFile
	flags.Console = cfg.Build.Console
	flags.Compress = cfg.Build.Compress
	flags.Strip = cfg.Build.Strip
	if cfg.Build.TempDir != "" {
		flags.TempDir = manifest.TempDirStrategy(cfg.Build.TempDir)
	}
	return flags
}

// applyBuildFlags merges command-line flags into the manifest. Only flags the
// user actually set override bindlefile values.
func applyBuildFlags(cmd *cobra.Command, m *manifest.Manifest) error {
	if buildName != "" {
		m.OutputName = buildName
	}
	if cmd.Flags().Changed("onefile") {
		m.Runtime.OneFile = buildOneFile
	}
	if cmd.Flags().Changed("windowed") {
		m.Runtime.Console = !buildWindowed
	}
	if cmd.Flags().Changed("debug") {
		m.Runtime.Debug = buildDebug
	}
	if cmd.Flags().Changed("strip") {
		m.Runtime.Strip = buildStrip
	}
	if cmd.Flags().Changed("no-compress") {
		m.Runtime.Compress = !buildNoCompress
	}
	if buildTempDir != "" {
		m.Runtime.TempDir = manifest.TempDirStrategy(buildTempDir)
	}

	m.SearchPaths = append(m.SearchPaths, buildPaths...)
	m.HiddenImports = append(m.HiddenImports, buildHiddenImports...)
	m.Excludes = append(m.Excludes, buildExcludes...)

	for _, spec := range buildAddData {
		src, dest, err := manifest.ParseAddSpec(spec)
		if err != nil {
			return fmt.Errorf("--add-data: %w", err)
		}
		m.Datas = append(m.Datas, manifest.DataResource{SourceGlob: src, DestDir: dest})
	}
	for _, spec := range buildAddBinary {
		src, dest, err := manifest.ParseAddSpec(spec)
		if err != nil {
			return fmt.Errorf("--add-binary: %w", err)
		}
		m.Binaries = append(m.Binaries, manifest.BinaryDependency{SourcePath: src, DestDir: dest})
	}

	return nil
}

// resolveWithCache reuses the cached resolution when the manifest and every
// fingerprinted input are unchanged, and re-resolves otherwise.
func resolveWithCache(logger *log.Logger, cache *buildcache.Cache, m *manifest.Manifest) (*resolve.Resolution, error) {
	hash, err := buildcache.ManifestHash(m)
	if err != nil {
		return nil, err
	}

	if snap, loadErr := cache.Load(); loadErr == nil && snap != nil && snap.Fresh(hash) {
		logger.Debug("reusing cached resolution", "modules", len(snap.Modules))
		return resolve.Rehydrate(m, snap.ModuleRecords(), snap.DiagnosticRecords())
	}

	res, err := resolve.Resolve(m)
	if err != nil {
		return nil, err
	}

	snap, err := buildcache.NewSnapshot(hash, res)
	if err == nil {
		err = cache.Store(snap)
	}
	if err != nil {
		// A broken cache never fails the build; the next run re-resolves.
		logger.Warn("failed to update build cache", "err", err)
	}

	return res, nil
}

// newBuildLogger builds the stderr logger used for build progress and
// resolver diagnostics.
func newBuildLogger() *log.Logger {
	logger := log.New(os.Stderr)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// decorateManifestError attaches suggestions to pre-pipeline validation
// failures.
func decorateManifestError(err error) error {
	switch {
	case errors.Is(err, manifest.ErrReservedOutputName):
		renderIssueCard(issue.OutputNameReservedId)
		return issue.NewErrorContext().
			WithOperation("validate build manifest").
			WithSuggestion("Pick a different artifact name via --name or the 'name' field").
			Wrap(err).
			BuildError()
	case errors.Is(err, manifest.ErrInvalidTempDirStrategy):
		return issue.NewErrorContext().
			WithOperation("validate build manifest").
			WithSuggestion("Valid tempdir strategies are 'system' and 'user-cache'").
			Wrap(err).
			BuildError()
	default:
		return err
	}
}

// decorateResolveError attaches suggestions to fatal resolution failures.
func decorateResolveError(err error) error {
	switch {
	case errors.Is(err, resolve.ErrEntryScriptNotFound):
		renderIssueCard(issue.EntryScriptNotFoundId)
		return issue.NewErrorContext().
			WithOperation("resolve dependencies").
			WithSuggestion("Check the entry script path in the bindlefile or command line").
			Wrap(err).
			BuildError()
	case errors.Is(err, resolve.ErrBinaryMissing):
		renderIssueCard(issue.BinaryNotFoundId)
		return issue.NewErrorContext().
			WithOperation("resolve dependencies").
			WithSuggestion("Check the binary's source path; declared binaries must exist at build time").
			WithSuggestion("Remove the entry from 'binaries' if the library is no longer needed").
			Wrap(err).
			BuildError()
	default:
		return err
	}
}

// decorateAssembleError attaches suggestions to assembly failures.
func decorateAssembleError(err error) error {
	if errors.Is(err, assemble.ErrArchMismatch) {
		renderIssueCard(issue.ArchMismatchId)
		return issue.NewErrorContext().
			WithOperation("assemble artifact").
			WithSuggestion("Bundle binaries built for the host architecture").
			WithSuggestion("Cross-architecture bundling is not supported").
			Wrap(err).
			BuildError()
	}
	if errors.Is(err, assemble.ErrAssemblyFailed) {
		renderIssueCard(issue.AssemblyFailedId)
	}
	return err
}

// issueForDiagnostic maps resolver diagnostic codes onto their catalog cards.
// Codes without a card render as plain warnings only.
func issueForDiagnostic(code string) (issue.Id, bool) {
	switch code {
	case resolve.CodeDataGlobEmpty:
		return issue.DataGlobEmptyId, true
	case resolve.CodeHiddenImportUnresolved:
		return issue.HiddenImportUnresolvedId, true
	default:
		return 0, false
	}
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
