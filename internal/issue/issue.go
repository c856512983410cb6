// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	BindlefileNotFoundId Id = iota + 1
	BindlefileParseErrorId
	EntryScriptNotFoundId
	BinaryNotFoundId
	DataGlobEmptyId
	HiddenImportUnresolvedId
	ArchMismatchId
	AssemblyFailedId
	ConfigLoadFailedId
	ArchiveCorruptId
	OutputNameReservedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	bindlefileNotFoundIssue = &Issue{
		id: BindlefileNotFoundId,
		mdMsg: `
# No bindlefile found!

We searched for a bindlefile but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. The path given with --manifest
2. bindlefile.cue in the current directory

## Things you can try:
- Create a bindlefile in your current directory:
~~~
$ bindle init
~~~

- Or pass the manifest entirely through flags:
~~~
$ bindle build app/main.py --name app --onefile
~~~`,
	}

	bindlefileParseErrorIssue = &Issue{
		id: BindlefileParseErrorId,
		mdMsg: `
# Failed to parse bindlefile!

Your bindlefile contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- Invalid values for known fields
- Missing required fields (entry)

## Things you can try:
- Check the error message above for the specific field path
- Validate your CUE syntax using the cue command-line tool
- Run with verbose mode for more details:
~~~
$ bindle --verbose build
~~~

## Example of a valid bindlefile:
~~~cue
entry: "app/main.py"
name:  "app"

binaries: [
  {source: "/usr/lib/libvosk.so", dest: "lib"},
]

datas: [
  {source: "models/*", dest: "models"},
]

hidden_imports: ["pkg.plugin"]
runtime: {onefile: true, console: true}
~~~`,
	}

	entryScriptNotFoundIssue = &Issue{
		id: EntryScriptNotFoundId,
		mdMsg: `
# Entry script not found!

The entry script named in the manifest does not exist or is not readable.

## Things you can try:
- Check for typos in the entry path
- Run bindle from the project root, or add search paths:
~~~
$ bindle build app/main.py --paths src --paths vendor
~~~`,
	}

	binaryNotFoundIssue = &Issue{
		id: BinaryNotFoundId,
		mdMsg: `
# Declared binary not found!

A binary dependency declared with --add-binary (or in the bindlefile) does
not exist on disk. Binaries are verified before anything is packed, so no
artifact was produced.

## Things you can try:
- Check the source path of each --add-binary entry
- Remember the format is SRC:DEST where SRC is a path on the build machine:
~~~
$ bindle build main.py --add-binary /usr/lib/libvosk.so:lib
~~~`,
	}

	dataGlobEmptyIssue = &Issue{
		id: DataGlobEmptyId,
		mdMsg: `
# Data pattern matched nothing

A data resource glob expanded to zero files. The build still succeeds, but
the files will be missing from the artifact and the application may fail at
runtime when it looks for them.

## Things you can try:
- Check the glob against the build machine's filesystem:
~~~
$ ls models/*
~~~
- Quote the pattern so your shell does not expand it first`,
	}

	hiddenImportUnresolvedIssue = &Issue{
		id: HiddenImportUnresolvedId,
		mdMsg: `
# Hidden import could not be resolved

A module named with --hidden-import was not found on any search path. It is
recorded in the manifest but its source could not be packed, so the shipped
application may fail when it tries to load the module at runtime.

## Things you can try:
- Check the spelling of the module name
- Add the directory that contains the module:
~~~
$ bindle build main.py --paths vendor --hidden-import pkg.plugin
~~~`,
	}

	archMismatchIssue = &Issue{
		id: ArchMismatchId,
		mdMsg: `
# Binary architecture mismatch!

A declared binary dependency was built for a different CPU architecture than
the build host. The assembled artifact would not run, so the build was
aborted.

## Things you can try:
- Point --add-binary at a library built for this machine
- Build on a host that matches the target architecture
  (cross-compilation is not supported)`,
	}

	assemblyFailedIssue = &Issue{
		id: AssemblyFailedId,
		mdMsg: `
# Failed to assemble the artifact!

Writing the output artifact failed partway through. Any partial output has
been removed; do not ship a partially written artifact.

## Common causes:
- Insufficient disk space in the output directory
- No write permission for --distpath
- The output path is held open by another process

## Things you can try:
- Check free space and permissions on the output directory
- Pick a different output directory:
~~~
$ bindle build main.py --distpath /tmp/dist
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file exists but could not be loaded.

## Things you can try:
- Check the CUE syntax of your config file
- Run with --config pointing at a known-good file
- Temporarily move the config file away to fall back to defaults`,
	}

	archiveCorruptIssue = &Issue{
		id: ArchiveCorruptId,
		mdMsg: `
# Archive is corrupt or not a bindle archive

The file passed to 'bindle inspect' does not carry a valid archive header.

## Things you can try:
- Check you are pointing at the archive, not the final executable
- Rebuild the artifact; a build interrupted mid-write leaves an invalid file`,
	}

	outputNameReservedIssue = &Issue{
		id: OutputNameReservedId,
		mdMsg: `
# Output name is reserved

The requested output name is a Windows reserved device name (CON, PRN,
AUX, NUL, COM1-9, LPT1-9) and would produce an artifact that cannot be
copied to a Windows machine.

## Things you can try:
- Pick a different name:
~~~
$ bindle build main.py --name myapp
~~~`,
	}

	issues = map[Id]*Issue{
		bindlefileNotFoundIssue.Id():     bindlefileNotFoundIssue,
		bindlefileParseErrorIssue.Id():   bindlefileParseErrorIssue,
		entryScriptNotFoundIssue.Id():    entryScriptNotFoundIssue,
		binaryNotFoundIssue.Id():         binaryNotFoundIssue,
		dataGlobEmptyIssue.Id():          dataGlobEmptyIssue,
		hiddenImportUnresolvedIssue.Id(): hiddenImportUnresolvedIssue,
		archMismatchIssue.Id():           archMismatchIssue,
		assemblyFailedIssue.Id():         assemblyFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		archiveCorruptIssue.Id():         archiveCorruptIssue,
		outputNameReservedIssue.Id():     outputNameReservedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
