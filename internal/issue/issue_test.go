// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	// Verify all IDs are unique
	ids := []Id{
		BindlefileNotFoundId,
		BindlefileParseErrorId,
		EntryScriptNotFoundId,
		BinaryNotFoundId,
		DataGlobEmptyId,
		HiddenImportUnresolvedId,
		ArchMismatchId,
		AssemblyFailedId,
		ConfigLoadFailedId,
		ArchiveCorruptId,
		OutputNameReservedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	// Verify IDs start at 1 (iota + 1)
	if BindlefileNotFoundId != 1 {
		t.Errorf("BindlefileNotFoundId = %d, want 1", BindlefileNotFoundId)
	}
}

func TestGet_AllIdsRegistered(t *testing.T) {
	ids := []Id{
		BindlefileNotFoundId,
		BindlefileParseErrorId,
		EntryScriptNotFoundId,
		BinaryNotFoundId,
		DataGlobEmptyId,
		HiddenImportUnresolvedId,
		ArchMismatchId,
		AssemblyFailedId,
		ConfigLoadFailedId,
		ArchiveCorruptId,
		OutputNameReservedId,
	}

	for _, id := range ids {
		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil; issue is missing from the registry", id)
		}
	}
}

func TestIssue_Id(t *testing.T) {
	issue := Get(BinaryNotFoundId)
	if issue == nil {
		t.Fatal("Get(BinaryNotFoundId) returned nil")
	}

	if issue.Id() != BinaryNotFoundId {
		t.Errorf("issue.Id() = %d, want %d", issue.Id(), BinaryNotFoundId)
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(BindlefileNotFoundId)
	if issue == nil {
		t.Fatal("Get(BindlefileNotFoundId) returned nil")
	}

	msg := issue.MarkdownMsg()
	if msg == "" {
		t.Error("MarkdownMsg() returned empty string")
	}

	if !strings.Contains(string(msg), "No bindlefile found") {
		t.Error("MarkdownMsg() should contain 'No bindlefile found'")
	}
}

func TestIssue_Render(t *testing.T) {
	// Swap the renderer to avoid terminal detection in tests.
	origRender := render
	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}
	defer func() { render = origRender }()

	issue := Get(ArchMismatchId)
	if issue == nil {
		t.Fatal("Get(ArchMismatchId) returned nil")
	}

	out, err := issue.Render("dark")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "architecture mismatch") {
		t.Errorf("rendered output missing expected content, got: %q", out)
	}
}

func TestValues(t *testing.T) {
	values := Values()
	if len(values) != 11 {
		t.Errorf("Values() returned %d issues, want 11", len(values))
	}
	for _, v := range values {
		if v == nil {
			t.Error("Values() contains a nil issue")
		}
	}
}
