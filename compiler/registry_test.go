package compiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestRegistry_RegisterAndResolveIsCaseInsensitive verifies lookups succeed
// regardless of the case the invocation used, since tokenized tag names are
// always lowercase.
func TestRegistry_RegisterAndResolveIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	comp := compileSource(t, `<p>x</p>`, nil, nil)
	comp.Name = "UserCard"
	reg.Register(comp)

	for _, name := range []string{"UserCard", "usercard", "USERCARD"} {
		got, err := reg.Resolve(name)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", name, err)
			continue
		}
		if got != comp {
			t.Errorf("Resolve(%q) returned a different component", name)
		}
	}
}

// TestRegistry_RegisterLogsArtifactID verifies registration diagnostics
// carry the artifact's identity so two compilations of the same name are
// distinguishable in logs.
func TestRegistry_RegisterLogsArtifactID(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(zerolog.New(&buf))

	comp := compileSource(t, `<p>x</p>`, nil, nil)
	reg.Register(comp)

	if !strings.Contains(buf.String(), comp.ID.String()) {
		t.Errorf("register log %q missing artifact id %s", buf.String(), comp.ID)
	}
}

// TestRegistry_ResolveUnknownFails verifies the structured not-found error.
func TestRegistry_ResolveUnknownFails(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	_, err := reg.Resolve("ghost")
	var nferr *ComponentNotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Resolve = %v, want *ComponentNotFoundError", err)
	}
	if nferr.Name != "ghost" {
		t.Errorf("error names %q, want \"ghost\"", nferr.Name)
	}
}

// TestRegistry_LoadDirCompilesAndCrossReferences verifies directory loading:
// every *.hyper file compiles, components see each other by file name, and
// non-template files are ignored.
func TestRegistry_LoadDirCompilesAndCrossReferences(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("greeting.hyper", `<p>Hello, {name}!</p>`)
	write("page.hyper", `<div><greeting name="{who}"></greeting></div>`)
	write("notes.txt", "not a template")

	reg := NewRegistry(zerolog.Nop())
	if err := reg.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	names := reg.Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want the two templates", names)
	}

	page, err := reg.Resolve("page")
	if err != nil {
		t.Fatalf("Resolve(page) failed: %v", err)
	}
	got, err := page.Render(context.Background(), Args{Props: map[string]any{"who": "Ada"}})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != `<div><p>Hello, Ada!</p></div>` {
		t.Errorf("output = %q", got)
	}
}

// TestRegistry_LoadDirSurfacesCompileErrors verifies that a broken template
// fails the whole load with the component identity attached.
func TestRegistry_LoadDirSurfacesCompileErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.hyper"), []byte(`<p>{1 +}</p>`), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(zerolog.Nop())
	err := reg.LoadDir(dir)
	var cerr *ComponentCompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("LoadDir = %v, want *ComponentCompileError", err)
	}
	if cerr.Component != "bad" {
		t.Errorf("error names component %q, want \"bad\"", cerr.Component)
	}
}
