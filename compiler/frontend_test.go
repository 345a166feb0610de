package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseSource(t *testing.T, src string, known map[string]bool) *Template {
	t.Helper()
	tpl, err := ParseTemplate("t", "t.hyper", src, known)
	if err != nil {
		t.Fatalf("ParseTemplate failed: %v", err)
	}
	return tpl
}

// TestParse_TextInterpolationSplitsSegments verifies literal/expression
// segmentation of text runs, including brace escaping.
func TestParse_TextInterpolationSplitsSegments(t *testing.T) {
	tpl := parseSource(t, `<p>Hello, {name}! {{literal}}</p>`, nil)

	p := tpl.Root.Children[0]
	if p.Kind != ElementNode || p.Tag != "p" {
		t.Fatalf("first child = %v <%s>", p.Kind, p.Tag)
	}
	text := p.Children[0]
	want := []Segment{
		LitSegment("Hello, "),
		ExprSegment(0),
		LitSegment("! {literal}"),
	}
	if diff := cmp.Diff(want, text.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	if tpl.Exprs[0].Text != "name" {
		t.Errorf("captured expression = %q, want \"name\"", tpl.Exprs[0].Text)
	}
}

// TestParse_ExpressionBracesAreDepthCounted verifies that object literals
// and quoted braces inside an expression do not end it early.
func TestParse_ExpressionBracesAreDepthCounted(t *testing.T) {
	tpl := parseSource(t, `<p>{ {'a': 1}['a'] }{'}'}</p>`, nil)
	if len(tpl.Exprs) != 2 {
		t.Fatalf("captured %d expressions, want 2: %+v", len(tpl.Exprs), tpl.Exprs)
	}
	if tpl.Exprs[0].Text != `{'a': 1}['a']` {
		t.Errorf("first expression = %q", tpl.Exprs[0].Text)
	}
	if tpl.Exprs[1].Text != `'}'` {
		t.Errorf("second expression = %q", tpl.Exprs[1].Text)
	}
}

// TestParse_UnterminatedExpressionFails verifies the unbalanced-brace error.
func TestParse_UnterminatedExpressionFails(t *testing.T) {
	_, err := ParseTemplate("t", "t.hyper", `<p>{oops</p>`, nil)
	if err == nil {
		t.Fatal("ParseTemplate accepted an unterminated expression")
	}
}

// TestParse_ConditionalChainFoldsSiblings verifies that :if/:else-if/:else
// siblings collapse into one conditional node with ordered branches.
func TestParse_ConditionalChainFoldsSiblings(t *testing.T) {
	src := `<p :if="{a}">A</p>
<p :else-if="{b}">B</p>
<p :else>C</p>`
	tpl := parseSource(t, src, nil)

	if len(tpl.Root.Children) != 1 {
		t.Fatalf("root has %d children, want 1 folded conditional", len(tpl.Root.Children))
	}
	cond := tpl.Root.Children[0]
	if cond.Kind != ConditionalNode {
		t.Fatalf("node kind = %v, want conditional", cond.Kind)
	}
	if len(cond.Branches) != 3 {
		t.Fatalf("branches = %d, want 3", len(cond.Branches))
	}
	if cond.Branches[2].Cond != NoExpr {
		t.Errorf("last branch Cond = %d, want NoExpr", cond.Branches[2].Cond)
	}
}

// TestParse_ForDirectiveBindings verifies :for spec parsing with and without
// the index binding.
func TestParse_ForDirectiveBindings(t *testing.T) {
	tpl := parseSource(t, `<li :for="item, i in {items}">x</li>`, nil)
	loop := tpl.Root.Children[0]
	if loop.Kind != LoopNode || loop.ValueVar != "item" || loop.IndexVar != "i" {
		t.Errorf("loop = %+v", loop)
	}

	tpl = parseSource(t, `<li :for="item in {items}">x</li>`, nil)
	loop = tpl.Root.Children[0]
	if loop.ValueVar != "item" || loop.IndexVar != "" {
		t.Errorf("loop without index = %+v", loop)
	}

	if _, err := ParseTemplate("t", "t.hyper", `<li :for="items">x</li>`, nil); err == nil {
		t.Error("ParseTemplate accepted a :for spec without 'in'")
	}
}

// TestParse_ForIterableStripsInterpolationBraces verifies that an iterable
// written interpolation-style captures the bare expression text: the braces
// are template syntax, not part of the expression, and leaving them in makes
// every such loop fail to compile.
func TestParse_ForIterableStripsInterpolationBraces(t *testing.T) {
	tpl := parseSource(t, `<li :for="item in {items}">{item}</li>`, nil)
	loop := tpl.Root.Children[0]
	if got := tpl.Exprs[loop.Iterable].Text; got != "items" {
		t.Errorf("iterable expression = %q, want \"items\"", got)
	}

	comp, err := Compile(tpl, nil, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out, err := comp.Render(context.Background(), Args{Props: map[string]any{
		"items": []string{"a", "b"},
	}})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != `<li>a</li><li>b</li>` {
		t.Errorf("output = %q", out)
	}
}

// TestParse_StrayBranchDirectiveNamesItself verifies that a branch directive
// with no preceding :if is reported under its own name.
func TestParse_StrayBranchDirectiveNamesItself(t *testing.T) {
	_, err := ParseTemplate("t", "t.hyper", `<p :else-if="{x}">x</p>`, nil)
	if err == nil {
		t.Fatal("ParseTemplate accepted a stray :else-if")
	}
	if !strings.Contains(err.Error(), ":else-if") {
		t.Errorf("stray :else-if error = %q, want the directive named", err)
	}

	_, err = ParseTemplate("t", "t.hyper", `<p :else>x</p>`, nil)
	if err == nil {
		t.Fatal("ParseTemplate accepted a stray :else")
	}
	if !strings.Contains(err.Error(), ":else without") {
		t.Errorf("stray :else error = %q, want the directive named", err)
	}
}

// TestParse_KnownTagBecomesComponent verifies component detection by name
// set and that template children with slot attributes become named slots.
func TestParse_KnownTagBecomesComponent(t *testing.T) {
	src := `<card><template slot="header">H</template><p>body</p></card>`
	tpl := parseSource(t, src, map[string]bool{"card": true})

	comp := tpl.Root.Children[0]
	if comp.Kind != ComponentNode {
		t.Fatalf("node kind = %v, want component", comp.Kind)
	}
	if tpl.Exprs[comp.Target].Text != `"card"` {
		t.Errorf("target expression = %q", tpl.Exprs[comp.Target].Text)
	}
	if len(comp.Slots) != 1 || len(comp.Slots["header"]) == 0 {
		t.Errorf("slots = %+v", comp.Slots)
	}
	if len(comp.Children) != 1 || comp.Children[0].Tag != "p" {
		t.Errorf("default children = %+v", comp.Children)
	}
}

// TestParse_TemplateTagDissolves verifies <template> hosts contribute their
// children without a wrapper element.
func TestParse_TemplateTagDissolves(t *testing.T) {
	tpl := parseSource(t, `<template><p>a</p><p>b</p></template>`, nil)
	frag := tpl.Root.Children[0]
	if frag.Kind != FragmentNode {
		t.Fatalf("node kind = %v, want fragment", frag.Kind)
	}
	if len(frag.Children) != 2 {
		t.Errorf("fragment children = %d, want 2", len(frag.Children))
	}
}

// TestParse_SlotElement verifies slot placeholders with names and fallback
// content.
func TestParse_SlotElement(t *testing.T) {
	tpl := parseSource(t, `<slot name="top"><b>fallback</b></slot>`, nil)
	slot := tpl.Root.Children[0]
	if slot.Kind != SlotNode || slot.SlotName != "top" {
		t.Fatalf("slot = %+v", slot)
	}
	if len(slot.Children) != 1 {
		t.Errorf("fallback children = %d, want 1", len(slot.Children))
	}
}

// TestParse_UnclosedTagFails verifies tag balance errors carry position
// context through the compile error wrapper.
func TestParse_UnclosedTagFails(t *testing.T) {
	if _, err := ParseTemplate("t", "t.hyper", `<div><p>x</div>`, nil); err == nil {
		t.Error("ParseTemplate accepted mismatched tags")
	}
	if _, err := ParseTemplate("t", "t.hyper", `<div>x`, nil); err == nil {
		t.Error("ParseTemplate accepted an unclosed tag")
	}
}

// TestDeriveSlotDecls_FindsChildrenAndNamedSlots verifies the declaration
// synthesis used by directory loading.
func TestDeriveSlotDecls_FindsChildrenAndNamedSlots(t *testing.T) {
	tpl := parseSource(t, `<div><slot></slot><slot name="b"></slot><slot name="a"></slot></div>`, nil)
	decls := deriveSlotDecls(tpl)
	want := []PropDecl{
		{Name: "children"},
		{Name: "slot:a"},
		{Name: "slot:b"},
	}
	if diff := cmp.Diff(want, decls); diff != "" {
		t.Errorf("decls mismatch (-want +got):\n%s", diff)
	}
}
