package runtime

import "testing"

// TestRenderAttr_BooleanRule verifies the three-way attribute rule: true
// renders bare presence, false and nil render nothing, anything else renders
// an escaped name="value" pair.
func TestRenderAttr_BooleanRule(t *testing.T) {
	if got := RenderAttr("disabled", true); got != " disabled" {
		t.Errorf("RenderAttr(true) = %q, want \" disabled\"", got)
	}
	if got := RenderAttr("disabled", false); got != "" {
		t.Errorf("RenderAttr(false) = %q, want empty", got)
	}
	if got := RenderAttr("disabled", nil); got != "" {
		t.Errorf("RenderAttr(nil) = %q, want empty", got)
	}
	if got := RenderAttr("title", `a "b"`); got != ` title="a &quot;b&quot;"` {
		t.Errorf("RenderAttr(string) = %q", got)
	}
	if got := RenderAttr("tabindex", 3); got != ` tabindex="3"` {
		t.Errorf("RenderAttr(int) = %q", got)
	}
}

// TestRenderClass_FlattensStringsListsAndMaps verifies the class value
// builder over its accepted shapes, including nested lists and conditional
// map entries.
func TestRenderClass_FlattensStringsListsAndMaps(t *testing.T) {
	got := RenderClass("btn", []string{"large", "wide"}, nil, []any{"x"})
	if got != "btn large wide x" {
		t.Errorf("RenderClass(lists) = %q", got)
	}

	got = RenderClass(map[string]any{"active": true, "hidden": false, "muted": 1})
	if got != "active muted" {
		t.Errorf("RenderClass(map) = %q, want truthy keys in sorted order", got)
	}
}

// TestRenderStyle_MapRendersSortedDeclarations verifies deterministic style
// output: keys sorted, nil entries skipped, strings passed through.
func TestRenderStyle_MapRendersSortedDeclarations(t *testing.T) {
	got := RenderStyle(map[string]any{"color": "red", "border": nil, "width": "10px"})
	if got != "color:red;width:10px" {
		t.Errorf("RenderStyle(map) = %q", got)
	}
	if got := RenderStyle("margin:0"); got != "margin:0" {
		t.Errorf("RenderStyle(string) = %q", got)
	}
	if got := RenderStyle(nil); got != "" {
		t.Errorf("RenderStyle(nil) = %q, want empty", got)
	}
}

// TestRenderData_ExpandsPrefixedAttributes verifies data-* expansion with
// sorted keys, escaping, and nil skipping.
func TestRenderData_ExpandsPrefixedAttributes(t *testing.T) {
	got := RenderData(map[string]any{"id": 7, "label": `a"b`, "gone": nil})
	want := ` data-id="7" data-label="a&quot;b"`
	if got != want {
		t.Errorf("RenderData() = %q, want %q", got, want)
	}
}

// TestRenderAria_BooleansRenderAsWords verifies the ARIA exception to the
// boolean attribute rule: aria booleans render as the strings "true" and
// "false" instead of presence and absence.
func TestRenderAria_BooleansRenderAsWords(t *testing.T) {
	got := RenderAria(map[string]any{"hidden": true, "expanded": false, "label": "menu"})
	want := ` aria-expanded="false" aria-hidden="true" aria-label="menu"`
	if got != want {
		t.Errorf("RenderAria() = %q, want %q", got, want)
	}
}

// TestSpreadAttrs_EachEntryFollowsTheAttributeRule verifies that spread
// entries render independently: booleans use presence, values escape, keys
// sort.
func TestSpreadAttrs_EachEntryFollowsTheAttributeRule(t *testing.T) {
	got := SpreadAttrs(map[string]any{
		"disabled": true,
		"hidden":   false,
		"title":    "a<b",
	})
	want := ` disabled title="a&lt;b"`
	if got != want {
		t.Errorf("SpreadAttrs() = %q, want %q", got, want)
	}
	if got := SpreadAttrs(nil); got != "" {
		t.Errorf("SpreadAttrs(nil) = %q, want empty", got)
	}
}

// TestSpreadAttrs_TypedMapsConvert verifies that maps with concrete value
// types spread the same way as map[string]any.
func TestSpreadAttrs_TypedMapsConvert(t *testing.T) {
	got := SpreadAttrs(map[string]string{"b": "2", "a": "1"})
	want := ` a="1" b="2"`
	if got != want {
		t.Errorf("SpreadAttrs(map[string]string) = %q, want %q", got, want)
	}
}
