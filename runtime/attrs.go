package runtime

import (
	"reflect"
	"sort"
	"strings"
)

// RenderAttr renders a single HTML attribute with a leading space.
// A true value renders just the attribute name, false or nil renders
// nothing, and everything else renders name="escaped value".
func RenderAttr(name string, v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return " " + name
		}
		return ""
	}
	if v == nil {
		return ""
	}
	return " " + name + `="` + EscapeHTML(v) + `"`
}

// RenderClass builds a class attribute value from strings, nested lists, and
// maps whose truthy entries contribute their keys. Map keys render in sorted
// order so output is deterministic.
func RenderClass(values ...any) string {
	var classes []string
	queue := append([]any{}, values...)

	for len(queue) > 0 {
		value := queue[0]
		queue = queue[1:]
		if value == nil {
			continue
		}
		switch t := value.(type) {
		case string:
			if t != "" {
				classes = append(classes, t)
			}
		case Safe:
			if t != "" {
				classes = append(classes, string(t))
			}
		case []string:
			items := make([]any, len(t))
			for i, s := range t {
				items[i] = s
			}
			queue = append(items, queue...)
		case []any:
			queue = append(append([]any{}, t...), queue...)
		default:
			if m, ok := asStringMap(t); ok {
				for _, k := range sortedKeys(m) {
					if Truthy(m[k]) {
						classes = append(classes, k)
					}
				}
			} else if Truthy(t) {
				classes = append(classes, Stringify(t))
			}
		}
	}

	return strings.Join(classes, " ")
}

// RenderStyle builds a style attribute value. Strings pass through; maps
// render as "key:value;key:value" in sorted key order, skipping nil values.
func RenderStyle(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case Safe:
		return string(t)
	}
	if m, ok := asStringMap(v); ok {
		var parts []string
		for _, k := range sortedKeys(m) {
			if m[k] == nil {
				continue
			}
			parts = append(parts, k+":"+Stringify(m[k]))
		}
		return strings.Join(parts, ";")
	}
	if Truthy(v) {
		return Stringify(v)
	}
	return ""
}

// RenderData expands a mapping into data-* attributes, each with a leading
// space. Nil entries are skipped.
func RenderData(v any) string {
	m, ok := asStringMap(v)
	if !ok || len(m) == 0 {
		return ""
	}
	var b strings.Builder
	for _, k := range sortedKeys(m) {
		if m[k] == nil {
			continue
		}
		b.WriteString(` data-` + k + `="` + EscapeHTML(m[k]) + `"`)
	}
	return b.String()
}

// RenderAria expands a mapping into aria-* attributes. Boolean values render
// as the strings "true" and "false" per the ARIA spec; nil entries are
// skipped.
func RenderAria(v any) string {
	m, ok := asStringMap(v)
	if !ok || len(m) == 0 {
		return ""
	}
	var b strings.Builder
	for _, k := range sortedKeys(m) {
		val := m[k]
		if val == nil {
			continue
		}
		if bv, isBool := val.(bool); isBool {
			if bv {
				val = "true"
			} else {
				val = "false"
			}
		}
		b.WriteString(` aria-` + k + `="` + EscapeHTML(val) + `"`)
	}
	return b.String()
}

// SpreadAttrs expands a mapping into attributes, each entry rendered through
// the same boolean/escape rule as RenderAttr. Keys render in sorted order.
func SpreadAttrs(v any) string {
	m, ok := asStringMap(v)
	if !ok || len(m) == 0 {
		return ""
	}
	var b strings.Builder
	for _, k := range sortedKeys(m) {
		b.WriteString(RenderAttr(k, m[k]))
	}
	return b.String()
}

// asStringMap converts any map with string keys to map[string]any.
func asStringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
