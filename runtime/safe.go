// Package runtime contains the helpers that compiled components call while
// rendering: the HTML escaping protocol, the trusted-markup wrapper, and the
// attribute renderers. Every dynamic value a compiled component emits passes
// through exactly one of these functions; there is no second code path.
package runtime

import (
	"fmt"
	"reflect"
	"strings"
)

// Safe is a string marked as trusted markup. Escaping a Safe value is a
// no-op: it is emitted verbatim. Wrapping a string asserts that the caller
// has verified it is safe to emit.
type Safe string

// HTML returns the trusted markup unchanged.
func (s Safe) HTML() string { return string(s) }

// Trust marks a value as safe HTML that will not be escaped. A nil value
// becomes the empty Safe string; an already-trusted value passes through.
func Trust(v any) Safe {
	if v == nil {
		return ""
	}
	if s, ok := v.(Safe); ok {
		return s
	}
	return Safe(Stringify(v))
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// EscapeHTML escapes a value for inclusion in HTML output. Safe values are
// returned verbatim; nil escapes to the empty string.
func EscapeHTML(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(Safe); ok {
		return string(s)
	}
	return htmlEscaper.Replace(Stringify(v))
}

// Stringify converts a value to its output string form without escaping.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case Safe:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Truthy reports whether a value counts as true in a template condition:
// nil, false, zero numbers, empty strings, and empty collections are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case Safe:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint:
		return t != 0
	case uint64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return true
}
