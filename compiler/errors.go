// Structured error types surfaced across the compiler boundary.
package compiler

import (
	"fmt"
	"strings"
)

// ComponentCompileError wraps any compile-time failure with the identity of
// the component that failed, so one broken component in a multi-component
// application stays diagnosable on its own. Compilation never returns a
// partial artifact alongside an error.
type ComponentCompileError struct {
	Component string
	File      string
	Line      int
	Cause     error
}

func (e *ComponentCompileError) Error() string {
	where := e.Component
	if e.File != "" {
		where = e.File
	}
	if e.Line > 0 {
		return fmt.Sprintf("compile error in %s:%d: %v", where, e.Line, e.Cause)
	}
	return fmt.Sprintf("compile error in %s: %v", where, e.Cause)
}

func (e *ComponentCompileError) Unwrap() error { return e.Cause }

// PropOrderError reports a malformed prop declaration: a required positional
// prop after a defaulted one, or conflicting names. The full expected-prop
// listing is carried to aid the template author.
type PropOrderError struct {
	Prop     string
	Message  string
	Expected []string
}

func (e *PropOrderError) Error() string {
	if len(e.Expected) > 0 {
		return fmt.Sprintf("prop error for %q: %s (declared props: [%s])",
			e.Prop, e.Message, strings.Join(e.Expected, ", "))
	}
	return fmt.Sprintf("prop error for %q: %s", e.Prop, e.Message)
}

// UnknownNodeError reports a node variant outside the tree contract. The
// upstream parser is required to emit only known variants, so this is always
// fatal and never recovered.
type UnknownNodeError struct {
	Kind NodeKind
	Line int
}

func (e *UnknownNodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("unknown node kind %s at line %d", e.Kind, e.Line)
	}
	return fmt.Sprintf("unknown node kind %s", e.Kind)
}

// ComponentNotFoundError reports a component invocation whose target name is
// not present in the registry.
type ComponentNotFoundError struct {
	Name string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q not found", e.Name)
}

// SlotError reports a caller supplying a named slot the component never
// declared.
type SlotError struct {
	Component string
	Slot      string
	Declared  []string
}

func (e *SlotError) Error() string {
	if len(e.Declared) == 0 {
		return fmt.Sprintf("component %q declares no named slots, got %q", e.Component, e.Slot)
	}
	return fmt.Sprintf("component %q has no slot %q (declared slots: [%s])",
		e.Component, e.Slot, strings.Join(e.Declared, ", "))
}

// EvalError reports an expression failure during invocation of the compiled
// procedure, carrying the original expression text.
type EvalError struct {
	Expression string
	Line       int
	Cause      error
}

func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("eval error in {%s} (line %d): %v", e.Expression, e.Line, e.Cause)
	}
	return fmt.Sprintf("eval error in {%s}: %v", e.Expression, e.Cause)
}

func (e *EvalError) Unwrap() error { return e.Cause }
