package compiler

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"

	"github.com/scriptogre/hyper/runtime"
)

// Args carries a single invocation's inputs: the prop values, the caller's
// default slot content, and any named slot content. Slot content is trusted
// markup rendered by the caller.
type Args struct {
	Props    map[string]any
	Children runtime.Safe
	Slots    map[string]runtime.Safe
}

// CompileOptions configures a single compilation.
type CompileOptions struct {
	// Registry resolves component names referenced by the template. May be
	// nil for templates that invoke no components by name.
	Registry *Registry

	// Async forces the compiled artifact into asynchronous mode even when
	// the template itself contains no asynchronous construct.
	Async bool
}

// Component is an immutable compiled template artifact. It is safe for
// concurrent use: every render builds its own buffer and scope.
type Component struct {
	Name  string
	File  string
	ID    uuid.UUID
	Props *PropTable
	Async bool

	source   string
	program  program
	exprs    []Expression
	registry *Registry
}

// Compile turns a parsed template and its prop declarations into a render
// artifact. Every captured expression is compiled exactly once here; renders
// only evaluate the precompiled programs.
func Compile(tpl *Template, decls []PropDecl, opts CompileOptions) (*Component, error) {
	props, err := ExtractProps(decls)
	if err != nil {
		return nil, &ComponentCompileError{Component: tpl.Name, File: tpl.File, Cause: err}
	}

	if err := validateTree(tpl); err != nil {
		return nil, &ComponentCompileError{Component: tpl.Name, File: tpl.File, Cause: err}
	}

	progs := make([]*vm.Program, len(tpl.Exprs))
	for i, ex := range tpl.Exprs {
		prog, err := expr.Compile(ex.Text, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, &ComponentCompileError{
				Component: tpl.Name,
				File:      tpl.File,
				Line:      ex.Line,
				Cause:     fmt.Errorf("expression %q: %w", ex.Text, err),
			}
		}
		progs[i] = prog
	}

	g := &generator{tpl: tpl, props: props, progs: progs}
	prog, source, err := g.generate()
	if err != nil {
		return nil, &ComponentCompileError{Component: tpl.Name, File: tpl.File, Cause: err}
	}

	return &Component{
		Name:     tpl.Name,
		File:     tpl.File,
		ID:       uuid.New(),
		Props:    props,
		Async:    opts.Async || g.async,
		source:   source,
		program:  prog,
		exprs:    tpl.Exprs,
		registry: opts.Registry,
	}, nil
}

// Source returns the generated render procedure as readable source text. It
// is a diagnostics side channel; rendering never consults it.
func (c *Component) Source() string {
	return c.source
}

// Render executes the compiled program and returns the assembled markup.
func (c *Component) Render(ctx context.Context, args Args) (string, error) {
	return c.renderToString(ctx, args)
}

// RenderStream executes the compiled program, sending each fragment to sink
// as it is produced. The sink is closed when rendering finishes. A canceled
// context abandons the render mid-stream with the context's error.
func (c *Component) RenderStream(ctx context.Context, args Args, sink chan<- string) error {
	defer close(sink)
	buf := runtime.NewBuffer(ctx)
	buf.Stream(sink)
	return c.renderInto(ctx, args, buf)
}

func (c *Component) renderToString(ctx context.Context, args Args) (string, error) {
	buf := runtime.NewBuffer(ctx)
	if err := c.renderInto(ctx, args, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Component) renderInto(ctx context.Context, args Args, buf *runtime.Buffer) error {
	for name := range args.Slots {
		if !c.Props.HasSlot(name) {
			return &SlotError{Component: c.Name, Slot: name, Declared: c.Props.SlotParams}
		}
	}

	scope := make(map[string]any, len(c.Props.Props)+len(args.Props)+1)
	for _, p := range c.Props.Props {
		if p.HasDefault {
			scope[p.Name] = p.Default
		}
	}
	for k, v := range args.Props {
		scope[k] = v
	}
	if c.Props.ChildrenParam != "" {
		scope[c.Props.ChildrenParam] = args.Children
	}

	rc := &renderContext{
		ctx:      ctx,
		buf:      buf,
		scope:    scope,
		children: args.Children,
		slots:    args.Slots,
		comp:     c,
	}
	return c.program.run(rc)
}
