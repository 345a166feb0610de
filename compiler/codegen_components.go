package compiler

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/scriptogre/hyper/runtime"
)

// genComponent emits a component invocation. Children are compiled into
// their own sub-program whose rendered output becomes the callee's default
// slot content; named slot content likewise. Ordinary attributes become the
// callee's props. The callee's output is already-trusted markup and is
// appended verbatim.
func (g *generator) genComponent(gb *genBuf, n *Node) error {
	gb.flush()

	target := g.evalFn(n.Target)

	// Per-attribute prop builders, evaluated in attribute order at render
	// time. Spread entries merge into the prop map individually.
	type propBuilder func(rc *renderContext, props map[string]any) error
	builders := make([]propBuilder, 0, len(n.Attrs))
	for _, attr := range n.Attrs {
		attr := attr
		switch attr.Kind {
		case StaticAttr:
			builders = append(builders, func(rc *renderContext, props map[string]any) error {
				if attr.HasValue {
					props[attr.Name] = attr.Value
				} else {
					props[attr.Name] = true
				}
				return nil
			})
		case InterpolatedAttr:
			eval := g.evalFn(attr.Expr)
			builders = append(builders, func(rc *renderContext, props map[string]any) error {
				v, err := eval(rc)
				if err != nil {
					return err
				}
				props[attr.Name] = v
				return nil
			})
		case TemplatedAttr:
			// A mixed value passed to a component is a plain string value,
			// concatenated without markup escaping; escaping happens if and
			// when the callee emits it.
			evals := make([]func(rc *renderContext) (any, error), len(attr.Segments))
			for i, seg := range attr.Segments {
				if seg.IsExpr {
					evals[i] = g.evalFn(seg.Expr)
				}
			}
			segs := attr.Segments
			builders = append(builders, func(rc *renderContext, props map[string]any) error {
				var b []byte
				for i, seg := range segs {
					if !seg.IsExpr {
						b = append(b, seg.Lit...)
						continue
					}
					v, err := evals[i](rc)
					if err != nil {
						return err
					}
					b = append(b, runtime.Stringify(v)...)
				}
				props[attr.Name] = string(b)
				return nil
			})
		case SpreadAttr:
			eval := g.evalFn(attr.Expr)
			builders = append(builders, func(rc *renderContext, props map[string]any) error {
				v, err := eval(rc)
				if err != nil {
					return err
				}
				m, ok := toStringMap(v)
				if !ok {
					return fmt.Errorf("spread value must be a string-keyed mapping, got %T", v)
				}
				for _, k := range sortedMapKeys(m) {
					props[k] = m[k]
				}
				return nil
			})
		}
	}

	// Compile slot content programs: the default slot from the children and
	// one program per named slot.
	g.src.linef("// <%s>", g.exprText(n.Target))
	var childrenProg program
	if len(n.Children) > 0 {
		g.src.linef("children := capture(func() {")
		g.src.indent++
		var err error
		childrenProg, err = g.genNodes(n.Children)
		if err != nil {
			return err
		}
		g.src.indent--
		g.src.linef("})")
	}

	slotNames := make([]string, 0, len(n.Slots))
	for name := range n.Slots {
		slotNames = append(slotNames, name)
	}
	sort.Strings(slotNames)
	slotProgs := make(map[string]program, len(n.Slots))
	for _, name := range slotNames {
		g.src.linef("slot_%s := capture(func() {", name)
		g.src.indent++
		prog, err := g.genNodes(n.Slots[name])
		if err != nil {
			return err
		}
		g.src.indent--
		g.src.linef("})")
		slotProgs[name] = prog
	}

	g.src.linef("parts = append(parts, call(%s, props, children))", g.exprText(n.Target))
	g.src.linef("// </%s>", g.exprText(n.Target))

	gb.append(func(rc *renderContext) error {
		tv, err := target(rc)
		if err != nil {
			return err
		}
		callee, err := resolveTarget(rc, tv)
		if err != nil {
			return err
		}

		props := make(map[string]any)
		for _, build := range builders {
			if err := build(rc, props); err != nil {
				return err
			}
		}

		// Slot content renders in the caller's scope, before the callee is
		// invoked, and is passed as trusted markup.
		children, err := runSub(rc, childrenProg)
		if err != nil {
			return err
		}
		var slots map[string]runtime.Safe
		if len(slotProgs) > 0 {
			slots = make(map[string]runtime.Safe, len(slotProgs))
			for name, prog := range slotProgs {
				rendered, err := runSub(rc, prog)
				if err != nil {
					return err
				}
				slots[name] = rendered
			}
		}

		out, err := callee.renderToString(rc.ctx, Args{Props: props, Children: children, Slots: slots})
		if err != nil {
			return err
		}
		// Compiled component output is always trusted.
		return rc.buf.Append(out)
	})
	return nil
}

// genSlot emits a slot placeholder: caller-supplied content is inserted as
// trusted markup; otherwise the declared fallback renders.
func (g *generator) genSlot(gb *genBuf, n *Node) error {
	gb.flush()

	slotVar := "children"
	if n.SlotName != "" {
		slotVar = "slot_" + n.SlotName
	}
	g.src.linef(`if %s != "" {`, slotVar)
	g.src.indent++
	g.src.linef("parts = append(parts, %s)", slotVar)
	g.src.indent--

	var fallback program
	if len(n.Children) > 0 {
		g.src.linef("} else {")
		g.src.indent++
		var err error
		fallback, err = g.genNodes(n.Children)
		if err != nil {
			return err
		}
		g.src.indent--
	}
	g.src.linef("}")

	name := n.SlotName
	gb.append(func(rc *renderContext) error {
		var content runtime.Safe
		if name == "" {
			content = rc.children
		} else {
			content = rc.slots[name]
		}
		if content != "" {
			return rc.buf.Append(string(content))
		}
		return fallback.run(rc)
	})
	return nil
}

// resolveTarget turns an evaluated component target into an artifact: either
// a *Component directly or a name looked up in the registry.
func resolveTarget(rc *renderContext, tv any) (*Component, error) {
	switch t := tv.(type) {
	case *Component:
		return t, nil
	case string:
		if rc.comp.registry == nil {
			return nil, &ComponentNotFoundError{Name: t}
		}
		return rc.comp.registry.Resolve(t)
	default:
		return nil, fmt.Errorf("component target must be a name or compiled component, got %T", tv)
	}
}

// runSub renders a sub-program into its own buffer, sharing the caller's
// scope, and returns the result as trusted markup.
func runSub(rc *renderContext, prog program) (runtime.Safe, error) {
	if len(prog) == 0 {
		return "", nil
	}
	sub := &renderContext{
		ctx:      rc.ctx,
		buf:      runtime.NewBuffer(rc.ctx),
		scope:    rc.scope,
		children: rc.children,
		slots:    rc.slots,
		comp:     rc.comp,
	}
	if err := prog.run(sub); err != nil {
		return "", err
	}
	return runtime.Safe(sub.buf.String()), nil
}

func toStringMap(v any) (map[string]any, bool) {
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

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
