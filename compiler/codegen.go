package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr/vm"

	"github.com/scriptogre/hyper/runtime"
)

// step is one fragment-emission instruction of a compiled render program.
type step func(rc *renderContext) error

// program is an ordered sequence of steps. Running a program appends
// fragments to the invocation's buffer in document order.
type program []step

func (p program) run(rc *renderContext) error {
	for _, s := range p {
		if err := s(rc); err != nil {
			return err
		}
	}
	return nil
}

// renderContext is the per-invocation state: the fragment buffer, the
// expression scope, and the caller-supplied slot content. One is created per
// render call and never shared.
type renderContext struct {
	ctx      context.Context
	buf      *runtime.Buffer
	scope    map[string]any
	children runtime.Safe
	slots    map[string]runtime.Safe
	comp     *Component
}

// generator walks the node tree once, producing both the step program and
// the generated source listing exposed for diagnostics.
type generator struct {
	tpl   *Template
	props *PropTable
	progs []*vm.Program
	src   sourceWriter
	async bool
}

// evalFn returns the render-time evaluator for one captured expression. The
// expression program was compiled exactly once, up front, by the driver.
func (g *generator) evalFn(ref ExprRef) func(rc *renderContext) (any, error) {
	prog := g.progs[ref]
	meta := g.tpl.Exprs[ref]
	return func(rc *renderContext) (any, error) {
		out, err := vm.Run(prog, rc.scope)
		if err != nil {
			return nil, &EvalError{Expression: meta.Text, Line: meta.Line, Cause: err}
		}
		return out, nil
	}
}

// exprText returns the expression's source form for the generated listing.
func (g *generator) exprText(ref ExprRef) string {
	return "{" + g.tpl.Exprs[ref].Text + "}"
}

// generate emits the whole render procedure for the template.
func (g *generator) generate() (program, string, error) {
	g.src.linef("func %s(%s) string {", g.tpl.Name, strings.Join(g.props.Signature(), ", "))
	g.src.indent++
	g.src.linef("var parts []string")

	prog, err := g.genNodes([]*Node{g.tpl.Root})
	if err != nil {
		return nil, "", err
	}

	g.src.linef(`return strings.Join(parts, "")`)
	g.src.indent--
	g.src.linef("}")
	return prog, g.src.b.String(), nil
}

// genNodes emits a node sequence into a fresh fold buffer and returns the
// resulting program.
func (g *generator) genNodes(nodes []*Node) (program, error) {
	gb := &genBuf{g: g}
	for _, n := range nodes {
		if err := g.genNode(gb, n); err != nil {
			return nil, err
		}
	}
	gb.flush()
	return gb.steps, nil
}

func (g *generator) genNode(gb *genBuf, n *Node) error {
	if n == nil {
		return fmt.Errorf("nil node in tree")
	}
	switch n.Kind {
	case FragmentNode:
		for _, c := range n.Children {
			if err := g.genNode(gb, c); err != nil {
				return err
			}
		}
		return nil
	case TextNode:
		return g.genSegments(gb, n.Segments)
	case CommentNode:
		gb.literal("<!--")
		if err := g.genSegments(gb, n.Segments); err != nil {
			return err
		}
		gb.literal("-->")
		return nil
	case DoctypeNode:
		gb.literal(n.Raw)
		return nil
	case ElementNode:
		return g.genElement(gb, n)
	case ConditionalNode:
		return g.genConditional(gb, n)
	case MatchNode:
		return g.genMatch(gb, n)
	case LoopNode:
		return g.genLoop(gb, n)
	case ComponentNode:
		return g.genComponent(gb, n)
	case SlotNode:
		return g.genSlot(gb, n)
	default:
		return &UnknownNodeError{Kind: n.Kind, Line: n.Line}
	}
}

// genSegments emits one text run. Literal chunks fold into the pending
// literal fragment at compile time; each embedded expression becomes a
// fragment routed through the escaping protocol. The tokenizer
// entity-decodes source text, so literals re-escape here: an authored
// &amp; round-trips instead of collapsing to a bare ampersand.
func (g *generator) genSegments(gb *genBuf, segs []Segment) error {
	for _, seg := range segs {
		if !seg.IsExpr {
			gb.literal(runtime.EscapeHTML(seg.Lit))
			continue
		}
		gb.flush()
		eval := g.evalFn(seg.Expr)
		g.src.linef("parts = append(parts, escape(%s))", g.exprText(seg.Expr))
		gb.append(func(rc *renderContext) error {
			v, err := eval(rc)
			if err != nil {
				return err
			}
			return rc.buf.Append(runtime.EscapeHTML(v))
		})
	}
	return nil
}

// genElement emits the opening tag, children, and closing tag of one
// element. Void elements never emit children or a closing tag.
func (g *generator) genElement(gb *genBuf, n *Node) error {
	gb.literal("<" + n.Tag)
	for _, attr := range n.Attrs {
		if err := g.genAttr(gb, attr); err != nil {
			return err
		}
	}
	gb.literal(">")

	if IsVoidElement(n.Tag) {
		return nil
	}

	for _, c := range n.Children {
		if err := g.genNode(gb, c); err != nil {
			return err
		}
	}
	gb.literal("</" + n.Tag + ">")
	return nil
}

// genBuf folds compile-time-known output into single literal fragments:
// consecutive literal content accumulates in lit and is flushed as one step
// with no runtime escaping call. Dynamic steps must flush first so fragment
// order matches document order.
type genBuf struct {
	g     *generator
	steps program
	lit   strings.Builder
}

func (gb *genBuf) literal(s string) {
	gb.lit.WriteString(s)
}

func (gb *genBuf) flush() {
	if gb.lit.Len() == 0 {
		return
	}
	s := gb.lit.String()
	gb.lit.Reset()
	gb.g.src.linef("parts = append(parts, %q)", s)
	gb.steps = append(gb.steps, func(rc *renderContext) error {
		return rc.buf.Append(s)
	})
}

// append adds a dynamic step. The caller is responsible for calling flush
// beforehand and for writing its own source line.
func (gb *genBuf) append(st step) {
	gb.steps = append(gb.steps, st)
}

// sourceWriter builds the generated-source side channel.
type sourceWriter struct {
	b      strings.Builder
	indent int
}

func (w *sourceWriter) linef(format string, args ...any) {
	for i := 0; i < w.indent; i++ {
		w.b.WriteByte('\t')
	}
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}
