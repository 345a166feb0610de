package compiler

import (
	"reflect"

	"github.com/scriptogre/hyper/runtime"
)

// genConditional emits an if/else-if/else chain. The first branch whose
// condition evaluates truthy runs; a trailing else branch (Cond == NoExpr)
// runs when nothing matched. Empty branch bodies still emit a placeholder in
// the generated source.
func (g *generator) genConditional(gb *genBuf, n *Node) error {
	gb.flush()

	type branchProg struct {
		cond func(rc *renderContext) (any, error) // nil for else
		body program
	}
	branches := make([]branchProg, 0, len(n.Branches))

	for i, br := range n.Branches {
		switch {
		case i == 0:
			g.src.linef("if truthy(%s) {", g.exprText(br.Cond))
		case br.Cond != NoExpr:
			g.src.linef("} else if truthy(%s) {", g.exprText(br.Cond))
		default:
			g.src.linef("} else {")
		}

		g.src.indent++
		if len(br.Body) == 0 {
			g.src.linef("// pass")
		}
		body, err := g.genNodes(br.Body)
		if err != nil {
			return err
		}
		g.src.indent--

		bp := branchProg{body: body}
		if br.Cond != NoExpr {
			bp.cond = g.evalFn(br.Cond)
		}
		branches = append(branches, bp)
	}
	g.src.linef("}")

	gb.append(func(rc *renderContext) error {
		for _, br := range branches {
			if br.cond == nil {
				return br.body.run(rc)
			}
			v, err := br.cond(rc)
			if err != nil {
				return err
			}
			if runtime.Truthy(v) {
				return br.body.run(rc)
			}
		}
		return nil
	})
	return nil
}

// genMatch emits a match construct. Cases are tried in order; a wildcard
// case matches anything. When the template declares no wildcard, a synthetic
// no-op wildcard is appended so the match is exhaustive and a subject that
// matches no declared pattern falls through producing no output.
func (g *generator) genMatch(gb *genBuf, n *Node) error {
	gb.flush()

	subject := g.evalFn(n.Subject)

	cases := n.Cases
	hasWildcard := false
	for _, c := range cases {
		if c.Wildcard {
			hasWildcard = true
		}
	}
	if !hasWildcard {
		// Do not mutate the immutable tree; extend a local copy.
		cases = append(append([]Case{}, cases...), Case{Pattern: NoExpr, Guard: NoExpr, Wildcard: true})
	}

	type caseProg struct {
		pattern func(rc *renderContext) (any, error) // nil for wildcard
		guard   func(rc *renderContext) (any, error) // nil when absent
		body    program
	}
	compiled := make([]caseProg, 0, len(cases))

	g.src.linef("switch subject := %s; {", g.exprText(n.Subject))
	for _, c := range cases {
		cp := caseProg{}
		switch {
		case c.Wildcard && c.Guard == NoExpr:
			g.src.linef("default:")
		case c.Wildcard:
			g.src.linef("case truthy(%s):", g.exprText(c.Guard))
			cp.guard = g.evalFn(c.Guard)
		case c.Guard == NoExpr:
			g.src.linef("case matches(subject, %s):", g.exprText(c.Pattern))
			cp.pattern = g.evalFn(c.Pattern)
		default:
			g.src.linef("case matches(subject, %s) && truthy(%s):", g.exprText(c.Pattern), g.exprText(c.Guard))
			cp.pattern = g.evalFn(c.Pattern)
			cp.guard = g.evalFn(c.Guard)
		}

		g.src.indent++
		if len(c.Body) == 0 {
			g.src.linef("// pass")
		}
		body, err := g.genNodes(c.Body)
		if err != nil {
			return err
		}
		g.src.indent--
		cp.body = body
		compiled = append(compiled, cp)
	}
	g.src.linef("}")

	gb.append(func(rc *renderContext) error {
		subj, err := subject(rc)
		if err != nil {
			return err
		}
		for _, c := range compiled {
			if c.pattern != nil {
				pv, err := c.pattern(rc)
				if err != nil {
					return err
				}
				if !matchValues(subj, pv) {
					continue
				}
			}
			if c.guard != nil {
				gv, err := c.guard(rc)
				if err != nil {
					return err
				}
				if !runtime.Truthy(gv) {
					continue
				}
			}
			return c.body.run(rc)
		}
		return nil
	})
	return nil
}

// matchValues compares an evaluated case pattern against the match subject.
// Numeric values compare by value across int/float representations, which
// differ depending on how the expression engine produced them.
func matchValues(subject, pattern any) bool {
	if reflect.DeepEqual(subject, pattern) {
		return true
	}
	sf, sok := toFloat(subject)
	pf, pok := toFloat(pattern)
	return sok && pok && sf == pf
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
