package compiler

import "fmt"

// validateTree checks structural invariants of a parsed template before
// generation: every expression reference resolves, void elements carry no
// children, conditional chains put the else branch last, and match blocks
// declare at most one wildcard, in last position.
func validateTree(tpl *Template) error {
	v := &treeValidator{tpl: tpl}
	return v.nodes([]*Node{tpl.Root})
}

type treeValidator struct {
	tpl *Template
}

func (v *treeValidator) nodes(nodes []*Node) error {
	for _, n := range nodes {
		if err := v.node(n); err != nil {
			return err
		}
	}
	return nil
}

func (v *treeValidator) node(n *Node) error {
	if n == nil {
		return fmt.Errorf("nil node in tree")
	}
	switch n.Kind {
	case FragmentNode:
		return v.nodes(n.Children)

	case TextNode:
		return v.segments(n.Segments, n.Line)

	case CommentNode:
		return v.segments(n.Segments, n.Line)

	case DoctypeNode:
		return nil

	case ElementNode:
		if err := v.attrs(n.Attrs, n.Line); err != nil {
			return err
		}
		if IsVoidElement(n.Tag) && len(n.Children) > 0 {
			return fmt.Errorf("line %d: void element <%s> cannot have children", n.Line, n.Tag)
		}
		return v.nodes(n.Children)

	case ComponentNode:
		if err := v.ref(n.Target, n.Line); err != nil {
			return err
		}
		if err := v.attrs(n.Attrs, n.Line); err != nil {
			return err
		}
		for _, body := range n.Slots {
			if err := v.nodes(body); err != nil {
				return err
			}
		}
		return v.nodes(n.Children)

	case ConditionalNode:
		if len(n.Branches) == 0 {
			return fmt.Errorf("line %d: conditional with no branches", n.Line)
		}
		for i, br := range n.Branches {
			if br.Cond == NoExpr && i != len(n.Branches)-1 {
				return fmt.Errorf("line %d: else branch must be last", n.Line)
			}
			if br.Cond != NoExpr {
				if err := v.ref(br.Cond, n.Line); err != nil {
					return err
				}
			}
			if err := v.nodes(br.Body); err != nil {
				return err
			}
		}
		return nil

	case MatchNode:
		if err := v.ref(n.Subject, n.Line); err != nil {
			return err
		}
		wildcards := 0
		for i, c := range n.Cases {
			if c.Wildcard {
				wildcards++
				if wildcards > 1 {
					return fmt.Errorf("line %d: match declares more than one default case", n.Line)
				}
				if i != len(n.Cases)-1 {
					return fmt.Errorf("line %d: default case must be last", n.Line)
				}
			} else if err := v.ref(c.Pattern, n.Line); err != nil {
				return err
			}
			if c.Guard != NoExpr {
				if err := v.ref(c.Guard, n.Line); err != nil {
					return err
				}
			}
			if err := v.nodes(c.Body); err != nil {
				return err
			}
		}
		return nil

	case LoopNode:
		if n.ValueVar == "" {
			return fmt.Errorf("line %d: loop missing a value binding", n.Line)
		}
		if err := v.ref(n.Iterable, n.Line); err != nil {
			return err
		}
		return v.nodes(n.Children)

	case SlotNode:
		return v.nodes(n.Children)

	default:
		return &UnknownNodeError{Kind: n.Kind, Line: n.Line}
	}
}

func (v *treeValidator) attrs(attrs []Attribute, line int) error {
	for _, a := range attrs {
		switch a.Kind {
		case InterpolatedAttr, SpreadAttr:
			if err := v.ref(a.Expr, line); err != nil {
				return err
			}
		case TemplatedAttr:
			if err := v.segments(a.Segments, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *treeValidator) segments(segs []Segment, line int) error {
	for _, s := range segs {
		if s.IsExpr {
			if err := v.ref(s.Expr, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *treeValidator) ref(ref ExprRef, line int) error {
	if ref < 0 || int(ref) >= len(v.tpl.Exprs) {
		return fmt.Errorf("line %d: expression reference %d out of range", line, ref)
	}
	return nil
}
