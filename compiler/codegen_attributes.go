package compiler

import (
	"fmt"

	"github.com/scriptogre/hyper/runtime"
)

// genAttr emits one classified attribute of an element's opening tag.
//
// Attribute fragments are appended individually rather than interpolated
// into one literal so that data-owned dynamic strings (a pre-rendered class
// attribute, spread entries) flow through without re-escaping.
func (g *generator) genAttr(gb *genBuf, attr Attribute) error {
	switch attr.Kind {
	case StaticAttr:
		// Attribute values arrive entity-decoded from the tokenizer;
		// re-escaping keeps a decoded quote from ending the value early.
		if attr.HasValue {
			gb.literal(" " + attr.Name + `="` + runtime.EscapeHTML(attr.Value) + `"`)
		} else {
			gb.literal(" " + attr.Name)
		}
		return nil

	case InterpolatedAttr:
		gb.flush()
		eval := g.evalFn(attr.Expr)
		name := attr.Name
		switch reservedFor(name) {
		case reservedClass:
			g.src.linef(`parts = append(parts, " class=\""+renderClass(%s)+"\"")`, g.exprText(attr.Expr))
			gb.append(func(rc *renderContext) error {
				v, err := eval(rc)
				if err != nil {
					return err
				}
				return rc.buf.Append(` class="` + runtime.RenderClass(v) + `"`)
			})
		case reservedStyle:
			g.src.linef(`parts = append(parts, " style=\""+renderStyle(%s)+"\"")`, g.exprText(attr.Expr))
			gb.append(func(rc *renderContext) error {
				v, err := eval(rc)
				if err != nil {
					return err
				}
				return rc.buf.Append(` style="` + runtime.RenderStyle(v) + `"`)
			})
		case reservedData:
			g.src.linef("parts = append(parts, renderData(%s))", g.exprText(attr.Expr))
			gb.append(func(rc *renderContext) error {
				v, err := eval(rc)
				if err != nil {
					return err
				}
				return rc.buf.Append(runtime.RenderData(v))
			})
		case reservedAria:
			g.src.linef("parts = append(parts, renderAria(%s))", g.exprText(attr.Expr))
			gb.append(func(rc *renderContext) error {
				v, err := eval(rc)
				if err != nil {
					return err
				}
				return rc.buf.Append(runtime.RenderAria(v))
			})
		default:
			g.src.linef("parts = append(parts, renderAttr(%q, %s))", name, g.exprText(attr.Expr))
			gb.append(func(rc *renderContext) error {
				v, err := eval(rc)
				if err != nil {
					return err
				}
				return rc.buf.Append(runtime.RenderAttr(name, v))
			})
		}
		return nil

	case TemplatedAttr:
		// Mixed literal and expression parts: concatenated, each expression
		// escaped on its own.
		gb.literal(" " + attr.Name + `="`)
		for _, seg := range attr.Segments {
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
		gb.literal(`"`)
		return nil

	case SpreadAttr:
		gb.flush()
		eval := g.evalFn(attr.Expr)
		g.src.linef("parts = append(parts, spreadAttrs(%s))", g.exprText(attr.Expr))
		gb.append(func(rc *renderContext) error {
			v, err := eval(rc)
			if err != nil {
				return err
			}
			return rc.buf.Append(runtime.SpreadAttrs(v))
		})
		return nil

	default:
		return fmt.Errorf("unknown attribute kind %d", attr.Kind)
	}
}
