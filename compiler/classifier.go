package compiler

import "strings"

// AttrKind identifies the shape of one attribute occurrence.
type AttrKind int

const (
	// StaticAttr is literal text, or bare presence when HasValue is false.
	StaticAttr AttrKind = iota
	// InterpolatedAttr is a single expression spanning the whole value.
	InterpolatedAttr
	// TemplatedAttr mixes literal text with embedded expressions.
	TemplatedAttr
	// SpreadAttr is a nameless position whose expression evaluates to a
	// name-to-value mapping, each entry rendered as its own attribute.
	SpreadAttr
)

// Attribute is one classified attribute. Field usage per kind:
//
//	StaticAttr       Name, Value, HasValue
//	InterpolatedAttr Name, Expr
//	TemplatedAttr    Name, Segments
//	SpreadAttr       Expr
type Attribute struct {
	Kind     AttrKind
	Name     string
	Value    string
	HasValue bool
	Expr     ExprRef
	Segments []Segment
}

// RawAttribute is one attribute occurrence as delivered by the parser:
// the name (empty for a spread position), whether a value was written at
// all, and the value split into literal/expression segments.
type RawAttribute struct {
	Name     string
	HasValue bool
	Segments []Segment
	Spread   bool
}

// ClassifyAttribute determines the shape of one raw attribute occurrence.
// It never fails: ambiguous shapes fall back to TemplatedAttr, which is
// correct for every value at the cost of per-segment rendering.
func ClassifyAttribute(raw RawAttribute) Attribute {
	if raw.Spread {
		ref := NoExpr
		for _, seg := range raw.Segments {
			if seg.IsExpr {
				ref = seg.Expr
				break
			}
		}
		return Attribute{Kind: SpreadAttr, Expr: ref}
	}

	exprs := 0
	for _, seg := range raw.Segments {
		if seg.IsExpr {
			exprs++
		}
	}

	switch {
	case exprs == 0 && !raw.HasValue:
		// Bare attribute: presence only.
		return Attribute{Kind: StaticAttr, Name: raw.Name}
	case exprs == 0:
		var b strings.Builder
		for _, seg := range raw.Segments {
			b.WriteString(seg.Lit)
		}
		return Attribute{Kind: StaticAttr, Name: raw.Name, Value: b.String(), HasValue: true}
	case exprs == 1 && len(raw.Segments) == 1:
		return Attribute{Kind: InterpolatedAttr, Name: raw.Name, Expr: raw.Segments[0].Expr}
	default:
		return Attribute{Kind: TemplatedAttr, Name: raw.Name, Segments: raw.Segments}
	}
}

// reservedAttr is the closed enumeration of attribute names with dedicated
// renderers. Dispatch happens by exact name match at classification time,
// never by reflection.
type reservedAttr int

const (
	reservedNone reservedAttr = iota
	reservedClass
	reservedStyle
	reservedData
	reservedAria
)

func reservedFor(name string) reservedAttr {
	switch name {
	case "class":
		return reservedClass
	case "style":
		return reservedStyle
	case "data":
		return reservedData
	case "aria":
		return reservedAria
	default:
		return reservedNone
	}
}
