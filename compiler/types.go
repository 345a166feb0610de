// Package compiler turns a parsed template node tree into a reusable render
// procedure. The tree is produced upstream (see frontend.go for the bundled
// bridge over the x/net/html tokenizer); this package classifies attributes,
// extracts props, and generates a fragment-accumulation program plus a
// human-readable source listing for diagnostics.
package compiler

import "fmt"

// NodeKind identifies which variant of Node is active. Exactly one variant's
// fields are meaningful per instance.
type NodeKind int

const (
	FragmentNode NodeKind = iota // grouping with no own output
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
	ComponentNode
	ConditionalNode
	MatchNode
	LoopNode
	SlotNode
)

var nodeKindNames = map[NodeKind]string{
	FragmentNode:    "fragment",
	ElementNode:     "element",
	TextNode:        "text",
	CommentNode:     "comment",
	DoctypeNode:     "doctype",
	ComponentNode:   "component",
	ConditionalNode: "conditional",
	MatchNode:       "match",
	LoopNode:        "loop",
	SlotNode:        "slot",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// ExprRef is an opaque handle into a template's ordered expression table.
// The compiler never parses expression text itself; it hands the text to the
// expression engine verbatim, once, at compile time.
type ExprRef int

// NoExpr marks an absent expression (a trailing else branch, a guard-less
// match case).
const NoExpr ExprRef = -1

// Expression is one captured expression occurrence with the source line it
// came from, used for error reporting.
type Expression struct {
	Text string
	Line int
}

// Segment is one part of a text run or templated attribute value: either a
// literal chunk or an embedded expression.
type Segment struct {
	Lit    string
	Expr   ExprRef
	IsExpr bool
}

// LitSegment returns a literal segment.
func LitSegment(s string) Segment { return Segment{Lit: s} }

// ExprSegment returns an expression segment.
func ExprSegment(ref ExprRef) Segment { return Segment{Expr: ref, IsExpr: true} }

// Branch is one arm of a Conditional. Cond == NoExpr marks the trailing else
// branch; at most one branch may be an else and it must be last.
type Branch struct {
	Cond ExprRef
	Body []*Node
}

// Case is one arm of a Match. A wildcard case matches any subject and acts
// as the default; when no wildcard is declared, the generator synthesizes a
// no-op one so the match is always exhaustive.
type Case struct {
	Pattern  ExprRef
	Guard    ExprRef
	Wildcard bool
	Body     []*Node
}

// Node is one node of the template tree, tagged by Kind. Field usage per
// variant:
//
//	FragmentNode    Children
//	ElementNode     Tag, Attrs, Children
//	TextNode        Segments
//	CommentNode     Segments
//	DoctypeNode     Raw
//	ComponentNode   Target, Attrs, Children (default slot), Slots
//	ConditionalNode Branches
//	MatchNode       Subject, Cases
//	LoopNode        ValueVar, IndexVar, Iterable, Async, Children (body)
//	SlotNode        SlotName ("" = default slot), Children (fallback)
//
// Trees are immutable once compiled; rendering never mutates them.
type Node struct {
	Kind NodeKind
	Line int

	Tag      string
	Attrs    []Attribute
	Children []*Node

	Segments []Segment

	Raw string

	Target ExprRef
	Slots  map[string][]*Node

	Branches []Branch

	Subject ExprRef
	Cases   []Case

	ValueVar string
	IndexVar string
	Iterable ExprRef
	Async    bool

	SlotName string
}

// Template is the immutable compile input: the node tree plus the ordered
// table of captured expressions it references.
type Template struct {
	Name  string
	File  string
	Root  *Node
	Exprs []Expression
}

// Capture appends an expression occurrence and returns its handle.
func (t *Template) Capture(text string, line int) ExprRef {
	t.Exprs = append(t.Exprs, Expression{Text: text, Line: line})
	return ExprRef(len(t.Exprs) - 1)
}

// voidElements can never have children or a closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement reports whether tag is in the fixed void-element set.
func IsVoidElement(tag string) bool { return voidElements[tag] }
