package compiler

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Template directives recognized on elements. A directive applies to the
// element carrying it; `<template>` hosts apply it without emitting a
// wrapper tag.
const (
	dirIf      = ":if"
	dirElseIf  = ":else-if"
	dirElse    = ":else"
	dirFor     = ":for"
	dirAsync   = ":async"
	dirMatch   = ":match"
	dirCase    = ":case"
	dirDefault = ":default"
	dirGuard   = ":guard"
	dirIs      = ":is"
)

// ParseTemplate parses template source into a node tree. known holds the
// lowercased names of components a tag may resolve to; the tokenizer
// lowercases every tag name, so detection must be name-set based rather than
// case based.
func ParseTemplate(name, file, src string, known map[string]bool) (*Template, error) {
	tpl := &Template{Name: name, File: file}
	p := &parser{
		z:     html.NewTokenizer(strings.NewReader(src)),
		tpl:   tpl,
		known: known,
		line:  1,
	}

	root, err := p.parse()
	if err != nil {
		return nil, &ComponentCompileError{Component: name, File: file, Line: p.line, Cause: err}
	}
	children, err := p.transform(root.children)
	if err != nil {
		return nil, &ComponentCompileError{Component: name, File: file, Cause: err}
	}
	tpl.Root = &Node{Kind: FragmentNode, Children: children}
	return tpl, nil
}

type parser struct {
	z     *html.Tokenizer
	tpl   *Template
	known map[string]bool
	line  int
}

// rawTagAttr is one attribute as read off a tag, before classification.
type rawTagAttr struct {
	key string
	val string
}

// parseElem is the tokenizer-level element, children interleaving finished
// nodes (text, comments) with nested elements still carrying directives.
type parseElem struct {
	tag      string
	attrs    []rawTagAttr
	children []parseChild
	line     int
}

type parseChild struct {
	node *Node
	elem *parseElem
}

// parse runs the tokenizer once, building the raw element tree.
func (p *parser) parse() (*parseElem, error) {
	root := &parseElem{}
	stack := []*parseElem{root}
	top := func() *parseElem { return stack[len(stack)-1] }

	for {
		tt := p.z.Next()
		raw := string(p.z.Raw())
		line := p.line
		p.line += strings.Count(raw, "\n")

		switch tt {
		case html.ErrorToken:
			err := p.z.Err()
			if err == io.EOF {
				if len(stack) > 1 {
					return nil, fmt.Errorf("unclosed <%s> at line %d", top().tag, top().line)
				}
				return root, nil
			}
			return nil, err

		case html.TextToken:
			segs, err := p.splitSegments(p.z.Token().Data, line)
			if err != nil {
				return nil, err
			}
			if len(segs) > 0 {
				top().children = append(top().children, parseChild{
					node: &Node{Kind: TextNode, Line: line, Segments: segs},
				})
			}

		case html.CommentToken:
			segs, err := p.splitSegments(p.z.Token().Data, line)
			if err != nil {
				return nil, err
			}
			top().children = append(top().children, parseChild{
				node: &Node{Kind: CommentNode, Line: line, Segments: segs},
			})

		case html.DoctypeToken:
			top().children = append(top().children, parseChild{
				node: &Node{Kind: DoctypeNode, Line: line, Raw: raw},
			})

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := p.z.Token()
			e := &parseElem{tag: tok.Data, line: line}
			for _, a := range tok.Attr {
				e.attrs = append(e.attrs, rawTagAttr{key: a.Key, val: a.Val})
			}
			top().children = append(top().children, parseChild{elem: e})
			if tt == html.StartTagToken && !IsVoidElement(e.tag) {
				stack = append(stack, e)
			}

		case html.EndTagToken:
			tok := p.z.Token()
			if len(stack) == 1 || top().tag != tok.Data {
				return nil, fmt.Errorf("line %d: unexpected </%s>", line, tok.Data)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// splitSegments splits text into literal and {expression} segments. Brace
// matching is depth-counted and quote-aware so object literals and strings
// containing braces pass through the expression engine intact. Doubled
// braces escape a literal brace.
func (p *parser) splitSegments(text string, line int) ([]Segment, error) {
	var segs []Segment
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			segs = append(segs, LitSegment(lit.String()))
			lit.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			end, err := matchBrace(text, i)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			expr := strings.TrimSpace(text[i+1 : end])
			if expr == "" {
				return nil, fmt.Errorf("line %d: empty expression", line)
			}
			flushLit()
			segs = append(segs, ExprSegment(p.tpl.Capture(expr, line+strings.Count(text[:i], "\n"))))
			i = end + 1
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flushLit()
	return segs, nil
}

// matchBrace returns the index of the brace closing the one at open.
func matchBrace(text string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated expression %q", text[open:])
}

// directives holds the control-flow attributes stripped off one element.
type directives struct {
	ifExpr     string
	elseIfExpr string
	isElse     bool
	forSpec    string
	async      bool
	matchExpr  string
	caseExpr   string
	isDefault  bool
	guardExpr  string
	isExpr     string
}

// extractDirectives removes directive attributes from e and returns them.
func extractDirectives(e *parseElem) directives {
	var d directives
	kept := e.attrs[:0]
	for _, a := range e.attrs {
		switch a.key {
		case dirIf:
			d.ifExpr = stripBraces(a.val)
		case dirElseIf:
			d.elseIfExpr = stripBraces(a.val)
		case dirElse:
			d.isElse = true
		case dirFor:
			d.forSpec = a.val
		case dirAsync:
			d.async = true
		case dirMatch:
			d.matchExpr = stripBraces(a.val)
		case dirCase:
			d.caseExpr = stripBraces(a.val)
		case dirDefault:
			d.isDefault = true
		case dirGuard:
			d.guardExpr = stripBraces(a.val)
		case dirIs:
			d.isExpr = stripBraces(a.val)
		default:
			kept = append(kept, a)
		}
	}
	e.attrs = kept
	return d
}

// stripBraces unwraps a directive value written either bare (:if="done") or
// interpolation-style (:if="{done}").
func stripBraces(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// transform folds the raw element tree into the final node tree: directive
// chains become Conditional and Match nodes, known tags become component
// invocations, and <template> hosts dissolve into fragments.
func (p *parser) transform(children []parseChild) ([]*Node, error) {
	var out []*Node
	i := 0
	for i < len(children) {
		c := children[i]
		if c.node != nil {
			out = append(out, c.node)
			i++
			continue
		}

		e := c.elem
		d := extractDirectives(e)
		if d.elseIfExpr != "" || d.isElse {
			found := dirElse
			if d.elseIfExpr != "" {
				found = dirElseIf
			}
			return nil, fmt.Errorf("line %d: %s without a preceding %s", e.line, found, dirIf)
		}
		if d.caseExpr != "" || d.isDefault {
			return nil, fmt.Errorf("line %d: %s outside %s", e.line, dirCase, dirMatch)
		}

		node, err := p.buildElem(e, d)
		if err != nil {
			return nil, err
		}

		if d.ifExpr != "" {
			branches := []Branch{{
				Cond: p.tpl.Capture(d.ifExpr, e.line),
				Body: []*Node{node},
			}}
			i++
			i, branches, err = p.collectBranches(children, i, branches)
			if err != nil {
				return nil, err
			}
			node = &Node{Kind: ConditionalNode, Line: e.line, Branches: branches}
		} else {
			i++
		}

		if d.forSpec != "" {
			node, err = p.buildLoop(e, d, node)
			if err != nil {
				return nil, err
			}
		}

		out = append(out, node)
	}
	return out, nil
}

// collectBranches consumes trailing :else-if/:else siblings of a conditional.
// Whitespace-only text between branches belongs to the chain and is dropped.
func (p *parser) collectBranches(children []parseChild, i int, branches []Branch) (int, []Branch, error) {
	for i < len(children) {
		c := children[i]
		if c.node != nil {
			if c.node.Kind == TextNode && isBlankText(c.node.Segments) && i+1 < len(children) && isBranchElem(children[i+1]) {
				i++
				continue
			}
			return i, branches, nil
		}

		e := c.elem
		d := extractDirectives(e)
		switch {
		case d.elseIfExpr != "":
			node, err := p.buildElem(e, d)
			if err != nil {
				return i, nil, err
			}
			branches = append(branches, Branch{
				Cond: p.tpl.Capture(d.elseIfExpr, e.line),
				Body: []*Node{node},
			})
			i++
		case d.isElse:
			node, err := p.buildElem(e, d)
			if err != nil {
				return i, nil, err
			}
			branches = append(branches, Branch{Cond: NoExpr, Body: []*Node{node}})
			return i + 1, branches, nil
		default:
			// Not part of the chain; rebuild it through the main loop.
			p.reattach(children, i, e, d)
			return i, branches, nil
		}
	}
	return i, branches, nil
}

// reattach puts stripped directives back so transform sees the element fresh.
func (p *parser) reattach(children []parseChild, i int, e *parseElem, d directives) {
	restored := e.attrs
	if d.ifExpr != "" {
		restored = append(restored, rawTagAttr{key: dirIf, val: d.ifExpr})
	}
	if d.forSpec != "" {
		restored = append(restored, rawTagAttr{key: dirFor, val: d.forSpec})
	}
	if d.async {
		restored = append(restored, rawTagAttr{key: dirAsync})
	}
	if d.matchExpr != "" {
		restored = append(restored, rawTagAttr{key: dirMatch, val: d.matchExpr})
	}
	if d.isExpr != "" {
		restored = append(restored, rawTagAttr{key: dirIs, val: d.isExpr})
	}
	if d.caseExpr != "" {
		restored = append(restored, rawTagAttr{key: dirCase, val: d.caseExpr})
	}
	if d.isDefault {
		restored = append(restored, rawTagAttr{key: dirDefault})
	}
	if d.guardExpr != "" {
		restored = append(restored, rawTagAttr{key: dirGuard, val: d.guardExpr})
	}
	e.attrs = restored
	children[i] = parseChild{elem: e}
}

func isBranchElem(c parseChild) bool {
	if c.elem == nil {
		return false
	}
	for _, a := range c.elem.attrs {
		if a.key == dirElseIf || a.key == dirElse {
			return true
		}
	}
	return false
}

func isBlankText(segs []Segment) bool {
	for _, s := range segs {
		if s.IsExpr || strings.TrimSpace(s.Lit) != "" {
			return false
		}
	}
	return true
}

// buildElem turns one directive-stripped element into a node: a component
// invocation, a slot placeholder, a match host, or a plain element. template
// hosts emit no tag of their own.
func (p *parser) buildElem(e *parseElem, d directives) (*Node, error) {
	if d.matchExpr != "" {
		return p.buildMatch(e, d)
	}

	switch {
	case e.tag == "slot":
		return p.buildSlot(e)
	case d.isExpr != "" || p.known[e.tag]:
		return p.buildComponent(e, d)
	}

	children, err := p.transform(e.children)
	if err != nil {
		return nil, err
	}
	if e.tag == "template" {
		return &Node{Kind: FragmentNode, Line: e.line, Children: children}, nil
	}

	attrs, err := p.classifyAttrs(e)
	if err != nil {
		return nil, err
	}
	if IsVoidElement(e.tag) && len(children) > 0 {
		return nil, fmt.Errorf("line %d: void element <%s> cannot have children", e.line, e.tag)
	}
	return &Node{Kind: ElementNode, Line: e.line, Tag: e.tag, Attrs: attrs, Children: children}, nil
}

// buildMatch assembles a MatchNode from an element's :case/:default children
// and wraps it in the host element (or a fragment for template hosts).
func (p *parser) buildMatch(e *parseElem, d directives) (*Node, error) {
	var cases []Case
	for _, c := range e.children {
		if c.node != nil {
			if c.node.Kind == TextNode && isBlankText(c.node.Segments) {
				continue
			}
			return nil, fmt.Errorf("line %d: only %s/%s children allowed under %s", e.line, dirCase, dirDefault, dirMatch)
		}
		ce := c.elem
		cd := extractDirectives(ce)
		if cd.caseExpr == "" && !cd.isDefault {
			return nil, fmt.Errorf("line %d: <%s> under %s needs %s or %s", ce.line, ce.tag, dirMatch, dirCase, dirDefault)
		}
		body, err := p.buildElem(ce, cd)
		if err != nil {
			return nil, err
		}
		cs := Case{Pattern: NoExpr, Guard: NoExpr, Wildcard: cd.isDefault, Body: []*Node{body}}
		if cd.caseExpr != "" {
			cs.Pattern = p.tpl.Capture(cd.caseExpr, ce.line)
		}
		if cd.guardExpr != "" {
			cs.Guard = p.tpl.Capture(cd.guardExpr, ce.line)
		}
		cases = append(cases, cs)
	}

	match := &Node{
		Kind:    MatchNode,
		Line:    e.line,
		Subject: p.tpl.Capture(d.matchExpr, e.line),
		Cases:   cases,
	}
	if e.tag == "template" {
		return match, nil
	}
	attrs, err := p.classifyAttrs(e)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: ElementNode, Line: e.line, Tag: e.tag, Attrs: attrs, Children: []*Node{match}}, nil
}

// buildSlot turns a <slot> element into a placeholder; children become the
// fallback content.
func (p *parser) buildSlot(e *parseElem) (*Node, error) {
	var name string
	for _, a := range e.attrs {
		if a.key == "name" {
			name = a.val
		}
	}
	fallback, err := p.transform(e.children)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: SlotNode, Line: e.line, SlotName: name, Children: fallback}, nil
}

// buildComponent turns a known tag (or a <component :is=...> host) into an
// invocation node. Direct <template slot="name"> children become named slot
// content; everything else is the default slot.
func (p *parser) buildComponent(e *parseElem, d directives) (*Node, error) {
	var target ExprRef
	if d.isExpr != "" {
		target = p.tpl.Capture(d.isExpr, e.line)
	} else {
		target = p.tpl.Capture(strconv.Quote(e.tag), e.line)
	}

	attrs, err := p.classifyAttrs(e)
	if err != nil {
		return nil, err
	}

	var defaultKids []parseChild
	var slots map[string][]*Node
	for _, c := range e.children {
		if c.elem != nil && c.elem.tag == "template" {
			if slotName := slotAttr(c.elem); slotName != "" {
				body, err := p.transform(c.elem.children)
				if err != nil {
					return nil, err
				}
				if slots == nil {
					slots = make(map[string][]*Node)
				}
				slots[slotName] = body
				continue
			}
		}
		defaultKids = append(defaultKids, c)
	}
	children, err := p.transform(defaultKids)
	if err != nil {
		return nil, err
	}

	return &Node{
		Kind:     ComponentNode,
		Line:     e.line,
		Target:   target,
		Attrs:    attrs,
		Children: children,
		Slots:    slots,
	}, nil
}

func slotAttr(e *parseElem) string {
	for _, a := range e.attrs {
		if a.key == "slot" {
			return a.val
		}
	}
	return ""
}

// buildLoop parses a :for spec ("item in items" or "item, i in items") and
// wraps body in a LoopNode.
func (p *parser) buildLoop(e *parseElem, d directives, body *Node) (*Node, error) {
	spec := stripBraces(d.forSpec)
	idx := strings.Index(spec, " in ")
	if idx < 0 {
		return nil, fmt.Errorf("line %d: %s needs the form %q", e.line, dirFor, "item in items")
	}
	bindings := strings.Split(spec[:idx], ",")
	valueVar := strings.TrimSpace(bindings[0])
	indexVar := ""
	if len(bindings) > 1 {
		indexVar = strings.TrimSpace(bindings[1])
	}
	if valueVar == "" || len(bindings) > 2 {
		return nil, fmt.Errorf("line %d: %s needs the form %q", e.line, dirFor, "item, i in items")
	}
	iterable := stripBraces(spec[idx+len(" in "):])
	if iterable == "" {
		return nil, fmt.Errorf("line %d: %s missing an iterable", e.line, dirFor)
	}

	return &Node{
		Kind:     LoopNode,
		Line:     e.line,
		ValueVar: valueVar,
		IndexVar: indexVar,
		Iterable: p.tpl.Capture(iterable, e.line),
		Async:    d.async,
		Children: []*Node{body},
	}, nil
}

// classifyAttrs converts the element's remaining raw attributes. A spread is
// written either as a bare key matching {...expr} or as ...="{expr}".
func (p *parser) classifyAttrs(e *parseElem) ([]Attribute, error) {
	var attrs []Attribute
	for _, a := range e.attrs {
		raw := RawAttribute{Name: a.key, HasValue: a.val != ""}

		switch {
		case a.key == "...":
			raw.Spread = true
			raw.Name = ""
		case strings.HasPrefix(a.key, "{...") && strings.HasSuffix(a.key, "}"):
			expr := strings.TrimSpace(a.key[4 : len(a.key)-1])
			if expr == "" {
				return nil, fmt.Errorf("line %d: empty spread expression", e.line)
			}
			attrs = append(attrs, ClassifyAttribute(RawAttribute{
				Spread:   true,
				Segments: []Segment{ExprSegment(p.tpl.Capture(expr, e.line))},
			}))
			continue
		}

		if a.val != "" {
			segs, err := p.splitSegments(a.val, e.line)
			if err != nil {
				return nil, err
			}
			raw.Segments = segs
		}
		attrs = append(attrs, ClassifyAttribute(raw))
	}
	return attrs, nil
}

// deriveSlotDecls inspects a parsed template for slot placeholders and
// produces the matching prop declarations, so directory-loaded components
// accept children and named slot content without a separate signature file.
func deriveSlotDecls(tpl *Template) []PropDecl {
	names := map[string]bool{}
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			if n.Kind == SlotNode {
				names[n.SlotName] = true
			}
			walk(n.Children)
			for _, br := range n.Branches {
				walk(br.Body)
			}
			for _, c := range n.Cases {
				walk(c.Body)
			}
			for _, body := range n.Slots {
				walk(body)
			}
		}
	}
	walk([]*Node{tpl.Root})

	var decls []PropDecl
	if names[""] {
		decls = append(decls, PropDecl{Name: ChildrenProp})
	}
	var named []string
	for n := range names {
		if n != "" {
			named = append(named, n)
		}
	}
	// Stable declaration order keeps generated signatures deterministic.
	sort.Strings(named)
	for _, n := range named {
		decls = append(decls, PropDecl{Name: slotPrefix + n})
	}
	return decls
}
