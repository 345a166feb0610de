package compiler

import "strings"

// PropRole mirrors ordinary function-signature parameter roles.
type PropRole int

const (
	RolePositional PropRole = iota
	RoleKeyword
	RoleVariadicPositional
	RoleVariadicKeyword
)

// ChildrenProp is the designated name of the children slot parameter. Its
// content is inserted as already-rendered trusted markup and never passes
// through the escaped-output path.
const ChildrenProp = "children"

// slotPrefix marks a declaration as a named slot parameter, e.g.
// "slot:header".
const slotPrefix = "slot:"

// PropDecl is one parameter declaration as delivered by the component
// loader: name, optional type tag, optional default, and its role.
type PropDecl struct {
	Name       string
	Type       string
	HasDefault bool
	Default    any
	Role       PropRole
}

// Prop is one entry of the extracted, ordered prop table.
type Prop struct {
	Name       string
	Type       string
	HasDefault bool
	Default    any
	Role       PropRole
}

// PropTable is the immutable prop table of one component, plus the two
// derived values the generator consumes: the ordered parameter list for the
// generated procedure signature and the children/named-slot parameters.
type PropTable struct {
	Props         []Prop
	ChildrenParam string   // "" when no children slot is declared
	SlotParams    []string // named slots in declaration order
}

// Signature returns the ordered parameter list of the generated procedure.
func (pt *PropTable) Signature() []string {
	params := make([]string, 0, len(pt.Props)+1+len(pt.SlotParams))
	for _, p := range pt.Props {
		params = append(params, p.Name)
	}
	if pt.ChildrenParam != "" {
		params = append(params, pt.ChildrenParam)
	}
	for _, s := range pt.SlotParams {
		params = append(params, slotPrefix+s)
	}
	return params
}

// HasSlot reports whether name is a declared named slot.
func (pt *PropTable) HasSlot(name string) bool {
	for _, s := range pt.SlotParams {
		if s == name {
			return true
		}
	}
	return false
}

// ExtractProps reads a component's parameter declarations and produces its
// prop table. It rejects a non-default positional prop following a defaulted
// one, and duplicate names, with a *PropOrderError.
func ExtractProps(decls []PropDecl) (*PropTable, error) {
	pt := &PropTable{}
	seen := make(map[string]bool, len(decls))
	seenDefault := false

	declared := make([]string, 0, len(decls))
	for _, d := range decls {
		declared = append(declared, d.Name)
	}

	for _, d := range decls {
		if seen[d.Name] {
			return nil, &PropOrderError{
				Prop:     d.Name,
				Message:  "duplicate prop name",
				Expected: declared,
			}
		}
		seen[d.Name] = true

		if d.Name == ChildrenProp {
			pt.ChildrenParam = ChildrenProp
			continue
		}
		if slot, ok := strings.CutPrefix(d.Name, slotPrefix); ok {
			pt.SlotParams = append(pt.SlotParams, slot)
			continue
		}

		if d.Role == RolePositional {
			if d.HasDefault {
				seenDefault = true
			} else if seenDefault {
				return nil, &PropOrderError{
					Prop:     d.Name,
					Message:  "prop without default follows a defaulted prop",
					Expected: declared,
				}
			}
		}

		pt.Props = append(pt.Props, Prop{
			Name:       d.Name,
			Type:       d.Type,
			HasDefault: d.HasDefault,
			Default:    d.Default,
			Role:       d.Role,
		})
	}

	return pt, nil
}
