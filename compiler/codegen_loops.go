package compiler

import (
	"fmt"
	"reflect"
	"sort"
)

// genLoop emits a loop over an evaluated iterable. Slices and arrays bind
// (index, element), maps bind (key, value) in sorted key order so output is
// deterministic, and channels are consumed until closed - the asynchronous
// iteration form, where fragment order is preserved across each receive.
func (g *generator) genLoop(gb *genBuf, n *Node) error {
	gb.flush()

	if n.Async {
		g.async = true
	}

	iterable := g.evalFn(n.Iterable)
	valueVar := n.ValueVar
	indexVar := n.IndexVar

	if indexVar != "" {
		g.src.linef("for %s, %s := range %s {", indexVar, valueVar, g.exprText(n.Iterable))
	} else {
		g.src.linef("for _, %s := range %s {", valueVar, g.exprText(n.Iterable))
	}
	g.src.indent++
	if len(n.Children) == 0 {
		g.src.linef("// pass")
	}
	body, err := g.genNodes(n.Children)
	if err != nil {
		return err
	}
	g.src.indent--
	g.src.linef("}")

	gb.append(func(rc *renderContext) error {
		v, err := iterable(rc)
		if err != nil {
			return err
		}
		if v == nil {
			return nil
		}

		// Loop bindings shadow outer scope entries for the duration of the
		// loop and are restored afterwards.
		restore := shadow(rc.scope, valueVar, indexVar)
		defer restore()

		iterate := func(index, value any) error {
			rc.scope[valueVar] = value
			if indexVar != "" {
				rc.scope[indexVar] = index
			}
			return body.run(rc)
		}

		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				if err := iterate(i, rv.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		case reflect.Map:
			keys := rv.MapKeys()
			sort.Slice(keys, func(i, j int) bool {
				return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
			})
			for _, k := range keys {
				if err := iterate(k.Interface(), rv.MapIndex(k).Interface()); err != nil {
					return err
				}
			}
			return nil
		case reflect.Chan:
			// Asynchronous iteration: suspend on each receive, honoring
			// cancellation between fragments.
			i := 0
			recvCases := []reflect.SelectCase{
				{Dir: reflect.SelectRecv, Chan: rv},
				{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(rc.ctx.Done())},
			}
			for {
				chosen, item, ok := reflect.Select(recvCases)
				if chosen == 1 {
					return rc.ctx.Err()
				}
				if !ok {
					return nil
				}
				if err := iterate(i, item.Interface()); err != nil {
					return err
				}
				i++
			}
		case reflect.String:
			for i, r := range rv.String() {
				if err := iterate(i, string(r)); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("cannot iterate value of type %T", v)
		}
	})
	return nil
}

// shadow saves the current scope entries for the given names and returns a
// function restoring them (or deleting entries that did not exist).
func shadow(scope map[string]any, names ...string) func() {
	type saved struct {
		name  string
		value any
		had   bool
	}
	var entries []saved
	for _, name := range names {
		if name == "" {
			continue
		}
		v, had := scope[name]
		entries = append(entries, saved{name: name, value: v, had: had})
	}
	return func() {
		for _, e := range entries {
			if e.had {
				scope[e.name] = e.value
			} else {
				delete(scope, e.name)
			}
		}
	}
}
