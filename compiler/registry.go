package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps component names to compiled artifacts. Lookups are
// case-insensitive because the HTML tokenizer lowercases tag names, so a
// template written as <UserCard> reaches the registry as "usercard".
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Component
	log    zerolog.Logger
}

// NewRegistry returns an empty registry logging through the given logger.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		byName: make(map[string]*Component),
		log:    log,
	}
}

// Register adds a compiled component under its name, replacing any previous
// registration of the same name.
func (r *Registry) Register(c *Component) {
	key := strings.ToLower(c.Name)
	r.mu.Lock()
	r.byName[key] = c
	r.mu.Unlock()
	r.log.Debug().
		Str("component", c.Name).
		Str("file", c.File).
		Str("id", c.ID.String()).
		Msg("registered component")
}

// Resolve looks up a component by name.
func (r *Registry) Resolve(name string) (*Component, error) {
	r.mu.RLock()
	c, ok := r.byName[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, &ComponentNotFoundError{Name: name}
	}
	return c, nil
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for _, c := range r.byName {
		names = append(names, c.Name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// LoadDir parses and compiles every *.hyper file directly under dir and
// registers the result. The component name is the file's base name. Files are
// parsed in one pass first so every component can reference every other
// regardless of compile order.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading component directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hyper") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[strings.ToLower(strings.TrimSuffix(f, ".hyper"))] = true
	}

	for _, f := range files {
		path := filepath.Join(dir, f)
		name := strings.TrimSuffix(f, ".hyper")

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		tpl, err := ParseTemplate(name, path, string(src), known)
		if err != nil {
			return err
		}

		comp, err := Compile(tpl, deriveSlotDecls(tpl), CompileOptions{Registry: r})
		if err != nil {
			return err
		}
		r.Register(comp)
		r.log.Debug().
			Str("component", comp.Name).
			Str("id", comp.ID.String()).
			Int("expressions", len(tpl.Exprs)).
			Bool("async", comp.Async).
			Msg("compiled component")
	}
	return nil
}
