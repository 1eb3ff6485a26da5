package tool

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Definition is the wire shape of a tool sent to the model-facing layer.
type Definition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef is the function block inside a Definition.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Registry holds registered tools. Definitions are immutable once
// registered; the registry can only hide them (disable) or remove them
// (allow-list filtering at startup).
// It is instance-based (not global) for better testability.
type Registry struct {
	mu       sync.RWMutex
	active   map[string]Tool
	disabled map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		active:   make(map[string]Tool),
		disabled: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) error {
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return ErrEmptyToolName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	if _, exists := r.disabled[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.active[name] = t
	return nil
}

// Get returns the active tool with the given name. Disabled tools are
// invisible: looking one up returns ErrToolNotFound just like an
// unknown name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.active[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Disable moves a tool from the active table to the disabled side table.
func (r *Registry) Disable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.active[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	delete(r.active, name)
	r.disabled[name] = t
	return nil
}

// Enable moves a previously disabled tool back to the active table,
// restoring its original definition untouched.
func (r *Registry) Enable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.disabled[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotDisabled, name)
	}
	delete(r.disabled, name)
	r.active[name] = t
	return nil
}

// FilterAllowed removes every tool whose name is not in names.
// An empty allow-list keeps everything. Intended for startup, before
// the first model turn.
func (r *Registry) FilterAllowed(names []string) {
	if len(names) == 0 {
		return
	}

	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[strings.TrimSpace(n)] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range r.active {
		if _, ok := allowed[name]; !ok {
			delete(r.active, name)
		}
	}
	for name := range r.disabled {
		if _, ok := allowed[name]; !ok {
			delete(r.disabled, name)
		}
	}
}

// Definitions returns the wire definitions of all active tools sorted
// by name, ready to send to the model-facing layer.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.active))
	for name, t := range r.active {
		defs = append(defs, Definition{
			Type: "function",
			Function: FunctionDef{
				Name:        name,
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		})
	}
	slices.SortFunc(defs, func(a, b Definition) int {
		return cmp.Compare(a.Function.Name, b.Function.Name)
	})
	return defs
}

// Names returns all active tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.active)
}

// DisabledNames returns all disabled tool names sorted alphabetically.
func (r *Registry) DisabledNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.disabled)
}

func sortedKeys(m map[string]Tool) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
