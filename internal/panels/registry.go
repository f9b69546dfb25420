package panels

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

var (
	// ErrPanelNotFound is returned for names that are not registered.
	ErrPanelNotFound = errors.New("panel not found")

	// ErrNoSource is returned when documents are requested for a panel
	// without a database source.
	ErrNoSource = errors.New("panel has no source")
)

// Panel is a registered definition with its options already merged.
type Panel struct {
	Definition
	Options core.Options
}

// Registry holds panels by name. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	panels   map[string]Panel
	defaults core.Options
}

// NewRegistry creates an empty registry whose panels inherit defaults.
func NewRegistry(defaults core.Options) *Registry {
	return &Registry{
		panels:   make(map[string]Panel),
		defaults: defaults,
	}
}

// Register merges def over the registry defaults and adds it.
// Returns an error if the options are invalid or the name is taken.
func (r *Registry) Register(def Definition) error {
	opts, err := def.MergeOptions(r.defaults)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.panels[def.Name]; exists {
		return fmt.Errorf("panel already registered: %s", def.Name)
	}
	r.panels[def.Name] = Panel{Definition: def, Options: opts}
	return nil
}

// RegisterAll registers every definition, reporting all failures together.
func (r *Registry) RegisterAll(defs []Definition) error {
	var errs []error
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns a panel by name.
// Returns false if not found.
func (r *Registry) Get(name string) (Panel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.panels[name]
	return p, ok
}

// All returns all registered panels sorted by name.
func (r *Registry) All() []Panel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Panel, 0, len(r.panels))
	for _, p := range r.panels {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Count returns the number of registered panels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.panels)
}

// CheckLookups returns an invalid options error unless every lookup reads a
// source, match column and display column that some registered panel already
// declares. Ad-hoc options may reuse configured lookups but never name new
// tables or columns.
func (r *Registry) CheckLookups(lookups map[string]core.LookupDescriptor) error {
	if len(lookups) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range slices.Sorted(maps.Keys(lookups)) {
		if !r.declares(lookups[key]) {
			return fmt.Errorf("%w: lookup %q on source %q is not declared by a registered panel",
				core.ErrInvalidOptions, key, lookups[key].Source)
		}
	}
	return nil
}

func (r *Registry) declares(d core.LookupDescriptor) bool {
	for _, p := range r.panels {
		for _, declared := range p.Lookups {
			if declared.Source == d.Source && declared.MatchField == d.MatchField && declared.DisplayField == d.DisplayField {
				return true
			}
		}
	}
	return false
}

// Defaults returns the options unregistered data is rendered with.
func (r *Registry) Defaults() core.Options {
	return r.defaults.Clone()
}

// LoadRegistry builds a registry from the definitions file at path. An
// empty path yields an empty registry.
func LoadRegistry(path string, defaults core.Options) (*Registry, error) {
	r := NewRegistry(defaults)
	if path == "" {
		return r, nil
	}

	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterAll(f.Panels); err != nil {
		return nil, err
	}
	return r, nil
}
