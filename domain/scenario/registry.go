package scenario

import (
	"sort"
	"sync"
)

// Registry manages scenario definitions and provides lookup functionality.
type Registry struct {
	scenarios map[string]*Scenario
	mu        sync.RWMutex
}

// NewRegistry creates a new empty scenario registry.
func NewRegistry() *Registry {
	return &Registry{
		scenarios: make(map[string]*Scenario),
	}
}

// Register adds a scenario to the registry.
// If a scenario with the same name exists, it will be replaced.
func (r *Registry) Register(scn *Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[scn.Name] = scn
}

// RegisterAll adds multiple scenarios to the registry.
func (r *Registry) RegisterAll(scenarios []*Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, scn := range scenarios {
		r.scenarios[scn.Name] = scn
	}
}

// Get retrieves a scenario by name.
// Returns nil if not found.
func (r *Registry) Get(name string) *Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scenarios[name]
}

// List returns all registered scenario names, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered scenarios.
func (r *Registry) All() []*Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scenarios := make([]*Scenario, 0, len(r.scenarios))
	for _, scn := range r.scenarios {
		scenarios = append(scenarios, scn)
	}
	return scenarios
}

// Count returns the number of registered scenarios.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenarios)
}

// Exists checks if a scenario with the given name exists.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.scenarios[name]
	return ok
}

// Clear removes all scenarios from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios = make(map[string]*Scenario)
}
