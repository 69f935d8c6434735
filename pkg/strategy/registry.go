package strategy

import (
	"fmt"
	"sort"
)

// Factory builds a strategy from a complete, validated parameter set.
type Factory func(params ParameterSet) (Strategy, error)

type registration struct {
	specs   []ParamSpec
	factory Factory
}

// Registry maps strategy names to their parameter schema and factory.
type Registry struct {
	entries map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

func (r *Registry) Register(name string, specs []ParamSpec, factory Factory) error {
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("strategy %q already registered", name)
	}
	r.entries[name] = registration{specs: specs, factory: factory}
	return nil
}

// Specs returns the declared parameters of a registered strategy.
func (r *Registry) Specs(name string) ([]ParamSpec, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return entry.specs, nil
}

// Names lists registered strategies in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New validates params against the schema, fills in defaults and builds the
// strategy.
func (r *Registry) New(name string, params ParameterSet) (Strategy, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	if err := ValidateParams(entry.specs, params); err != nil {
		return nil, fmt.Errorf("strategy %q: %w", name, err)
	}
	return entry.factory(ApplyDefaults(entry.specs, params))
}

// DefaultRegistry carries the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	mustRegister := func(name string, specs []ParamSpec, factory Factory) {
		if err := r.Register(name, specs, factory); err != nil {
			panic(err)
		}
	}
	mustRegister(maCrossName, maCrossSpecs, NewMaCross)
	mustRegister(meanReversionName, meanReversionSpecs, NewMeanReversion)
	mustRegister(rsiSwingName, rsiSwingSpecs, NewRsiSwing)
	return r
}
