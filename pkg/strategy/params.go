package strategy

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

type ParamType int

const (
	ParamInt ParamType = iota
	ParamNumber
)

func (t ParamType) String() string {
	switch t {
	case ParamInt:
		return "int"
	case ParamNumber:
		return "number"
	default:
		return "unknown"
	}
}

// ParamSpec declares one tunable parameter. Min and Max are inclusive; equal
// zero values on both mean unbounded.
type ParamSpec struct {
	Name    string
	Type    ParamType
	Default fixed.Point
	Min     fixed.Point
	Max     fixed.Point
}

func (s ParamSpec) bounded() bool {
	return !(s.Min.IsZero() && s.Max.IsZero())
}

// ParameterSet maps parameter names to values. Strategies read it through
// the typed accessors which fall back to the given default.
type ParameterSet map[string]fixed.Point

func (ps ParameterSet) Point(name string, def fixed.Point) fixed.Point {
	if v, ok := ps[name]; ok {
		return v
	}
	return def
}

func (ps ParameterSet) Int(name string, def int) int {
	v, ok := ps[name]
	if !ok {
		return def
	}
	f, _ := v.Float64()
	return int(f)
}

func (ps ParameterSet) Bool(name string, def bool) bool {
	v, ok := ps[name]
	if !ok {
		return def
	}
	return !v.IsZero()
}

// Clone returns an independent copy, used when a sweep perturbs one
// dimension at a time.
func (ps ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

// ApplyDefaults returns a set where every declared parameter is present,
// preferring explicit values over spec defaults.
func ApplyDefaults(specs []ParamSpec, ps ParameterSet) ParameterSet {
	out := make(ParameterSet, len(specs))
	for _, spec := range specs {
		out[spec.Name] = ps.Point(spec.Name, spec.Default)
	}
	return out
}

// ValidateParams rejects unknown names, out of range values and fractional
// values for integer parameters.
func ValidateParams(specs []ParamSpec, ps ParameterSet) error {
	byName := make(map[string]ParamSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}
	for name, value := range ps {
		spec, ok := byName[name]
		if !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		if spec.Type == ParamInt && !value.Eq(value.Rescale(0)) {
			return fmt.Errorf("parameter %q must be an integer, got %s", name, value)
		}
		if spec.bounded() && (value.Lt(spec.Min) || value.Gt(spec.Max)) {
			return fmt.Errorf("parameter %q value %s outside [%s, %s]", name, value, spec.Min, spec.Max)
		}
	}
	return nil
}
