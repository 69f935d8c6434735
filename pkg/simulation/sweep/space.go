package sweep

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pavel-sokol/quantsim/pkg/strategy"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Dimension is one swept parameter and its candidate values.
type Dimension struct {
	Name   string
	Values []fixed.Point
}

// Range enumerates min to max inclusive in step increments.
func Range(name string, min, max, step fixed.Point) (Dimension, error) {
	if !step.IsPos() {
		return Dimension{}, fmt.Errorf("dimension %q: step must be positive", name)
	}
	if max.Lt(min) {
		return Dimension{}, fmt.Errorf("dimension %q: max %s below min %s", name, max, min)
	}
	var values []fixed.Point
	for v := min; v.Lte(max); v = v.Add(step) {
		values = append(values, v)
	}
	return Dimension{Name: name, Values: values}, nil
}

// Explicit lists candidate values directly.
func Explicit(name string, values ...fixed.Point) Dimension {
	return Dimension{Name: name, Values: values}
}

// Space is the Cartesian product of its dimensions. Enumeration order is
// deterministic: the last dimension varies fastest.
type Space struct {
	dims []Dimension
}

func NewSpace(dims ...Dimension) (*Space, error) {
	seen := make(map[string]struct{}, len(dims))
	for _, dim := range dims {
		if len(dim.Values) == 0 {
			return nil, fmt.Errorf("dimension %q has no values", dim.Name)
		}
		if _, ok := seen[dim.Name]; ok {
			return nil, fmt.Errorf("duplicate dimension %q", dim.Name)
		}
		seen[dim.Name] = struct{}{}
	}
	return &Space{dims: dims}, nil
}

func (s *Space) Size() int {
	if len(s.dims) == 0 {
		return 0
	}
	size := 1
	for _, dim := range s.dims {
		size *= len(dim.Values)
	}
	return size
}

// ParamNames returns the swept names in lexical order, used for stable table
// columns.
func (s *Space) ParamNames() []string {
	names := make([]string, 0, len(s.dims))
	for _, dim := range s.dims {
		names = append(names, dim.Name)
	}
	sort.Strings(names)
	return names
}

// Grid enumerates every combination.
func (s *Space) Grid() []strategy.ParameterSet {
	if len(s.dims) == 0 {
		return nil
	}
	sets := make([]strategy.ParameterSet, 0, s.Size())
	indices := make([]int, len(s.dims))
	for {
		set := make(strategy.ParameterSet, len(s.dims))
		for i, dim := range s.dims {
			set[dim.Name] = dim.Values[indices[i]]
		}
		sets = append(sets, set)

		carry := len(s.dims) - 1
		for carry >= 0 {
			indices[carry]++
			if indices[carry] < len(s.dims[carry].Values) {
				break
			}
			indices[carry] = 0
			carry--
		}
		if carry < 0 {
			return sets
		}
	}
}

// Sample draws n combinations uniformly from the grid using the seeded rng,
// so the same seed explores the same points.
func (s *Space) Sample(n int, seed int64) []strategy.ParameterSet {
	rng := rand.New(rand.NewSource(seed))
	sets := make([]strategy.ParameterSet, 0, n)
	for i := 0; i < n; i++ {
		set := make(strategy.ParameterSet, len(s.dims))
		for _, dim := range s.dims {
			set[dim.Name] = dim.Values[rng.Intn(len(dim.Values))]
		}
		sets = append(sets, set)
	}
	return sets
}
