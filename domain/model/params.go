package model

import (
	"math"
	"sort"
)

// Param declares a model parameter with a starting value and an allowed range.
// A parameter with Min == Max is constant.
type Param struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// IsConstant reports whether the parameter is frozen to a single value
func (p Param) IsConstant() bool {
	return p.Min == p.Max
}

// ParamSet is an immutable assignment of values to named parameters.
// Every mutating operation returns a fresh copy, so a snapshot taken from a
// ParamSet can never alias live fit state.
type ParamSet struct {
	values map[string]float64
}

// NewParamSet creates an empty parameter assignment
func NewParamSet() ParamSet {
	return ParamSet{values: map[string]float64{}}
}

// ParamSetFrom creates a parameter assignment from a value map (copied)
func ParamSetFrom(values map[string]float64) ParamSet {
	ps := NewParamSet()
	for name, v := range values {
		ps.values[name] = v
	}
	return ps
}

// InitialValues builds a ParamSet from parameter declarations
func InitialValues(params []Param) ParamSet {
	ps := NewParamSet()
	for _, p := range params {
		ps.values[p.Name] = p.Value
	}
	return ps
}

// With returns a copy of the set with one value replaced or added
func (ps ParamSet) With(name string, value float64) ParamSet {
	out := ps.clone()
	out.values[name] = value
	return out
}

// Merge returns a copy with every value from other overlaid on the receiver
func (ps ParamSet) Merge(other ParamSet) ParamSet {
	out := ps.clone()
	for name, v := range other.values {
		out.values[name] = v
	}
	return out
}

// Restrict returns a copy holding only the named parameters
func (ps ParamSet) Restrict(names []string) ParamSet {
	out := NewParamSet()
	for _, name := range names {
		if v, ok := ps.values[name]; ok {
			out.values[name] = v
		}
	}
	return out
}

// Value looks up a parameter value
func (ps ParamSet) Value(name string) (float64, bool) {
	v, ok := ps.values[name]
	return v, ok
}

// Len returns the number of assigned parameters
func (ps ParamSet) Len() int {
	return len(ps.values)
}

// Names returns the assigned parameter names in sorted order
func (ps ParamSet) Names() []string {
	names := make([]string, 0, len(ps.values))
	for name := range ps.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AsMap returns a copy of the underlying values
func (ps ParamSet) AsMap() map[string]float64 {
	out := make(map[string]float64, len(ps.values))
	for name, v := range ps.values {
		out[name] = v
	}
	return out
}

// at resolves a value for expression evaluation; a missing parameter yields
// NaN so the error surfaces in the likelihood instead of being absorbed.
func (ps ParamSet) at(name string) float64 {
	if v, ok := ps.values[name]; ok {
		return v
	}
	return math.NaN()
}

func (ps ParamSet) clone() ParamSet {
	out := make(map[string]float64, len(ps.values)+1)
	for name, v := range ps.values {
		out[name] = v
	}
	return ParamSet{values: out}
}
