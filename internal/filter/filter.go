// Package filter narrows a dataset by a set of user-adjustable constraints.
//
// The engine is generic over the row type: a Schema describes which fields
// are searchable, which are enum-like and which are numeric ranges, and a Set
// holds the values the user picked. Apply is pure and recomputes the whole
// filtered view on every call.
package filter

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// All is the enum sentinel meaning "no constraint".
const All = "All"

// ErrInvertedRange is returned under PolicyReject when a range has min > max.
var ErrInvertedRange = errors.New("range minimum exceeds maximum")

// Policy decides what an inverted range (min > max) means.
type Policy string

const (
	// PolicyEmpty lets an inverted range through as-is: it matches nothing.
	PolicyEmpty Policy = "empty"
	// PolicySwap swaps the bounds before filtering.
	PolicySwap Policy = "swap"
	// PolicyReject fails the whole filter with ErrInvertedRange.
	PolicyReject Policy = "reject"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyEmpty, PolicySwap, PolicyReject:
		return p, nil
	case "":
		return PolicyEmpty, nil
	default:
		return "", fmt.Errorf("unknown range policy %q (want empty, swap or reject)", s)
	}
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Inverted reports whether Min > Max.
func (r Range) Inverted() bool {
	return r.Min > r.Max
}

// TextField is a field matched by free-text search.
type TextField[T any] struct {
	Name  string
	Value func(T) string
}

// EnumField is a field matched exactly against a selected value.
type EnumField[T any] struct {
	Name  string
	Value func(T) string
}

// RangeField is a numeric field constrained to an inclusive range.
// Bounds is the full slider extent used by Schema.DefaultSet. A range equal
// to Bounds constrains nothing, so values outside the extent (or NaN) still
// pass until the user narrows it.
type RangeField[T any] struct {
	Name   string
	Value  func(T) float64
	Bounds Range
}

func (f RangeField[T]) fullExtent(r Range) bool {
	return f.Bounds != (Range{}) && r == f.Bounds
}

// Schema describes the filterable fields of T.
type Schema[T any] struct {
	Text   []TextField[T]
	Enums  []EnumField[T]
	Ranges []RangeField[T]
}

// DefaultSet returns the permissive filter set: empty search, every enum on
// All and every range at its schema bounds. Applying it returns all of the
// data.
func (s Schema[T]) DefaultSet() Set {
	set := Set{
		Enums:  make(map[string]string, len(s.Enums)),
		Ranges: make(map[string]Range, len(s.Ranges)),
	}
	for _, f := range s.Enums {
		set.Enums[f.Name] = All
	}
	for _, f := range s.Ranges {
		set.Ranges[f.Name] = f.Bounds
	}
	return set
}

// Set holds the active constraints. Fields absent from the maps are unconstrained.
type Set struct {
	Search string            `json:"search,omitempty"`
	Enums  map[string]string `json:"enums,omitempty"`
	Ranges map[string]Range  `json:"ranges,omitempty"`
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	return Set{
		Search: s.Search,
		Enums:  maps.Clone(s.Enums),
		Ranges: maps.Clone(s.Ranges),
	}
}

// WithSearch returns a copy of s with the search text replaced.
func (s Set) WithSearch(text string) Set {
	c := s.Clone()
	c.Search = text
	return c
}

// WithEnum returns a copy of s with one enum selection replaced.
func (s Set) WithEnum(field, value string) Set {
	c := s.Clone()
	if c.Enums == nil {
		c.Enums = map[string]string{}
	}
	c.Enums[field] = value
	return c
}

// WithRange returns a copy of s with one range replaced.
func (s Set) WithRange(field string, r Range) Set {
	c := s.Clone()
	if c.Ranges == nil {
		c.Ranges = map[string]Range{}
	}
	c.Ranges[field] = r
	return c
}

// Engine applies filter sets to datasets of T.
type Engine[T any] struct {
	schema Schema[T]
	policy Policy
}

// New creates an engine for schema. An empty policy means PolicyEmpty.
func New[T any](schema Schema[T], policy Policy) *Engine[T] {
	if policy == "" {
		policy = PolicyEmpty
	}
	return &Engine[T]{schema: schema, policy: policy}
}

// Schema returns the engine's field schema.
func (e *Engine[T]) Schema() Schema[T] {
	return e.schema
}

// Policy returns the inverted-range policy in effect.
func (e *Engine[T]) Policy() Policy {
	return e.policy
}

type rangeCheck[T any] struct {
	value func(T) float64
	r     Range
}

type enumCheck[T any] struct {
	value func(T) string
	want  string
}

// Apply returns the rows of data that satisfy every constraint in set, in
// their original order. The result is always a fresh slice; data is never
// modified. An empty dataset yields an empty result and no error.
func (e *Engine[T]) Apply(data []T, set Set) ([]T, error) {
	search := strings.ToLower(strings.TrimSpace(set.Search))

	var enums []enumCheck[T]
	for _, f := range e.schema.Enums {
		want, ok := set.Enums[f.Name]
		if !ok || want == "" || want == All {
			continue
		}
		enums = append(enums, enumCheck[T]{value: f.Value, want: want})
	}

	var ranges []rangeCheck[T]
	for _, f := range e.schema.Ranges {
		r, ok := set.Ranges[f.Name]
		if !ok || f.fullExtent(r) {
			continue
		}
		if r.Inverted() {
			switch e.policy {
			case PolicyReject:
				return nil, fmt.Errorf("%s [%g, %g]: %w", f.Name, r.Min, r.Max, ErrInvertedRange)
			case PolicySwap:
				r = Range{Min: r.Max, Max: r.Min}
			}
		}
		ranges = append(ranges, rangeCheck[T]{value: f.Value, r: r})
	}

	out := make([]T, 0, len(data))
	for _, row := range data {
		if e.matches(row, search, enums, ranges) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (e *Engine[T]) matches(row T, search string, enums []enumCheck[T], ranges []rangeCheck[T]) bool {
	if search != "" && !e.matchesText(row, search) {
		return false
	}
	for _, c := range enums {
		if c.value(row) != c.want {
			return false
		}
	}
	for _, c := range ranges {
		if !c.r.Contains(c.value(row)) {
			return false
		}
	}
	return true
}

func (e *Engine[T]) matchesText(row T, search string) bool {
	for _, f := range e.schema.Text {
		if strings.Contains(strings.ToLower(f.Value(row)), search) {
			return true
		}
	}
	return false
}
