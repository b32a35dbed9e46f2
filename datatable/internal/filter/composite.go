// Package filter composes row predicates with AND / OR logic.
package filter

import "fmt"

// LogicOp represents a logical operator for combining filters.
type LogicOp int

const (
	// LogicAND requires all filters to pass.
	LogicAND LogicOp = iota
	// LogicOR requires at least one filter to pass.
	LogicOR
)

// String returns the string representation of a LogicOp.
func (op LogicOp) String() string {
	switch op {
	case LogicAND:
		return "AND"
	case LogicOR:
		return "OR"
	default:
		return fmt.Sprintf("unknown(%d)", op)
	}
}

// Predicate reports whether a value passes a filter.
type Predicate[T any] func(T) bool

// Composite combines multiple predicates with AND or OR logic.
type Composite[T any] struct {
	// Filters is the list of predicates to combine.
	Filters []Predicate[T]

	// Logic specifies how to combine the predicates (AND or OR).
	Logic LogicOp
}

// All returns a composite that passes when every predicate passes.
func All[T any](filters ...Predicate[T]) *Composite[T] {
	return &Composite[T]{Filters: filters, Logic: LogicAND}
}

// Any returns a composite that passes when at least one predicate passes.
func Any[T any](filters ...Predicate[T]) *Composite[T] {
	return &Composite[T]{Filters: filters, Logic: LogicOR}
}

// Add appends a predicate to the composite.
func (f *Composite[T]) Add(p Predicate[T]) {
	f.Filters = append(f.Filters, p)
}

// Len returns the number of combined predicates.
func (f *Composite[T]) Len() int {
	return len(f.Filters)
}

// Evaluate reports whether v passes the composite.
// An empty composite passes everything.
func (f *Composite[T]) Evaluate(v T) bool {
	if len(f.Filters) == 0 {
		return true
	}

	switch f.Logic {
	case LogicAND:
		for _, p := range f.Filters {
			if !p(v) {
				return false // Short-circuit on first failure
			}
		}
		return true

	case LogicOR:
		for _, p := range f.Filters {
			if p(v) {
				return true // Short-circuit on first success
			}
		}
		return false

	default:
		return false
	}
}
