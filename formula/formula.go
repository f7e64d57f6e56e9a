package formula

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"safemc/model"
)

// A state formula evaluated on the state of a model
type Formula[M any] func(m *M) bool

func Atomic[M any](holds func(m *M) bool) Formula[M] {
	return Formula[M](holds)
}

func True[M any]() Formula[M] {
	return func(*M) bool { return true }
}

func Not[M any](f Formula[M]) Formula[M] {
	return func(m *M) bool {
		return !f(m)
	}
}

// Holds if all the formulas hold. And() is true.
func And[M any](fs ...Formula[M]) Formula[M] {
	return func(m *M) bool {
		for _, f := range fs {
			if !f(m) {
				return false
			}
		}
		return true
	}
}

// Holds if one of the formulas holds. Or() is false.
func Or[M any](fs ...Formula[M]) Formula[M] {
	return func(m *M) bool {
		for _, f := range fs {
			if f(m) {
				return true
			}
		}
		return false
	}
}

func Implies[M any](a, b Formula[M]) Formula[M] {
	return func(m *M) bool {
		return !a(m) || b(m)
	}
}

// Check that cond holds for all elements of a state, e.g. for all components of a model.
func ForAll[M any, E any](elements func(m *M) []E, cond func(E) bool) Formula[M] {
	return func(m *M) bool {
		for _, e := range elements(m) {
			if !cond(e) {
				return false
			}
		}
		return true
	}
}

// Check that cond holds for at least one element of a state.
func Exists[M any, E any](elements func(m *M) []E, cond func(E) bool) Formula[M] {
	return Not(ForAll(elements, func(e E) bool { return !cond(e) }))
}

// Turn the formula into an atomic proposition of a model
func (f Formula[M]) Named(name string) model.Proposition[M] {
	return model.Proposition[M]{Name: name, Holds: f}
}

// Compile a set of named formulas into propositions.
// The propositions are ordered by name, so the label bit of a formula does not depend on map iteration order.
func Compile[M any](formulas map[string]Formula[M]) []model.Proposition[M] {
	names := maps.Keys(formulas)
	slices.Sort(names)
	out := make([]model.Proposition[M], len(names))
	for i, name := range names {
		out[i] = formulas[name].Named(name)
	}
	return out
}
