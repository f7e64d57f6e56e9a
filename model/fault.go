package model

import (
	"fmt"

	"safemc/choice"
)

// Determines how the activation of a fault is decided
type Activation int

const (
	// The activation is resolved by the choice resolver, so both outcomes are explored
	Nondeterministic Activation = iota
	// The fault is active whenever it is tried
	Forced
	// The fault never activates
	Suppressed
)

func (a Activation) String() string {
	switch a {
	case Nondeterministic:
		return "nondeterministic"
	case Forced:
		return "forced"
	case Suppressed:
		return "suppressed"
	}
	return fmt.Sprintf("Activation(%d)", int(a))
}

// Declares a fault of a model.
//
// If Probability is positive the activation is a probabilistic decision, otherwise a nondeterministic one.
type FaultSpec struct {
	Name        string
	Probability float64
}

// A fault of a model instance.
//
// The activation of a fault is decided at most once per step, the first time the model tries to activate it.
type Fault struct {
	Name        string
	Identifier  int
	Activation  Activation
	Probability float64

	tried       bool
	activated   bool
	choiceIndex int

	onActivated []func()
}

func newFault(spec FaultSpec, id int) *Fault {
	return &Fault{
		Name:        spec.Name,
		Identifier:  id,
		Activation:  Nondeterministic,
		Probability: spec.Probability,
		choiceIndex: -1,
	}
}

// Decide whether the fault is active in the current step.
//
// Forced and suppressed faults are decided without a choice.
// Nondeterministic faults create a decision with the alternatives "not activated" (0) and "activated" (1).
func (f *Fault) TryActivate(r *choice.Resolver) bool {
	if f.tried {
		return f.activated
	}
	f.tried = true
	switch f.Activation {
	case Forced:
		f.activated = true
	case Suppressed:
		f.activated = false
	default:
		var c int
		if f.Probability > 0 {
			c = r.HandleProbabilisticChoice(2)
			if c == 1 {
				r.SetProbabilityOfLastChoice(f.Probability)
			} else {
				r.SetProbabilityOfLastChoice(1 - f.Probability)
			}
		} else {
			c = r.HandleChoice(2)
		}
		f.choiceIndex = r.LastChoiceIndex()
		f.activated = c == 1
	}
	return f.activated
}

// Collapse the activation decision of this step.
//
// Used when the model determines that activating the fault has no effect in the current state,
// so the untaken alternative would only reproduce already known successors.
func (f *Fault) Forward(r *choice.Resolver) {
	if f.tried && f.choiceIndex >= 0 {
		r.ForwardUntakenChoicesAtIndex(f.choiceIndex)
	}
}

func (f *Fault) IsActivated() bool {
	return f.activated
}

// Register an observer that is notified every time the fault is activated.
// A fault with observers is activation-sensitive.
func (f *Fault) OnActivated(observer func()) {
	f.onActivated = append(f.onActivated, observer)
}

func (f *Fault) IsActivationSensitive() bool {
	return len(f.onActivated) > 0
}

func (f *Fault) beginStep() {
	f.tried = false
	f.activated = false
	f.choiceIndex = -1
}

func (f *Fault) notify() bool {
	if !f.activated || len(f.onActivated) == 0 {
		return false
	}
	for _, o := range f.onActivated {
		o()
	}
	return true
}

func (f *Fault) String() string {
	return fmt.Sprintf("%v(%v)", f.Name, f.Activation)
}
