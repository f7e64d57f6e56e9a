package model

import (
	"safemc/arena"
	"safemc/choice"
)

// A model that can be explored by the engine.
//
// Every step may resolve an arbitrary number of decisions using the Resolver and must leave the model in a new, fully defined state.
// An ExecutableModel is owned by a single worker and is not safe for concurrent use.
type ExecutableModel interface {
	Name() string

	// Size of the state vector in bytes, including the header reserved for the exploration.
	StateVectorSize() int
	HeaderBytes() int
	Serialize(buf *arena.Buffer)
	Deserialize(buf *arena.Buffer)
	// Render the state stored in buf for diagnostics
	Describe(buf *arena.Buffer) string

	ExecuteInitialStep()
	ExecuteStep()
	// Restore the construction state
	Reset()

	Resolver() *choice.Resolver

	Faults() []*Fault
	NondeterministicFaults() []*Fault
	// Run the observers of the faults activated during the last step.
	// Returns true if any activation-sensitive fault fired.
	NotifyFaultActivations() bool

	// Names of the atomic propositions, in the order used by EvaluatePropositions
	Propositions() []string
	// Evaluate all propositions on the current state. Bit i is set if proposition i holds.
	EvaluatePropositions() uint64
}

// Creates independent model instances, one per worker.
type Factory func() ExecutableModel

// Creates factories for a fault activation configuration. Implemented by *Definition[M].
type Source interface {
	Factory(activations map[string]Activation) Factory
}

// Execute the initial step of m followed by the notification of activated faults.
func InitialStep(m ExecutableModel) bool {
	m.ExecuteInitialStep()
	return m.NotifyFaultActivations()
}

// Execute one step of m followed by the notification of activated faults.
func Step(m ExecutableModel) bool {
	m.ExecuteStep()
	return m.NotifyFaultActivations()
}

// Returns the index of the named proposition, or -1 if m has no such proposition.
func PropositionIndex(m ExecutableModel, name string) int {
	for i, p := range m.Propositions() {
		if p == name {
			return i
		}
	}
	return -1
}
