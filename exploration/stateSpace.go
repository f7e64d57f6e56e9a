package exploration

import (
	"github.com/google/uuid"

	"safemc/choice"
	"safemc/stateManager"
)

// An outgoing transition of a state
type Transition struct {
	Target      int
	Probability float64
	// Resolution of the nondeterministic choices taken by the transition
	Signature []int
	// All decisions taken by the transition.
	// Only recorded for the states with at least one nondeterministic transition.
	Decisions []choice.Decision
}

// The result of an exploration
type StateSpace struct {
	SessionId    uuid.UUID
	Model        string
	Propositions []string

	Storage *stateManager.Storage
	// Labels[s] has bit i set if proposition i holds in state s
	Labels []uint64
	// Transitions[s] are the outgoing transitions of state s
	Transitions [][]Transition
	// Transitions of the initial step from the construction state
	Initial []Transition

	// Name of the hazard proposition, empty if the exploration did not search for one
	HazardProposition string
	// First state discovered in which the hazard holds, -1 if none
	Hazard int
	// The first panic raised by the model, if any
	Exception *ModelPanicError
	// False if the exploration stopped before all reachable states were explored
	Complete bool
}

func (s *StateSpace) StateCount() int {
	return len(s.Labels)
}

func (s *StateSpace) TransitionCount() int {
	n := len(s.Initial)
	for _, t := range s.Transitions {
		n += len(t)
	}
	return n
}

// The serialized states on the path through which state was first discovered, starting with an initial state.
func (s *StateSpace) PathTo(state int) [][]byte {
	indices := []int{}
	for current := state; current >= 0; current = s.Storage.Parent(current) {
		indices = append(indices, current)
	}
	path := make([][]byte, len(indices))
	for i, index := range indices {
		stored := s.Storage.Get(index)
		vector := make([]byte, len(stored))
		copy(vector, stored)
		path[len(indices)-1-i] = vector
	}
	return path
}

// Reports whether the proposition with the given index holds in state
func (s *StateSpace) Holds(state, proposition int) bool {
	return s.Labels[state]&(1<<uint(proposition)) != 0
}
