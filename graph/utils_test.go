package graph

import (
	"testing"

	"github.com/bits-and-blooms/bitset"

	"safemc/exploration"
	"safemc/markov"
)

type arc struct {
	target int
	p      float64
	// nondeterministic resolution, nil for probabilistic transitions
	signature []int
}

// Build a complete state space by hand. State 0 is the only initial state.
func stateSpace(transitions [][]arc) *exploration.StateSpace {
	space := &exploration.StateSpace{
		Model:       "handmade",
		Labels:      make([]uint64, len(transitions)),
		Transitions: make([][]exploration.Transition, len(transitions)),
		Initial:     []exploration.Transition{{Target: 0, Probability: 1}},
		Hazard:      -1,
		Complete:    true,
	}
	for s, arcs := range transitions {
		for _, a := range arcs {
			space.Transitions[s] = append(space.Transitions[s], exploration.Transition{Target: a.target, Probability: a.p, Signature: a.signature})
		}
	}
	return space
}

func dtmcGraph(t *testing.T, transitions [][]arc) *Graph {
	t.Helper()
	dtmc, err := markov.BuildDTMC(stateSpace(transitions), markov.BuildConfig{})
	if err != nil {
		t.Fatalf("Unexpected error building DTMC: %v", err)
	}
	return FromDTMC(dtmc)
}

func mdpGraph(t *testing.T, transitions [][]arc) *Graph {
	t.Helper()
	mdp, err := markov.BuildMDP(stateSpace(transitions), markov.BuildConfig{})
	if err != nil {
		t.Fatalf("Unexpected error building MDP: %v", err)
	}
	return FromMDP(mdp)
}

func set(nodes ...uint) *bitset.BitSet {
	b := bitset.New(8)
	for _, n := range nodes {
		b.Set(n)
	}
	return b
}

func members(b *bitset.BitSet) []int {
	out := []int{}
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
