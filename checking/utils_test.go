package checking

import (
	"context"
	"testing"

	"github.com/bits-and-blooms/bitset"

	"safemc/choice"
	"safemc/exploration"
	"safemc/graph"
	"safemc/markov"
	"safemc/model"
	"safemc/stateVector"
)

type arc struct {
	target    int
	p         float64
	signature []int
}

// Build a complete state space by hand. State 0 is the only initial state and proposition "goal" holds in the goal states.
func stateSpace(transitions [][]arc, goal ...int) *exploration.StateSpace {
	space := &exploration.StateSpace{
		Model:        "handmade",
		Propositions: []string{"goal"},
		Labels:       make([]uint64, len(transitions)),
		Transitions:  make([][]exploration.Transition, len(transitions)),
		Initial:      []exploration.Transition{{Target: 0, Probability: 1}},
		Hazard:       -1,
		Complete:     true,

		HazardProposition: "goal",
	}
	for s, arcs := range transitions {
		for _, a := range arcs {
			space.Transitions[s] = append(space.Transitions[s], exploration.Transition{Target: a.target, Probability: a.p, Signature: a.signature})
		}
	}
	for _, g := range goal {
		space.Labels[g] = 1
		if space.Hazard < 0 {
			space.Hazard = g
		}
	}
	return space
}

func buildDTMC(t *testing.T, space *exploration.StateSpace) *markov.DTMC {
	t.Helper()
	dtmc, err := markov.BuildDTMC(space, markov.BuildConfig{})
	if err != nil {
		t.Fatalf("Unexpected error building DTMC: %v", err)
	}
	return dtmc
}

func buildMDP(t *testing.T, space *exploration.StateSpace) *markov.MDP {
	t.Helper()
	mdp, err := markov.BuildMDP(space, markov.BuildConfig{})
	if err != nil {
		t.Fatalf("Unexpected error building MDP: %v", err)
	}
	return mdp
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

// 0 reaches the goal 2 through 1 with probability 0.5 and fails in 3 otherwise. 4 always reaches the goal
var chain = [][]arc{
	{{target: 1, p: 0.5}, {target: 3, p: 0.5}},
	{{target: 2, p: 1}},
	{},
	{},
	{{target: 2, p: 1}},
}

// In state 0 choice 0 reaches the goal 1 surely, choice 1 only with probability 0.5 and fails in 2 otherwise.
// In state 3 choice 0 reaches the goal, choice 1 loops forever.
var decisions = [][]arc{
	{
		{target: 1, p: 1, signature: []int{0}},
		{target: 1, p: 0.5, signature: []int{1}},
		{target: 2, p: 0.5, signature: []int{1}},
	},
	{},
	{},
	{
		{target: 1, p: 1, signature: []int{0}},
		{target: 3, p: 1, signature: []int{1}},
	},
}

func dtmcGraph(t *testing.T, transitions [][]arc) *graph.Graph {
	return graph.FromDTMC(buildDTMC(t, stateSpace(transitions)))
}

func mdpGraph(t *testing.T, transitions [][]arc) *graph.Graph {
	return graph.FromMDP(buildMDP(t, stateSpace(transitions)))
}

type switchState struct {
	S int8
}

func switchDefinition(name string, step func(ctx *model.Context[switchState])) *model.Definition[switchState] {
	return &model.Definition[switchState]{
		Name: name,
		New:  func() *switchState { return &switchState{} },
		Layout: stateVector.NewLayout(4,
			stateVector.Int8("s", func(m *switchState) int8 { return m.S }, func(m *switchState, v int8) { m.S = v }),
		),
		Step: step,
		Propositions: []model.Proposition[switchState]{
			{Name: "one", Holds: func(m *switchState) bool { return m.S == 1 }},
			{Name: "two", Holds: func(m *switchState) bool { return m.S == 2 }},
		},
	}
}

// State 0 moves to state 1 with probability 0.6 and stays with probability 0.4. State 1 is absorbing.
func twoState() *model.Definition[switchState] {
	return switchDefinition("twoState", func(ctx *model.Context[switchState]) {
		if ctx.Model.S == 0 {
			ctx.Model.S, _ = choice.ChooseProbabilistic(ctx.Resolver,
				choice.WithProbability(int8(1), 0.6),
				choice.WithProbability(int8(0), 0.4),
			)
		}
	})
}

// State 0 nondeterministically picks a target 1 or 2, which is reached if a fair coin shows heads.
func pickThenFlip() *model.Definition[switchState] {
	return switchDefinition("pickThenFlip", func(ctx *model.Context[switchState]) {
		if ctx.Model.S != 0 {
			return
		}
		target, _ := choice.Choose(ctx.Resolver, int8(1), int8(2))
		heads, _ := choice.ChooseProbabilistic(ctx.Resolver,
			choice.WithProbability(true, 0.5),
			choice.WithProbability(false, 0.5),
		)
		if heads {
			ctx.Model.S = target
		}
	})
}

func explore(t *testing.T, def *model.Definition[switchState], hazard string) *exploration.StateSpace {
	t.Helper()
	space, err := exploration.New(def.Factory(nil), exploration.Config{
		Workers:       2,
		StateCapacity: 16,
		Hazard:        hazard,
	}).Explore(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error exploring %v: %v", def.Name, err)
	}
	return space
}
