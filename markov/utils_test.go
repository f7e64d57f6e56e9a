package markov

import (
	"context"
	"testing"

	"safemc/choice"
	"safemc/exploration"
	"safemc/model"
	"safemc/stateVector"
)

type switchState struct {
	S int8
}

func switchLayout() *stateVector.Layout[switchState] {
	return stateVector.NewLayout(4,
		stateVector.Int8("s", func(m *switchState) int8 { return m.S }, func(m *switchState, v int8) { m.S = v }),
	)
}

func switchDefinition(name string, step func(ctx *model.Context[switchState])) *model.Definition[switchState] {
	return &model.Definition[switchState]{
		Name:   name,
		New:    func() *switchState { return &switchState{} },
		Layout: switchLayout(),
		Step:   step,
		Propositions: []model.Proposition[switchState]{
			{Name: "one", Holds: func(m *switchState) bool { return m.S == 1 }},
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

// The nondeterministic choice between 1 and 2 is only reached after heads
func flipThenPick() *model.Definition[switchState] {
	return switchDefinition("flipThenPick", func(ctx *model.Context[switchState]) {
		if ctx.Model.S != 0 {
			return
		}
		heads, _ := choice.ChooseProbabilistic(ctx.Resolver,
			choice.WithProbability(true, 0.5),
			choice.WithProbability(false, 0.5),
		)
		if heads {
			ctx.Model.S, _ = choice.Choose(ctx.Resolver, int8(1), int8(2))
		}
	})
}

// A fair coin followed by a nondeterministic choice between 1 and 2 after heads and between 0 and 3 after tails
func flipThenPickEach() *model.Definition[switchState] {
	return switchDefinition("flipThenPickEach", func(ctx *model.Context[switchState]) {
		if ctx.Model.S != 0 {
			return
		}
		heads, _ := choice.ChooseProbabilistic(ctx.Resolver,
			choice.WithProbability(true, 0.5),
			choice.WithProbability(false, 0.5),
		)
		if heads {
			ctx.Model.S, _ = choice.Choose(ctx.Resolver, int8(1), int8(2))
		} else {
			ctx.Model.S, _ = choice.Choose(ctx.Resolver, int8(0), int8(3))
		}
	})
}

// A coin whose sides both claim probability 0.3
func leakyCoin() *model.Definition[switchState] {
	return switchDefinition("leakyCoin", func(ctx *model.Context[switchState]) {
		if ctx.Model.S != 0 {
			return
		}
		ctx.Model.S = int8(ctx.Resolver.HandleProbabilisticChoice(2))
		ctx.Resolver.SetProbabilityOfLastChoice(0.3)
	})
}

func explore(t *testing.T, def *model.Definition[switchState]) *exploration.StateSpace {
	t.Helper()
	space, err := exploration.Explore(context.Background(), def.Factory(nil), 16)
	if err != nil {
		t.Fatalf("Unexpected error exploring %v: %v", def.Name, err)
	}
	return space
}
