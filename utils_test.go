package safemc

import (
	"safemc/choice"
	"safemc/model"
	"safemc/stateVector"
)

type counter struct {
	N int8
}

// 0 moves to 1 or 2 with a fair coin, 1 moves to 3. 2 and 3 are absorbing.
// If panicAt is non-negative the step from that value panics.
func counterDefinition(panicAt int8) *model.Definition[counter] {
	return &model.Definition[counter]{
		Name: "counter",
		New:  func() *counter { return &counter{} },
		Layout: stateVector.NewLayout(0,
			stateVector.Int8("n", func(c *counter) int8 { return c.N }, func(c *counter, v int8) { c.N = v }),
		),
		Step: func(ctx *model.Context[counter]) {
			c := ctx.Model
			if c.N == panicAt {
				panic("counter broke")
			}
			switch c.N {
			case 0:
				c.N, _ = choice.ChooseProbabilistic(ctx.Resolver,
					choice.WithProbability(int8(1), 0.5),
					choice.WithProbability(int8(2), 0.5),
				)
			case 1:
				c.N = 3
			}
		},
		Propositions: []model.Proposition[counter]{
			{Name: "three", Holds: func(c *counter) bool { return c.N == 3 }},
			{Name: "seven", Holds: func(c *counter) bool { return c.N == 7 }},
		},
	}
}

// 0 selects one of two components. Component 0 moves to 1, component 1 has nothing to do.
func componentsDefinition() *model.Definition[counter] {
	return &model.Definition[counter]{
		Name: "components",
		New:  func() *counter { return &counter{} },
		Layout: stateVector.NewLayout(0,
			stateVector.Int8("n", func(c *counter) int8 { return c.N }, func(c *counter, v int8) { c.N = v }),
		),
		Step: func(ctx *model.Context[counter]) {
			c := ctx.Model
			if c.N != 0 {
				return
			}
			component, _ := choice.Choose(ctx.Resolver, 0, 1)
			if component == 0 {
				c.N = 1
				return
			}
			if next, ok := choice.Choose[int8](ctx.Resolver); ok {
				c.N = next
			}
		},
		Propositions: []model.Proposition[counter]{
			{Name: "one", Holds: func(c *counter) bool { return c.N == 1 }},
		},
	}
}

// 0 flips a coin but never provides its probability
func unsetProbabilityDefinition() *model.Definition[counter] {
	return &model.Definition[counter]{
		Name: "unsetProbability",
		New:  func() *counter { return &counter{} },
		Layout: stateVector.NewLayout(0,
			stateVector.Int8("n", func(c *counter) int8 { return c.N }, func(c *counter, v int8) { c.N = v }),
		),
		Step: func(ctx *model.Context[counter]) {
			if ctx.Model.N == 0 {
				ctx.Model.N = int8(1 + ctx.Resolver.HandleProbabilisticChoice(2))
			}
		},
		Propositions: []model.Proposition[counter]{
			{Name: "one", Holds: func(c *counter) bool { return c.N == 1 }},
		},
	}
}
