package exploration

import (
	"encoding/binary"

	"safemc/choice"
	"safemc/model"
	"safemc/stateVector"
)

type ring struct {
	N int32
}

// A counter modulo size that advances by 1 or 2 in every step.
// If panicAt is non-negative the step from that value panics.
func ringDefinition(size int32, panicAt int32) *model.Definition[ring] {
	return &model.Definition[ring]{
		Name: "ring",
		New:  func() *ring { return &ring{} },
		Layout: stateVector.NewLayout(4,
			stateVector.Int32("n", func(r *ring) int32 { return r.N }, func(r *ring, v int32) { r.N = v }),
		),
		Step: func(ctx *model.Context[ring]) {
			if ctx.Model.N == panicAt {
				panic("ring broke")
			}
			c, _ := choice.Choose(ctx.Resolver, int32(1), int32(2))
			ctx.Model.N = (ctx.Model.N + c) % size
		},
		Propositions: []model.Proposition[ring]{
			{Name: "five", Holds: func(r *ring) bool { return r.N == 5 }},
			{Name: "even", Holds: func(r *ring) bool { return r.N%2 == 0 }},
		},
	}
}

func ringValue(vector []byte) int32 {
	return int32(binary.LittleEndian.Uint32(vector[4:]))
}

// 0 selects one of two components, only component 0 can move to 1. Nothing can move in 1.
func gateDefinition() *model.Definition[ring] {
	return &model.Definition[ring]{
		Name: "gate",
		New:  func() *ring { return &ring{} },
		Layout: stateVector.NewLayout(4,
			stateVector.Int32("n", func(r *ring) int32 { return r.N }, func(r *ring, v int32) { r.N = v }),
		),
		Step: func(ctx *model.Context[ring]) {
			if ctx.Model.N == 0 {
				if component, _ := choice.Choose(ctx.Resolver, 0, 1); component == 0 {
					ctx.Model.N = 1
					return
				}
			}
			if next, ok := choice.Choose[int32](ctx.Resolver); ok {
				ctx.Model.N = next
			}
		},
	}
}
