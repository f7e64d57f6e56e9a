package counterExample

import (
	"safemc/arena"
	"safemc/choice"
	"safemc/model"
	"safemc/stateVector"
)

type counter struct {
	N int32
}

// Counts up by 0, 1 or 2 in every step. Panics when the counter would exceed 5.
func counterDefinition(stride int32) *model.Definition[counter] {
	return &model.Definition[counter]{
		Name: "counter",
		New:  func() *counter { return &counter{} },
		Layout: stateVector.NewLayout(4,
			stateVector.Int32("n", func(c *counter) int32 { return c.N }, func(c *counter, v int32) { c.N = v }),
		),
		Initial: func(ctx *model.Context[counter]) {
			ctx.Model.N, _ = choice.Choose(ctx.Resolver, int32(0), int32(1))
		},
		Step: func(ctx *model.Context[counter]) {
			c, _ := choice.Choose(ctx.Resolver, int32(0), int32(1), int32(2))
			if ctx.Model.N+c*stride > 5 {
				panic("counter overflow")
			}
			ctx.Model.N += c * stride
		},
	}
}

func counterState(m *model.Instance[counter], n int32) []byte {
	buf := arena.New(m.StateVectorSize())
	m.Model().N = n
	m.Serialize(buf)
	return clone(buf.Bytes())
}

func counterPath(m *model.Instance[counter], values ...int32) [][]byte {
	path := [][]byte{}
	for _, v := range values {
		path = append(path, counterState(m, v))
	}
	return path
}
