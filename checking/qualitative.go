package checking

import (
	"github.com/bits-and-blooms/bitset"

	"safemc/graph"
)

// Nodes outside phi, which may not be passed through on the way to psi.
// A nil phi allows every node.
func outside(phi, psi *bitset.BitSet) graph.NodeFilter {
	if phi == nil {
		return nil
	}
	return func(n int) bool {
		return !phi.Test(uint(n)) && !psi.Test(uint(n))
	}
}

func inside(phi *bitset.BitSet, n int) bool {
	return phi == nil || phi.Test(uint(n))
}

// Grow seed backwards, adding a predecessor whenever admit accepts it given the nodes reached so far.
// admit must be monotone in reached.
func grow(g *graph.Graph, seed *bitset.BitSet, admit func(node int, reached *bitset.BitSet) bool) *bitset.BitSet {
	reached := bitset.New(uint(g.Nodes()))
	stack := []int{}
	for n, ok := seed.NextSet(0); ok; n, ok = seed.NextSet(n + 1) {
		reached.Set(n)
		stack = append(stack, int(n))
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Predecessors(node) {
			if reached.Test(uint(e.Source)) {
				continue
			}
			if admit(e.Source, reached) {
				reached.Set(uint(e.Source))
				stack = append(stack, e.Source)
			}
		}
	}
	return reached
}

// States of a DTMC from which psi is reached with probability 0 along paths through phi
func Prob0(g *graph.Graph, phi, psi *bitset.BitSet) *bitset.BitSet {
	return g.GetAncestors(psi, outside(phi, psi), nil).Complement()
}

// States of a DTMC from which psi is reached with probability 1 along paths through phi.
// prob0 must be the result of Prob0 for the same arguments.
func Prob1(g *graph.Graph, phi, psi, prob0 *bitset.BitSet) *bitset.BitSet {
	// A state fails if it can reach a state of prob0 without passing through psi
	ignore := func(e graph.Edge) bool {
		return psi.Test(uint(e.Source)) || !inside(phi, e.Source)
	}
	return g.GetAncestors(prob0, nil, ignore).Complement()
}

// States of an MDP from which psi is reached with probability 0 under all schedulers, i.e. Pmax = 0
func Prob0A(g *graph.Graph, phi, psi *bitset.BitSet) *bitset.BitSet {
	return Prob0(g, phi, psi)
}

// States of an MDP from which psi is reached with probability 0 under some scheduler, i.e. Pmin = 0
func Prob0E(g *graph.Graph, phi, psi *bitset.BitSet) *bitset.BitSet {
	// A state reaches psi with positive probability under every scheduler if each of its choices has an edge into such a state
	positive := grow(g, psi, func(node int, reached *bitset.BitSet) bool {
		if !inside(phi, node) {
			return false
		}
		for _, row := range g.Choices(node) {
			if !rowHits(g, node, row, reached) {
				return false
			}
		}
		return true
	})
	return positive.Complement()
}

// States of an MDP from which psi is reached with probability 1 under some scheduler, i.e. Pmax = 1
func Prob1E(g *graph.Graph, phi, psi *bitset.BitSet) *bitset.BitSet {
	current := g.All()
	for {
		// Only follow choices that cannot leave the candidate set
		leaving := leavingRows(g, current)
		next := g.GetAncestors(psi, outside(phi, psi), func(e graph.Edge) bool {
			return leaving[e.Row]
		})
		if next.Equal(current) {
			return current
		}
		current = next
	}
}

// States of an MDP from which psi is reached with probability 1 under all schedulers, i.e. Pmin = 1
func Prob1A(g *graph.Graph, phi, psi *bitset.BitSet) *bitset.BitSet {
	current := g.All()
	for {
		next := grow(g, psi, func(node int, reached *bitset.BitSet) bool {
			if !inside(phi, node) {
				return false
			}
			for _, row := range g.Choices(node) {
				if !rowWithin(g, node, row, current) || !rowHits(g, node, row, reached) {
					return false
				}
			}
			return true
		})
		if next.Equal(current) {
			return current
		}
		current = next
	}
}

// Reports whether row of node has an edge into set
func rowHits(g *graph.Graph, node, row int, set *bitset.BitSet) bool {
	for _, e := range g.Successors(node) {
		if e.Row == row && set.Test(uint(e.Target)) {
			return true
		}
	}
	return false
}

// Reports whether every edge of row of node stays in set
func rowWithin(g *graph.Graph, node, row int, set *bitset.BitSet) bool {
	for _, e := range g.Successors(node) {
		if e.Row == row && !set.Test(uint(e.Target)) {
			return false
		}
	}
	return true
}

// The rows with an edge leaving set
func leavingRows(g *graph.Graph, set *bitset.BitSet) map[int]bool {
	leaving := map[int]bool{}
	for n := 0; n < g.Nodes(); n++ {
		for _, e := range g.Successors(n) {
			if !set.Test(uint(e.Target)) {
				leaving[e.Row] = true
			}
		}
	}
	return leaving
}
