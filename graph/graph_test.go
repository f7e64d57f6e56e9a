package graph

import (
	"testing"

	"golang.org/x/exp/slices"
)

// 0 -> 1 -> 2 with a detour 0 -> 3, 2 and 3 are absorbing and 4 is unreachable from the initial state
var chain = [][]arc{
	{{target: 1, p: 0.5}, {target: 3, p: 0.5}},
	{{target: 2, p: 1}},
	{},
	{},
	{{target: 2, p: 1}},
}

func TestFromDTMC(t *testing.T) {
	g := dtmcGraph(t, chain)
	if g.Nodes() != 5 {
		t.Fatalf("Unexpected number of nodes. Got: %v. Expected: %v", g.Nodes(), 5)
	}
	for i, test := range adjacencyTest {
		succ := []int{}
		for _, e := range g.Successors(test.node) {
			if e.Source != test.node || e.Row != test.node {
				t.Errorf("Unexpected edge on test %v: %v", i, e)
			}
			succ = append(succ, e.Target)
		}
		pred := []int{}
		for _, e := range g.Predecessors(test.node) {
			pred = append(pred, e.Source)
		}
		slices.Sort(pred)
		if !slices.Equal(succ, test.successors) {
			t.Errorf("Unexpected successors on test %v. Got: %v. Expected: %v", i, succ, test.successors)
		}
		if !slices.Equal(pred, test.predecessors) {
			t.Errorf("Unexpected predecessors on test %v. Got: %v. Expected: %v", i, pred, test.predecessors)
		}
	}
}

func TestFromMDP(t *testing.T) {
	g := mdpGraph(t, [][]arc{
		{{target: 1, p: 1, signature: []int{0}}, {target: 0, p: 1, signature: []int{1}}},
		{},
	})
	if !slices.Equal(g.Choices(0), []int{0, 1}) || !slices.Equal(g.Choices(1), []int{2}) {
		t.Fatalf("Unexpected choices. Got: %v and %v", g.Choices(0), g.Choices(1))
	}
	expected := []Edge{{Source: 0, Target: 1, Row: 0}, {Source: 0, Target: 0, Row: 1}}
	if !slices.Equal(g.Successors(0), expected) {
		t.Errorf("Unexpected successors. Got: %v. Expected: %v", g.Successors(0), expected)
	}
}

func TestGetAncestors(t *testing.T) {
	g := dtmcGraph(t, chain)
	for i, test := range ancestorTest {
		var ignoreNode NodeFilter
		if test.ignoreNode >= 0 {
			ignoreNode = func(n int) bool { return n == test.ignoreNode }
		}
		var ignoreEdge EdgeFilter
		if test.ignoreEdge != nil {
			ignoreEdge = func(e Edge) bool { return e.Source == test.ignoreEdge[0] && e.Target == test.ignoreEdge[1] }
		}
		out := members(g.GetAncestors(set(test.targets...), ignoreNode, ignoreEdge))
		if !slices.Equal(out, test.expected) {
			t.Errorf("Unexpected ancestors on test %v. Got: %v. Expected: %v", i, out, test.expected)
		}
	}
}

func TestGetAncestorsIdempotent(t *testing.T) {
	g := dtmcGraph(t, chain)
	for _, target := range []uint{0, 1, 2, 3, 4} {
		once := g.GetAncestors(set(target), nil, nil)
		twice := g.GetAncestors(once, nil, nil)
		if !once.Equal(twice) {
			t.Errorf("Ancestors of %v are not a fixed point. Got: %v. Expected: %v", target, members(twice), members(once))
		}
	}
}

var adjacencyTest = []struct {
	node         int
	successors   []int
	predecessors []int
}{
	{0, []int{1, 3}, []int{}},
	{1, []int{2}, []int{0}},
	// Deadlocks become self loops
	{2, []int{2}, []int{1, 2, 4}},
	{3, []int{3}, []int{0, 3}},
	{4, []int{2}, []int{}},
}

var ancestorTest = []struct {
	targets    []uint
	ignoreNode int
	ignoreEdge []int
	expected   []int
}{
	{[]uint{2}, -1, nil, []int{0, 1, 2, 4}},
	{[]uint{3}, -1, nil, []int{0, 3}},
	{[]uint{0}, -1, nil, []int{0}},
	{[]uint{2, 3}, -1, nil, []int{0, 1, 2, 3, 4}},
	{[]uint{2}, 1, nil, []int{2, 4}},
	{[]uint{2}, 2, nil, []int{}},
	{[]uint{2}, -1, []int{0, 1}, []int{1, 2, 4}},
	{[]uint{}, -1, nil, []int{}},
}
