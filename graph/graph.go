package graph

import (
	"github.com/bits-and-blooms/bitset"

	"safemc/markov"
	"safemc/sparseMatrix"
)

// An edge from Source to Target.
// Row is the row of the transition matrix the edge was derived from.
// For a DTMC it is equal to Source.
type Edge struct {
	Source int
	Target int
	Row    int
}

// Decides whether a node should be skipped during a traversal
type NodeFilter func(node int) bool

// Decides whether an edge should be skipped during a traversal
type EdgeFilter func(e Edge) bool

// A directed graph with both successor and predecessor adjacency.
//
// The graph is derived from the non-zero entries of a sealed transition matrix and is never modified afterwards.
// The initial distribution is not part of the graph.
type Graph struct {
	successors   [][]Edge
	predecessors [][]Edge
	// choices[s] are the rows of state s
	choices [][]int
}

func newGraph(nodes int) *Graph {
	return &Graph{
		successors:   make([][]Edge, nodes),
		predecessors: make([][]Edge, nodes),
		choices:      make([][]int, nodes),
	}
}

func (g *Graph) addRow(mat *sparseMatrix.Matrix, state, row int) {
	g.choices[state] = append(g.choices[state], row)
	mat.ForEach(row, func(column int, value float64) {
		if value == 0 {
			return
		}
		e := Edge{Source: state, Target: column, Row: row}
		g.successors[state] = append(g.successors[state], e)
		g.predecessors[column] = append(g.predecessors[column], e)
	})
}

func FromDTMC(d *markov.DTMC) *Graph {
	g := newGraph(d.States())
	for s := 0; s < d.States(); s++ {
		g.addRow(d.Transitions, s, s)
	}
	return g
}

func FromMDP(m *markov.MDP) *Graph {
	g := newGraph(m.States())
	for s := 0; s < m.States(); s++ {
		for _, r := range m.RowsOf(s) {
			g.addRow(m.Transitions, s, r)
		}
	}
	return g
}

func (g *Graph) Nodes() int {
	return len(g.successors)
}

func (g *Graph) Successors(node int) []Edge {
	return g.successors[node]
}

func (g *Graph) Predecessors(node int) []Edge {
	return g.predecessors[node]
}

// The rows of the transition matrix leaving node
func (g *Graph) Choices(node int) []int {
	return g.choices[node]
}

// The set of nodes from which some target can be reached, including the targets.
//
// Nodes for which ignoreNode returns true are never added, and edges for which ignoreEdge returns true are never followed.
// Either filter may be nil.
func (g *Graph) GetAncestors(targets *bitset.BitSet, ignoreNode NodeFilter, ignoreEdge EdgeFilter) *bitset.BitSet {
	visited := bitset.New(uint(g.Nodes()))
	stack := make([]int, 0, targets.Count())
	for t, ok := targets.NextSet(0); ok; t, ok = targets.NextSet(t + 1) {
		if ignoreNode != nil && ignoreNode(int(t)) {
			continue
		}
		stack = append(stack, int(t))
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Test(uint(node)) {
			continue
		}
		visited.Set(uint(node))
		for _, e := range g.predecessors[node] {
			if visited.Test(uint(e.Source)) {
				continue
			}
			if ignoreEdge != nil && ignoreEdge(e) {
				continue
			}
			if ignoreNode != nil && ignoreNode(e.Source) {
				continue
			}
			stack = append(stack, e.Source)
		}
	}
	return visited
}

// All nodes of the graph
func (g *Graph) All() *bitset.BitSet {
	all := bitset.New(uint(g.Nodes()))
	for i := 0; i < g.Nodes(); i++ {
		all.Set(uint(i))
	}
	return all
}
