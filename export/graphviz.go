package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"safemc/markov"
	"safemc/sparseMatrix"
)

func probability(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}

// Write the Graphviz DOT representation of a DTMC or MDP.
//
// States are nodes labelled with their index and the propositions holding in them.
// Edges are labelled with their probability. An invisible start node leads to the initial states.
// The distributions of an MDP are drawn as intermediate point nodes.
func WriteGraphviz(w io.Writer, m markov.Model) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "digraph %q {\n", m.ModelName())
	out.WriteString("  rankdir=LR;\n")
	out.WriteString("  node [shape=circle];\n\n")
	out.WriteString("  start [shape=point];\n")
	writeDistributions(out, m, "start", m.InitialDistributions())
	out.WriteString("\n")

	for s := 0; s < m.States(); s++ {
		labels := describe(m, s)
		if len(labels) > 0 {
			fmt.Fprintf(out, "  %v [label=\"%v\\n{%v}\"];\n", s, s, strings.Join(labels, ", "))
		} else {
			fmt.Fprintf(out, "  %v [label=\"%v\"];\n", s, s)
		}
	}
	out.WriteString("\n")
	for s := 0; s < m.States(); s++ {
		writeDistributions(out, m, strconv.Itoa(s), m.Distributions(s))
	}
	out.WriteString("}\n")
	return out.Flush()
}

func writeDistributions(out *bufio.Writer, m markov.Model, source string, distributions [][]sparseMatrix.Entry) {
	for i, d := range distributions {
		from := source
		if m.Nondeterministic() {
			from = fmt.Sprintf("%v_%v", source, i)
			fmt.Fprintf(out, "  %v [shape=point];\n", from)
			fmt.Fprintf(out, "  %v -> %v [arrowhead=none, label=\"%v\"];\n", source, from, i)
		}
		for _, e := range d {
			fmt.Fprintf(out, "  %v -> %v [label=\"%v\"];\n", from, e.Column, probability(e.Value))
		}
	}
}

// Names of the propositions holding in state s
func describe(m markov.Model, s int) []string {
	out := []string{}
	labels := m.LabelsOf(s)
	for i, p := range m.PropositionNames() {
		if labels.Has(i) {
			out = append(out, p)
		}
	}
	return out
}
