package export

import (
	"bufio"
	"fmt"
	"io"

	"safemc/markov"
)

// Write the transitions of a DTMC or MDP in the explicit format read by PRISM.
//
// A DTMC starts with the line "states transitions" followed by one "source target probability" line per transition.
// An MDP starts with "states choices transitions" followed by "source choice target probability" lines.
// The initial distribution is not part of the transitions, see WritePrismLabels.
func WritePrismTransitions(w io.Writer, m markov.Model) error {
	out := bufio.NewWriter(w)
	choices, transitions := 0, 0
	for s := 0; s < m.States(); s++ {
		for _, d := range m.Distributions(s) {
			choices++
			transitions += len(d)
		}
	}
	if m.Nondeterministic() {
		fmt.Fprintf(out, "%v %v %v\n", m.States(), choices, transitions)
	} else {
		fmt.Fprintf(out, "%v %v\n", m.States(), transitions)
	}
	for s := 0; s < m.States(); s++ {
		for c, d := range m.Distributions(s) {
			for _, e := range d {
				if m.Nondeterministic() {
					fmt.Fprintf(out, "%v %v %v %v\n", s, c, e.Column, probability(e.Value))
				} else {
					fmt.Fprintf(out, "%v %v %v\n", s, e.Column, probability(e.Value))
				}
			}
		}
	}
	return out.Flush()
}

// Write the labels of a DTMC or MDP in the explicit format read by PRISM.
//
// The first line declares the labels, "init" followed by the propositions of the model.
// Every state with at least one label gets a line "state: label indices".
// The states reached by the initial distribution with a positive probability are labelled "init".
func WritePrismLabels(w io.Writer, m markov.Model) error {
	out := bufio.NewWriter(w)
	out.WriteString(`0="init"`)
	for i, p := range m.PropositionNames() {
		fmt.Fprintf(out, " %v=%q", i+1, p)
	}
	out.WriteString("\n")

	initial := map[int]bool{}
	for _, d := range m.InitialDistributions() {
		for _, e := range d {
			if e.Value > 0 {
				initial[e.Column] = true
			}
		}
	}
	for s := 0; s < m.States(); s++ {
		labels := m.LabelsOf(s)
		if !initial[s] && labels == 0 {
			continue
		}
		fmt.Fprintf(out, "%v:", s)
		if initial[s] {
			out.WriteString(" 0")
		}
		for i := range m.PropositionNames() {
			if labels.Has(i) {
				fmt.Fprintf(out, " %v", i+1)
			}
		}
		out.WriteString("\n")
	}
	return out.Flush()
}

// Write the transitions followed by the labels, separated by an empty line
func WritePrism(w io.Writer, m markov.Model) error {
	if err := WritePrismTransitions(w, m); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return WritePrismLabels(w, m)
}
