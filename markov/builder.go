package markov

import (
	"fmt"
	"log/slog"

	"safemc/choice"
	"safemc/exploration"
	"safemc/sparseMatrix"
)

// Configures the construction of Markov models.
// A zero capacity is derived from the size of the state space.
type BuildConfig struct {
	EntryCapacity int
	RowCapacity   int
	Logger        *slog.Logger
}

func (c BuildConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func newLabelling(space *exploration.StateSpace) labelling {
	labels := make([]Labels, space.StateCount())
	for s, l := range space.Labels {
		labels[s] = Labels(l)
	}
	return labelling{
		Model:        space.Model,
		Propositions: space.Propositions,
		Labels:       labels,
	}
}

// Number of entries needed to store all transitions, including a self loop for every state without successors
func requiredEntries(space *exploration.StateSpace) int {
	n := space.TransitionCount()
	for _, t := range space.Transitions {
		if len(t) == 0 {
			n++
		}
	}
	return n
}

// Build the DTMC of an explored state space.
// Fails with ErrNondeterministicChoice if the model made a nondeterministic choice with more than one alternative.
func BuildDTMC(space *exploration.StateSpace, cfg BuildConfig) (*DTMC, error) {
	if !space.Complete {
		return nil, ErrIncompleteStateSpace
	}
	states := space.StateCount()
	if cfg.RowCapacity == 0 {
		cfg.RowCapacity = states + 1
	}
	if cfg.EntryCapacity == 0 {
		cfg.EntryCapacity = requiredEntries(space)
	}
	mat := sparseMatrix.New(cfg.RowCapacity, cfg.EntryCapacity)

	addRow := func(row int, transitions []exploration.Transition) error {
		if err := mat.SetRow(row); err != nil {
			return err
		}
		if len(transitions) == 0 {
			// Deadlock: the state stays in itself forever
			if err := mat.AddColumnValueToCurrentRow(row, 1); err != nil {
				return err
			}
		}
		for _, t := range transitions {
			if len(t.Signature) > 0 {
				return fmt.Errorf("Markov: state %v of %v resolves a nondeterministic choice: %w", row, space.Model, ErrNondeterministicChoice)
			}
			if err := mat.AddColumnValueToCurrentRow(t.Target, t.Probability); err != nil {
				return err
			}
		}
		return mat.FinishRow()
	}
	for s := 0; s < states; s++ {
		if err := addRow(s, space.Transitions[s]); err != nil {
			return nil, err
		}
	}
	if err := addRow(states, space.Initial); err != nil {
		return nil, err
	}
	if err := mat.OptimizeAndSeal(); err != nil {
		return nil, err
	}

	dtmc := &DTMC{labelling: newLabelling(space), Transitions: mat}
	if err := dtmc.Validate(Epsilon); err != nil {
		return nil, err
	}
	cfg.logger().Debug("Built DTMC", slog.String("model", space.Model), slog.Int("states", states), slog.Int("entries", mat.Entries()))
	return dtmc, nil
}

// The transitions of a state under one resolution of its nondeterministic choices
type distribution struct {
	transitions []exploration.Transition
}

// A transition together with the decisions leading to it
type branch struct {
	decisions  []choice.Decision
	transition exploration.Transition
}

// Transitions recorded without their decisions are resolved by their signature alone
func decisionsOf(t exploration.Transition) []choice.Decision {
	if t.Decisions != nil || len(t.Signature) == 0 {
		return t.Decisions
	}
	out := make([]choice.Decision, len(t.Signature))
	for i, c := range t.Signature {
		out[i] = choice.Decision{Chosen: c}
	}
	return out
}

// Split the transitions of a state into one distribution per resolution of its nondeterministic choices.
// A state without transitions has no distribution.
func group(transitions []exploration.Transition) []distribution {
	if len(transitions) == 0 {
		return nil
	}
	branches := make([]branch, len(transitions))
	for i, t := range transitions {
		branches[i] = branch{decisions: decisionsOf(t), transition: t}
	}
	return resolve(branches, 0)
}

// Resolve the decision at depth shared by all branches.
//
// The alternatives of a nondeterministic decision are separate distributions.
// A probabilistic decision combines every distribution of each outcome with every distribution of the other outcomes,
// so that nondeterministic choices made after a probabilistic one are resolved independently per outcome.
// Distributions are ordered by the first appearance of their alternatives.
func resolve(branches []branch, depth int) []distribution {
	var ended []exploration.Transition
	var children [][]branch
	index := map[int]int{}
	probabilistic := false
	for _, b := range branches {
		if len(b.decisions) == depth {
			ended = append(ended, b.transition)
			continue
		}
		d := b.decisions[depth]
		probabilistic = d.Probabilistic
		i, ok := index[d.Chosen]
		if !ok {
			i = len(children)
			index[d.Chosen] = i
			children = append(children, nil)
		}
		children[i] = append(children[i], b)
	}

	out := []distribution{{transitions: ended}}
	if len(children) == 0 {
		return out
	}
	if !probabilistic {
		out = out[:0]
		for _, c := range children {
			for _, d := range resolve(c, depth+1) {
				out = append(out, distribution{transitions: concat(ended, d.transitions)})
			}
		}
		return out
	}
	for _, c := range children {
		resolved := resolve(c, depth+1)
		product := make([]distribution, 0, len(out)*len(resolved))
		for _, d := range out {
			for _, r := range resolved {
				product = append(product, distribution{transitions: concat(d.transitions, r.transitions)})
			}
		}
		out = product
	}
	return out
}

func concat(a, b []exploration.Transition) []exploration.Transition {
	out := make([]exploration.Transition, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// Build the MDP of an explored state space.
// Every distinct resolution of the nondeterministic choices of a state becomes one distribution.
func BuildMDP(space *exploration.StateSpace, cfg BuildConfig) (*MDP, error) {
	if !space.Complete {
		return nil, ErrIncompleteStateSpace
	}
	states := space.StateCount()
	groups := make([][]distribution, states+1)
	for s := 0; s < states; s++ {
		groups[s] = group(space.Transitions[s])
	}
	groups[states] = group(space.Initial)

	rows, entries := 0, 0
	for s, distributions := range groups {
		if len(distributions) == 0 && s < states {
			// Deadlock: the state stays in itself forever
			groups[s] = []distribution{{transitions: []exploration.Transition{{Target: s, Probability: 1}}}}
		}
		rows += len(groups[s])
		for _, d := range groups[s] {
			entries += len(d.transitions)
		}
	}
	if cfg.RowCapacity == 0 {
		cfg.RowCapacity = rows
	}
	if cfg.EntryCapacity == 0 {
		cfg.EntryCapacity = entries
	}
	mat := sparseMatrix.New(cfg.RowCapacity, cfg.EntryCapacity)
	rowGroups := make([]int, states+2)
	row := 0
	for s, distributions := range groups {
		rowGroups[s] = row
		for _, d := range distributions {
			if err := mat.SetRow(row); err != nil {
				return nil, err
			}
			for _, t := range d.transitions {
				if err := mat.AddColumnValueToCurrentRow(t.Target, t.Probability); err != nil {
					return nil, err
				}
			}
			if err := mat.FinishRow(); err != nil {
				return nil, err
			}
			row++
		}
	}
	rowGroups[states+1] = row
	if err := mat.OptimizeAndSeal(); err != nil {
		return nil, err
	}

	mdp := &MDP{labelling: newLabelling(space), Transitions: mat, rowGroups: rowGroups}
	if err := mdp.Validate(Epsilon); err != nil {
		return nil, err
	}
	cfg.logger().Debug("Built MDP", slog.String("model", space.Model), slog.Int("states", states), slog.Int("choices", row), slog.Int("entries", mat.Entries()))
	return mdp, nil
}

// Reports whether the explored model resolved any nondeterministic choice
func IsNondeterministic(space *exploration.StateSpace) bool {
	for _, t := range space.Initial {
		if len(t.Signature) > 0 {
			return true
		}
	}
	for _, transitions := range space.Transitions {
		for _, t := range transitions {
			if len(t.Signature) > 0 {
				return true
			}
		}
	}
	return false
}
