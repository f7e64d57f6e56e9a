package markov

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// The atomic propositions holding in a state. Bit i is set if proposition i holds.
type Labels uint64

func (l Labels) Has(proposition int) bool {
	return l&(1<<uint(proposition)) != 0
}

func (l Labels) With(proposition int) Labels {
	return l | 1<<uint(proposition)
}

// The labelled states shared by DTMCs and MDPs
type labelling struct {
	Model        string
	Propositions []string
	Labels       []Labels
}

func (l *labelling) States() int {
	return len(l.Labels)
}

func (l *labelling) ModelName() string {
	return l.Model
}

func (l *labelling) PropositionNames() []string {
	return l.Propositions
}

func (l *labelling) LabelsOf(s int) Labels {
	return l.Labels[s]
}

// Index of the named proposition, -1 if there is none
func (l *labelling) PropositionIndex(name string) int {
	for i, p := range l.Propositions {
		if p == name {
			return i
		}
	}
	return -1
}

// The set of states in which the named proposition holds
func (l *labelling) StatesWith(name string) (*bitset.BitSet, error) {
	p := l.PropositionIndex(name)
	if p < 0 {
		return nil, fmt.Errorf("Markov: model %v has no proposition %q: %w", l.Model, name, ErrUnknownProposition)
	}
	set := bitset.New(uint(l.States()))
	for s, labels := range l.Labels {
		if labels.Has(p) {
			set.Set(uint(s))
		}
	}
	return set, nil
}

// Names of the propositions holding in state s
func (l *labelling) Describe(s int) []string {
	out := []string{}
	for i, p := range l.Propositions {
		if l.Labels[s].Has(i) {
			out = append(out, p)
		}
	}
	return out
}
