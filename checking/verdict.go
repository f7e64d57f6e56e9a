package checking

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"safemc/counterExample"
	"safemc/exploration"
)

// The result of checking whether a hazard is reachable
type Verdict struct {
	SessionId uuid.UUID
	Model     string
	Hazard    string

	// True if a hazard state was reached or the model raised an exception
	Reachable bool
	// True if the probabilities were computed from the complete state space
	Quantified bool
	// True if the probabilities were computed on an MDP
	Nondeterministic bool
	// The probability of reaching the hazard. For an MDP it is the maximal probability
	Probability    float64
	MinProbability float64
	MaxProbability float64

	States      int
	Transitions int

	Exception      *exploration.ModelPanicError
	CounterExample *counterExample.CounterExample
	// Descriptions of the states on the path to the hazard, starting with an initial state
	Trace []string
}

// Generate a response
// Returns two parameters, result, and description.
// Result is true if the hazard is unreachable, false otherwise.
// If result is false the description contains the sequence of states leading to the hazard
func (v *Verdict) Response() (bool, string) {
	if !v.Reachable {
		return true, fmt.Sprintf("Hazard %q is unreachable in %v. Explored %v states and %v transitions", v.Hazard, v.Model, v.States, v.Transitions)
	}
	var buffer bytes.Buffer
	wrt := tabwriter.NewWriter(&buffer, 4, 4, 0, ' ', 0)
	var out string
	if v.Exception != nil {
		out = fmt.Sprintf("Model %v raised an exception: %v\n", v.Model, v.Exception)
	} else {
		out = fmt.Sprintf("Hazard %q is reachable in %v. Explored %v states and %v transitions\n", v.Hazard, v.Model, v.States, v.Transitions)
	}
	switch {
	case !v.Quantified:
	case v.Nondeterministic:
		out += fmt.Sprintf("Probability: between %v and %v\n", v.MinProbability, v.MaxProbability)
	default:
		out += fmt.Sprintf("Probability: %v\n", v.Probability)
	}
	if len(v.Trace) > 0 {
		out += "Sequence: \n"
		for i, state := range v.Trace {
			fmt.Fprintf(wrt, "%v\t-> %v \n", i, state)
		}
		wrt.Flush()
		out += buffer.String()
	}
	return false, out
}

// Export the counterexample leading to the hazard, nil if there is none
func (v *Verdict) Export() *counterExample.CounterExample {
	return v.CounterExample
}
