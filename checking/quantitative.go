package checking

import (
	"errors"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"safemc/graph"
	"safemc/markov"
)

var ErrNotConverged = errors.New("checking: iteration did not converge")

// Stopping criteria of the iterative probability computations.
// Zero values are replaced by the defaults.
type IterationConfig struct {
	// Iteration stops once no probability changes by more than Epsilon
	Epsilon       float64
	MaxIterations int
}

const (
	DefaultEpsilon       = 1e-9
	DefaultMaxIterations = 100000
)

func (c IterationConfig) withDefaults() IterationConfig {
	if c.Epsilon <= 0 {
		c.Epsilon = DefaultEpsilon
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return c
}

// The probabilities of eventually reaching a set of target states
type Reachability struct {
	// Probabilities[s] is the probability of reaching a target from state s
	Probabilities []float64
	// The probability of reaching a target from the initial distribution
	Initial float64
	// States with probability exactly 0 and 1, determined by graph analysis
	Prob0, Prob1 *bitset.BitSet
	Iterations   int
}

// Fix the probabilities of the states in prob0 and prob1, returning the remaining states.
func qualitative(n int, prob0, prob1 *bitset.BitSet) ([]float64, []int) {
	x := make([]float64, n)
	unknown := []int{}
	for s := 0; s < n; s++ {
		switch {
		case prob1.Test(uint(s)):
			x[s] = 1
		case prob0.Test(uint(s)):
		default:
			unknown = append(unknown, s)
		}
	}
	return x, unknown
}

// Compute the probability of eventually reaching targets from every state of the DTMC.
//
// States with probability 0 or 1 are determined with Prob0 and Prob1, the remaining states by Jacobi iteration.
func ReachabilityProbabilities(dtmc *markov.DTMC, targets *bitset.BitSet, cfg IterationConfig) (*Reachability, error) {
	cfg = cfg.withDefaults()
	g := graph.FromDTMC(dtmc)
	prob0 := Prob0(g, nil, targets)
	prob1 := Prob1(g, nil, targets, prob0)
	x, unknown := qualitative(dtmc.States(), prob0, prob1)

	res := make([]float64, dtmc.Transitions.Rows())
	iterations := 0
	for len(unknown) > 0 {
		if iterations == cfg.MaxIterations {
			return nil, fmt.Errorf("checking: %v iterations exceeded for %v: %w", cfg.MaxIterations, dtmc.Model, ErrNotConverged)
		}
		iterations++
		if err := dtmc.Transitions.MultiplyWithVectorSealed(x, res); err != nil {
			return nil, err
		}
		diff := 0.0
		for _, s := range unknown {
			diff = math.Max(diff, math.Abs(res[s]-x[s]))
			x[s] = res[s]
		}
		if diff < cfg.Epsilon {
			break
		}
	}

	initial := 0.0
	for _, e := range dtmc.InitialDistribution() {
		initial += e.Value * x[e.Column]
	}
	return &Reachability{
		Probabilities: x,
		Initial:       initial,
		Prob0:         prob0,
		Prob1:         prob1,
		Iterations:    iterations,
	}, nil
}

// Compute the minimal (minimize is true) or maximal probability over all schedulers of eventually reaching targets in the MDP.
//
// The graph analyses fix the states with probability 0 and 1, the remaining states are computed by value iteration.
func MinMaxReachability(mdp *markov.MDP, targets *bitset.BitSet, minimize bool, cfg IterationConfig) (*Reachability, error) {
	cfg = cfg.withDefaults()
	g := graph.FromMDP(mdp)
	var prob0, prob1 *bitset.BitSet
	if minimize {
		prob0 = Prob0E(g, nil, targets)
		prob1 = Prob1A(g, nil, targets)
	} else {
		prob0 = Prob0A(g, nil, targets)
		prob1 = Prob1E(g, nil, targets)
	}
	x, unknown := qualitative(mdp.States(), prob0, prob1)

	res := make([]float64, mdp.Choices())
	optimum := func(rows []int) float64 {
		best := res[rows[0]]
		for _, r := range rows[1:] {
			if (minimize && res[r] < best) || (!minimize && res[r] > best) {
				best = res[r]
			}
		}
		return best
	}

	iterations := 0
	for len(unknown) > 0 {
		if iterations == cfg.MaxIterations {
			return nil, fmt.Errorf("checking: %v iterations exceeded for %v: %w", cfg.MaxIterations, mdp.Model, ErrNotConverged)
		}
		iterations++
		if err := mdp.Transitions.MultiplyWithVectorSealed(x, res); err != nil {
			return nil, err
		}
		diff := 0.0
		for _, s := range unknown {
			v := optimum(mdp.RowsOf(s))
			diff = math.Max(diff, math.Abs(v-x[s]))
			x[s] = v
		}
		if diff < cfg.Epsilon {
			break
		}
	}

	if err := mdp.Transitions.MultiplyWithVectorSealed(x, res); err != nil {
		return nil, err
	}
	return &Reachability{
		Probabilities: x,
		Initial:       optimum(mdp.InitialRows()),
		Prob0:         prob0,
		Prob1:         prob1,
		Iterations:    iterations,
	}, nil
}
