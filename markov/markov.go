package markov

import (
	"errors"
	"fmt"

	"safemc/sparseMatrix"
)

// Tolerance used when checking that distributions sum to one
const Epsilon = 1e-9

var (
	ErrNondeterministicChoice = errors.New("Markov: nondeterministic choice in a Markov chain")
	ErrIncompleteStateSpace   = errors.New("Markov: the state space has not been fully explored")
	ErrUnknownProposition     = errors.New("Markov: unknown proposition")
)

// A read-only view shared by DTMCs and MDPs, used by the exports
type Model interface {
	ModelName() string
	States() int
	PropositionNames() []string
	LabelsOf(s int) Labels
	// The distributions of state s, a single one for a DTMC
	Distributions(s int) [][]sparseMatrix.Entry
	InitialDistributions() [][]sparseMatrix.Entry
	Nondeterministic() bool
}

// A discrete-time Markov chain.
//
// Row s of the transition matrix is the distribution over the successors of state s.
// The additional row States() is the initial distribution.
type DTMC struct {
	labelling
	Transitions *sparseMatrix.Matrix
}

func (d *DTMC) InitialRow() int {
	return d.States()
}

func (d *DTMC) Successors(s int) []sparseMatrix.Entry {
	return d.Transitions.Row(s)
}

func (d *DTMC) InitialDistribution() []sparseMatrix.Entry {
	return d.Transitions.Row(d.InitialRow())
}

func (d *DTMC) Distributions(s int) [][]sparseMatrix.Entry {
	return [][]sparseMatrix.Entry{d.Successors(s)}
}

func (d *DTMC) InitialDistributions() [][]sparseMatrix.Entry {
	return [][]sparseMatrix.Entry{d.InitialDistribution()}
}

func (d *DTMC) Nondeterministic() bool {
	return false
}

// Check that every distribution, including the initial one, sums to one
func (d *DTMC) Validate(eps float64) error {
	rows := make([]int, d.States()+1)
	for i := range rows {
		rows[i] = i
	}
	return d.Transitions.ValidateStochastic(rows, eps)
}

// A Markov decision process.
//
// Every state has one or more distributions, one per resolution of the nondeterministic choices of the model.
// The distributions of state s are the rows rowGroups[s] to rowGroups[s+1]-1 of the transition matrix.
// The group States() holds the initial distributions.
type MDP struct {
	labelling
	Transitions *sparseMatrix.Matrix
	rowGroups   []int
}

// The rows of the distributions of state s
func (m *MDP) RowsOf(s int) []int {
	rows := make([]int, 0, m.rowGroups[s+1]-m.rowGroups[s])
	for r := m.rowGroups[s]; r < m.rowGroups[s+1]; r++ {
		rows = append(rows, r)
	}
	return rows
}

// The rows of the initial distributions
func (m *MDP) InitialRows() []int {
	return m.RowsOf(m.States())
}

// The state owning row r
func (m *MDP) StateOf(r int) int {
	lo, hi := 0, len(m.rowGroups)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if m.rowGroups[mid] <= r {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// Total number of distributions, including the initial ones
func (m *MDP) Choices() int {
	return m.rowGroups[len(m.rowGroups)-1]
}

func (m *MDP) Row(r int) []sparseMatrix.Entry {
	return m.Transitions.Row(r)
}

func (m *MDP) Distributions(s int) [][]sparseMatrix.Entry {
	out := [][]sparseMatrix.Entry{}
	for _, r := range m.RowsOf(s) {
		out = append(out, m.Row(r))
	}
	return out
}

func (m *MDP) InitialDistributions() [][]sparseMatrix.Entry {
	return m.Distributions(m.States())
}

func (m *MDP) Nondeterministic() bool {
	return true
}

// Check that every distribution sums to one
func (m *MDP) Validate(eps float64) error {
	rows := make([]int, m.Choices())
	for i := range rows {
		rows[i] = i
	}
	if err := m.Transitions.ValidateStochastic(rows, eps); err != nil {
		return fmt.Errorf("Markov: invalid distribution of state %v: %w", m.StateOf(firstInvalid(m.Transitions, rows, eps)), err)
	}
	return nil
}

func firstInvalid(mat *sparseMatrix.Matrix, rows []int, eps float64) int {
	for _, r := range rows {
		if mat.ValidateStochastic([]int{r}, eps) != nil {
			return r
		}
	}
	return -1
}

var (
	_ Model = (*DTMC)(nil)
	_ Model = (*MDP)(nil)
)
