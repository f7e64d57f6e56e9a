package choice

import "errors"

// All errors are raised as panics by the Resolver, since they indicate a model that does not follow the choice protocol.
// The exploration recovers them and reports them together with the state being explored.
var (
	ErrNotExploring          = errors.New("choice: the resolver is not exploring a path")
	ErrInvalidChoice         = errors.New("choice: invalid choice")
	ErrInvalidProbability    = errors.New("choice: invalid probability")
	ErrProbabilityMissing    = errors.New("choice: probabilistic choice without probability")
	ErrNondeterministicModel = errors.New("choice: the model made different decisions for the same choices")
	ErrReplayDivergence      = errors.New("choice: the model diverged from the replayed trace")
)
