package choice

import "fmt"

// Select one of the values nondeterministically.
//
// Returns false if no value is provided, in which case the transition is inapplicable.
func Choose[T any](r *Resolver, values ...T) (T, bool) {
	i := r.HandleChoice(len(values))
	if i == Inapplicable {
		var zero T
		return zero, false
	}
	return values[i], true
}

// A value together with the probability of selecting it
type Option[T any] struct {
	Value       T
	Probability float64
}

func WithProbability[T any](value T, p float64) Option[T] {
	return Option[T]{Value: value, Probability: p}
}

// Select one of the options probabilistically and record its probability.
//
// The probabilities of the options must sum to 1.
func ChooseProbabilistic[T any](r *Resolver, options ...Option[T]) (T, bool) {
	sum := 0.0
	for _, o := range options {
		sum += o.Probability
	}
	if len(options) > 0 && (sum < 1-probabilityEpsilon || sum > 1+probabilityEpsilon) {
		panic(fmt.Errorf("choice: probabilities of %v options sum to %v: %w", len(options), sum, ErrInvalidProbability))
	}

	i := r.HandleProbabilisticChoice(len(options))
	if i == Inapplicable {
		var zero T
		return zero, false
	}
	if len(options) > 1 {
		r.SetProbabilityOfLastChoice(options[i].Probability)
	}
	return options[i].Value, true
}
