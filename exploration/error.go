package exploration

import (
	"errors"
	"fmt"

	"safemc/model"
)

var ErrUnknownProposition = errors.New("Exploration: unknown proposition")

// A panic raised by the model while exploring the successors of a state.
// State is -1 if the panic was raised by the initial step.
type ModelPanicError struct {
	State   int
	Choices []int
	Panic   *model.PanicError
}

func (mp *ModelPanicError) Error() string {
	if mp.State < 0 {
		return fmt.Sprintf("Exploration: the initial step panicked with choices %v: %v", mp.Choices, mp.Panic.Value)
	}
	return fmt.Sprintf("Exploration: the step from state %v panicked with choices %v: %v", mp.State, mp.Choices, mp.Panic.Value)
}

func (mp *ModelPanicError) Unwrap() error {
	return mp.Panic
}

// Aggregates the errors of several workers
type explorationError struct {
	errorSlice []error
}

func (ee explorationError) Error() string {
	return fmt.Sprintf("Exploration: %v Errors occurred exploring the state space. \nError 1: %v", len(ee.errorSlice), ee.errorSlice[0])
}

func (ee explorationError) Unwrap() []error {
	return ee.errorSlice
}
