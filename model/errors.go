package model

import (
	"errors"
	"fmt"
)

var ErrModelPanicked = errors.New("model: step panicked")

// A panic raised by the model while executing a step, recovered by the engine.
type PanicError struct {
	Value any
	Stack []byte
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("model: step panicked: %v", pe.Value)
}

func (pe *PanicError) Unwrap() error {
	if err, ok := pe.Value.(error); ok {
		return errors.Join(ErrModelPanicked, err)
	}
	return ErrModelPanicked
}
