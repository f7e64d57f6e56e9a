package arena

import (
	"errors"
	"fmt"
)

var (
	ErrGuardViolated = errors.New("arena: guard region overwritten")
	ErrOutOfBounds   = errors.New("arena: access outside of the declared buffer")
	ErrContract      = errors.New("arena: contract violation")
)

// Describes an access past the declared size of a buffer, or a guard region that has been overwritten.
//
// A BoundsError always indicates that the size of a state vector was miscalculated upstream and can not be recovered from.
type BoundsError struct {
	Offset int
	Width  int
	Size   int
	// Name of the overwritten guard region. Empty if the error was raised by a checked access.
	Guard string
}

func (be *BoundsError) Error() string {
	if be.Guard != "" {
		return fmt.Sprintf("arena: %v guard overwritten at offset %v of a %v byte buffer", be.Guard, be.Offset, be.Size)
	}
	return fmt.Sprintf("arena: access of %v bytes at offset %v exceeds the %v byte buffer", be.Width, be.Offset, be.Size)
}

func (be *BoundsError) Is(target error) bool {
	if be.Guard != "" {
		return target == ErrGuardViolated
	}
	return target == ErrOutOfBounds
}

// A violated precondition. Contract checks are always enabled.
type ContractError struct {
	Msg string
}

func (ce *ContractError) Error() string {
	return ce.Msg
}

func (ce *ContractError) Unwrap() error {
	return ErrContract
}

func requires(cond bool, format string, args ...any) {
	if !cond {
		panic(&ContractError{Msg: fmt.Sprintf(format, args...)})
	}
}
