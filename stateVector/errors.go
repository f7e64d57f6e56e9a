package stateVector

import "errors"

var ErrContract = errors.New("stateVector: contract violation")

// A malformed layout declaration.
type ContractError struct {
	Msg string
}

func (ce *ContractError) Error() string {
	return ce.Msg
}

func (ce *ContractError) Unwrap() error {
	return ErrContract
}
