package scheduler

import (
	"errors"
)

var (
	NoWorkError  = errors.New("scheduler: No unexplored states left")
	AbortedError = errors.New("scheduler: The exploration has been aborted")
)
