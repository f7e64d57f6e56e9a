package config

import (
	"io"

	"safemc/counterExample"
	"safemc/model"
)

// Overrides the activation of a fault for a single check

// Can be applied multiple times to configure several faults.
// Default value is the activation declared by the model.
type FaultActivationOption struct {
	Fault      string
	Activation model.Activation
}

func (fao FaultActivationOption) CheckOpt() {}

// Configures io.writers that the Markov model will be exported to

// Can be applied multiple times to add multiple io.writers.
// Default value is no writers.
type ExportOption struct {
	W      io.Writer
	Format ExportFormat
}

func (eo ExportOption) CheckOpt() {}

type ExportFormat int

const (
	Graphviz ExportFormat = iota
	Prism
)

// Save the counterexample of a reachable hazard to a file.

// The .ssharp extension is added if missing.
// Default value is not saving the counterexample.
type CounterExampleFileOption struct {
	Path string
}

func (cfo CounterExampleFileOption) CheckOpt() {}

// Store the counterexample of a reachable hazard, keyed by model and hazard.

// Default value is not storing the counterexample.
type CounterExampleStoreOption struct {
	Store *counterExample.Store
}

func (cso CounterExampleStoreOption) CheckOpt() {}
