package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"safemc/model"
)

const DefaultStateCapacity = 1 << 20

var ErrInvalidFile = errors.New("config: invalid analysis file")

// An analysis file declares the hazards to check.
//
//	analysis "tank_rupture" {
//	  model          = "tank"
//	  hazard         = "ruptured"
//	  workers        = cpus
//	  state_capacity = default_capacity
//	  suppress       = ["sensor_stuck"]
//	}
//
// The variables cpus and default_capacity can be used in every expression.
type File struct {
	Analyses []Analysis `hcl:"analysis,block"`
}

type Analysis struct {
	Name               string   `hcl:"name,label"`
	Model              string   `hcl:"model"`
	Hazard             string   `hcl:"hazard"`
	Workers            int      `hcl:"workers,optional"`
	StateCapacity      int      `hcl:"state_capacity,optional"`
	TransitionCapacity int      `hcl:"transition_capacity,optional"`
	StopOnHazard       bool     `hcl:"stop_on_hazard,optional"`
	Suppress           []string `hcl:"suppress,optional"`
	Force              []string `hcl:"force,optional"`
	CounterExample     string   `hcl:"counterexample,optional"`
}

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"cpus":             cty.NumberIntVal(int64(runtime.NumCPU())),
			"default_capacity": cty.NumberIntVal(DefaultStateCapacity),
		},
	}
}

// Load and decode the analysis file at path
func LoadFile(path string) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to parse %v: %w", path, diags)
	}
	return decode(f, path)
}

// Decode an analysis file from src. The filename is only used in error messages.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to parse %v: %w", filename, diags)
	}
	return decode(f, filename)
}

func decode(f *hcl.File, filename string) (*File, error) {
	var file File
	if diags := gohcl.DecodeBody(f.Body, evalContext(), &file); diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to decode %v: %w", filename, diags)
	}
	names := map[string]bool{}
	for _, a := range file.Analyses {
		if names[a.Name] {
			return nil, fmt.Errorf("config: duplicate analysis %q in %v: %w", a.Name, filename, ErrInvalidFile)
		}
		names[a.Name] = true
		if a.Workers < 0 || a.StateCapacity < 0 || a.TransitionCapacity < 0 {
			return nil, fmt.Errorf("config: analysis %q has a negative limit: %w", a.Name, ErrInvalidFile)
		}
	}
	return &file, nil
}

// The analysis options declared by the analysis
func (a Analysis) AnalysisOptions() []AnalysisOption {
	opts := []AnalysisOption{}
	if a.Workers > 0 {
		opts = append(opts, WorkersOption{N: a.Workers})
	}
	if a.StateCapacity > 0 {
		opts = append(opts, StateCapacityOption{Capacity: a.StateCapacity})
	}
	if a.TransitionCapacity > 0 {
		opts = append(opts, TransitionCapacityOption{Capacity: a.TransitionCapacity})
	}
	if a.StopOnHazard {
		opts = append(opts, StopOnHazardOption{})
	}
	return opts
}

// The check options declared by the analysis
func (a Analysis) CheckOptions() []CheckOption {
	opts := []CheckOption{}
	for _, f := range a.Suppress {
		opts = append(opts, FaultActivationOption{Fault: f, Activation: model.Suppressed})
	}
	for _, f := range a.Force {
		opts = append(opts, FaultActivationOption{Fault: f, Activation: model.Forced})
	}
	if a.CounterExample != "" {
		opts = append(opts, CounterExampleFileOption{Path: a.CounterExample})
	}
	return opts
}

// Implemented by all options configuring an analysis
type AnalysisOption interface {
	AnalysisOpt()
}

// Implemented by all options configuring a single check
type CheckOption interface {
	CheckOpt()
}
