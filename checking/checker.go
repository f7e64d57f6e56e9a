package checking

import (
	"log/slog"

	"safemc/counterExample"
	"safemc/exploration"
	"safemc/markov"
)

// The Checker verifies a reachability property on an explored state space.
type Checker interface {
	Check(space *exploration.StateSpace) (*Verdict, error)
}

// CheckerResponse is a response returned by a Checker
//
// Contains the result of checking the system.
type CheckerResponse interface {
	// Create a response.
	//
	// Returns a boolean that is true if the property holds, false otherwise.
	// Returns a string describing the response.
	// This should include a detailed description of how the hazard was reached.
	Response() (bool, string)

	// Export the counterexample leading to the hazard, nil if there is none.
	Export() *counterExample.CounterExample
}

// Checks whether the hazard of the exploration can be reached, and with which probability.
//
// If the state space is complete the explored model is turned into a DTMC, or an MDP if the model made nondeterministic choices,
// and the probability of eventually reaching the hazard is computed.
type HazardChecker struct {
	Build     markov.BuildConfig
	Iteration IterationConfig
	Logger    *slog.Logger
}

func (hc *HazardChecker) logger() *slog.Logger {
	if hc.Logger == nil {
		return slog.Default()
	}
	return hc.Logger
}

func (hc *HazardChecker) Check(space *exploration.StateSpace) (*Verdict, error) {
	v := &Verdict{
		SessionId:   space.SessionId,
		Model:       space.Model,
		Reachable:   space.Hazard >= 0 || space.Exception != nil,
		States:      space.StateCount(),
		Transitions: space.TransitionCount(),
		Hazard:      space.HazardProposition,
		Exception:   space.Exception,
	}
	if !space.Complete {
		// Probabilities can only be computed for the full state space
		return v, nil
	}
	build := hc.Build
	if build.Logger == nil {
		build.Logger = hc.Logger
	}

	v.Quantified = true
	if space.Hazard < 0 {
		return v, nil
	}
	hazard := space.HazardProposition
	if markov.IsNondeterministic(space) {
		v.Nondeterministic = true
		mdp, err := markov.BuildMDP(space, build)
		if err != nil {
			return nil, err
		}
		targets, err := mdp.StatesWith(hazard)
		if err != nil {
			return nil, err
		}
		minimal, err := MinMaxReachability(mdp, targets, true, hc.Iteration)
		if err != nil {
			return nil, err
		}
		maximal, err := MinMaxReachability(mdp, targets, false, hc.Iteration)
		if err != nil {
			return nil, err
		}
		v.MinProbability, v.MaxProbability = minimal.Initial, maximal.Initial
		v.Probability = maximal.Initial
	} else {
		dtmc, err := markov.BuildDTMC(space, build)
		if err != nil {
			return nil, err
		}
		targets, err := dtmc.StatesWith(hazard)
		if err != nil {
			return nil, err
		}
		r, err := ReachabilityProbabilities(dtmc, targets, hc.Iteration)
		if err != nil {
			return nil, err
		}
		v.Probability, v.MinProbability, v.MaxProbability = r.Initial, r.Initial, r.Initial
	}
	hc.logger().Debug("Computed hazard probability",
		slog.String("model", space.Model),
		slog.String("hazard", hazard),
		slog.Float64("min", v.MinProbability),
		slog.Float64("max", v.MaxProbability),
	)
	return v, nil
}
