package model

import (
	"errors"
	"testing"

	"safemc/arena"
	"safemc/choice"
	"safemc/stateVector"
)

type pump struct {
	Level  int32
	Broken bool
}

func pumpDefinition() *Definition[pump] {
	return &Definition[pump]{
		Name: "pump",
		New:  func() *pump { return &pump{} },
		Layout: stateVector.NewLayout(4,
			stateVector.Int32("level", func(p *pump) int32 { return p.Level }, func(p *pump, v int32) { p.Level = v }),
			stateVector.Bool("broken", func(p *pump) bool { return p.Broken }, func(p *pump, v bool) { p.Broken = v }),
		),
		Initial: func(ctx *Context[pump]) {
			ctx.Model.Level, _ = choice.Choose(ctx.Resolver, int32(0), int32(1))
		},
		Step: func(ctx *Context[pump]) {
			f := ctx.Fault("stuck")
			if f.TryActivate(ctx.Resolver) {
				ctx.Model.Broken = true
			}
			if ctx.Model.Broken {
				// A broken pump stays broken, activating the fault again changes nothing
				f.Forward(ctx.Resolver)
				return
			}
			ctx.Model.Level++
		},
		Faults: []FaultSpec{{Name: "stuck"}},
		Propositions: []Proposition[pump]{
			{Name: "broken", Holds: func(p *pump) bool { return p.Broken }},
			{Name: "high", Holds: func(p *pump) bool { return p.Level > 1 }},
		},
	}
}

// Enumerate all successors of the construction state, or of the state stored in from.
func successors(m ExecutableModel, from *arena.Buffer, initial bool) []string {
	r := m.Resolver()
	out := []string{}
	buf := arena.New(m.StateVectorSize())
	r.PrepareNextState()
	for r.PrepareNextPath() {
		if initial {
			m.Reset()
			InitialStep(m)
		} else {
			m.Deserialize(from)
			Step(m)
		}
		m.Serialize(buf)
		out = append(out, m.Describe(buf))
	}
	return out
}

func TestInitialStates(t *testing.T) {
	m := pumpDefinition().Instantiate(nil)
	got := successors(m, nil, true)
	expected := []string{"level=0, broken=false", "level=1, broken=false"}
	if len(got) != len(expected) {
		t.Fatalf("Unexpected initial states. Got: %v. Expected: %v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("Unexpected initial state %v. Got: %v. Expected: %v", i, got[i], expected[i])
		}
	}
}

func TestFaultActivations(t *testing.T) {
	for i, test := range activationTest {
		def := pumpDefinition()
		m := def.Instantiate(test.activations)
		buf := arena.New(m.StateVectorSize())
		m.Model().Broken = test.broken
		m.Serialize(buf)
		got := successors(m, buf, false)
		if len(got) != len(test.expected) {
			t.Errorf("Test %v: Unexpected successors. Got: %v. Expected: %v", i, got, test.expected)
			continue
		}
		for j := range got {
			if got[j] != test.expected[j] {
				t.Errorf("Test %v: Unexpected successor %v. Got: %v. Expected: %v", i, j, got[j], test.expected[j])
			}
		}
	}
}

func TestNondeterministicFaults(t *testing.T) {
	m := pumpDefinition().Instantiate(map[string]Activation{"stuck": Suppressed})
	if len(m.NondeterministicFaults()) != 0 {
		t.Errorf("A suppressed fault is not nondeterministic. Got: %v", m.NondeterministicFaults())
	}
	m = pumpDefinition().Instantiate(nil)
	if len(m.NondeterministicFaults()) != 1 || m.NondeterministicFaults()[0].Name != "stuck" {
		t.Errorf("Unexpected nondeterministic faults. Got: %v", m.NondeterministicFaults())
	}
}

func TestNotifyFaultActivations(t *testing.T) {
	def := pumpDefinition()
	notified := 0
	def.Setup = func(ctx *Context[pump]) {
		ctx.Fault("stuck").OnActivated(func() { notified++ })
	}
	m := def.Instantiate(map[string]Activation{"stuck": Forced})
	if !m.Faults()[0].IsActivationSensitive() {
		t.Errorf("Expected a fault with observers to be activation-sensitive")
	}
	m.Resolver().PrepareNextState()
	m.Resolver().PrepareNextPath()
	if !Step(m) {
		t.Errorf("Expected a forced fault with observers to report its activation")
	}
	if notified != 1 {
		t.Errorf("Expected exactly one notification. Got: %v", notified)
	}

	m = def.Instantiate(map[string]Activation{"stuck": Suppressed})
	m.Resolver().PrepareNextState()
	m.Resolver().PrepareNextPath()
	if Step(m) {
		t.Errorf("A suppressed fault never fires")
	}
}

func TestEvaluatePropositions(t *testing.T) {
	m := pumpDefinition().Instantiate(nil)
	if idx := PropositionIndex(m, "high"); idx != 1 {
		t.Errorf("Unexpected index of proposition high. Got: %v", idx)
	}
	if idx := PropositionIndex(m, "missing"); idx != -1 {
		t.Errorf("Expected -1 for an unknown proposition. Got: %v", idx)
	}
	m.Model().Level = 5
	m.Model().Broken = true
	if l := m.EvaluatePropositions(); l != 0b11 {
		t.Errorf("Unexpected labels. Got: %b", l)
	}
	m.Reset()
	if l := m.EvaluatePropositions(); l != 0 {
		t.Errorf("Expected no labels in the construction state. Got: %b", l)
	}
}

func TestValidate(t *testing.T) {
	for i, test := range validateTest {
		def := pumpDefinition()
		test.modify(def)
		err := def.Validate()
		if test.valid && err != nil {
			t.Errorf("Test %v: Unexpected error: %v", i, err)
		}
		if !test.valid && !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("Test %v: Expected ErrInvalidDefinition. Got: %v", i, err)
		}
	}
}

func TestUnknownFault(t *testing.T) {
	def := pumpDefinition()
	def.Step = func(ctx *Context[pump]) { ctx.Fault("missing") }
	m := def.Instantiate(nil)
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("Expected a panic for an unknown fault. Got: %v", err)
		}
	}()
	m.Resolver().PrepareNextState()
	m.Resolver().PrepareNextPath()
	m.ExecuteStep()
}

var activationTest = []struct {
	activations map[string]Activation
	broken      bool
	expected    []string
}{
	{
		activations: nil,
		expected:    []string{"level=1, broken=false", "level=0, broken=true"},
	},
	{
		activations: map[string]Activation{"stuck": Suppressed},
		expected:    []string{"level=1, broken=false"},
	},
	{
		activations: map[string]Activation{"stuck": Forced},
		expected:    []string{"level=0, broken=true"},
	},
	{
		// Already broken: the activation decision is forwarded
		activations: nil,
		broken:      true,
		expected:    []string{"level=0, broken=true"},
	},
}

var validateTest = []struct {
	modify func(d *Definition[pump])
	valid  bool
}{
	{func(d *Definition[pump]) {}, true},
	{func(d *Definition[pump]) { d.Name = "" }, false},
	{func(d *Definition[pump]) { d.New = nil }, false},
	{func(d *Definition[pump]) { d.Layout = nil }, false},
	{func(d *Definition[pump]) { d.Step = nil }, false},
	{func(d *Definition[pump]) { d.Initial = nil }, true},
	{func(d *Definition[pump]) { d.Faults = append(d.Faults, FaultSpec{Name: "stuck"}) }, false},
	{func(d *Definition[pump]) { d.Faults = []FaultSpec{{Name: "leak", Probability: 1.5}} }, false},
	{func(d *Definition[pump]) {
		for i := 0; i <= MaxPropositions; i++ {
			d.Propositions = append(d.Propositions, Proposition[pump]{Name: "p", Holds: func(*pump) bool { return false }})
		}
	}, false},
	{func(d *Definition[pump]) { d.Propositions[0].Holds = nil }, false},
}
