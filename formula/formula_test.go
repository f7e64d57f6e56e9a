package formula

import "testing"

type valve struct {
	Open     bool
	Pressure int
	Sensors  []bool
}

var (
	open     = Atomic(func(v *valve) bool { return v.Open })
	high     = Atomic(func(v *valve) bool { return v.Pressure > 10 })
	allOk    = ForAll(func(v *valve) []bool { return v.Sensors }, func(s bool) bool { return s })
	someOk   = Exists(func(v *valve) []bool { return v.Sensors }, func(s bool) bool { return s })
	ruptured = And(high, Not(open))
)

func TestFormulas(t *testing.T) {
	for i, test := range formulaTest {
		out := test.formula(&test.state)
		if out != test.expected {
			t.Errorf("Received unexpected bool from formula on test %v. Got %v", i, out)
		}
	}
}

func TestCompile(t *testing.T) {
	props := Compile(map[string]Formula[valve]{
		"ruptured": ruptured,
		"open":     open,
		"high":     high,
	})
	expected := []string{"high", "open", "ruptured"}
	if len(props) != len(expected) {
		t.Fatalf("Unexpected number of propositions. Got: %v", len(props))
	}
	v := valve{Pressure: 11}
	for i, p := range props {
		if p.Name != expected[i] {
			t.Errorf("Unexpected proposition %v. Got: %v. Expected: %v", i, p.Name, expected[i])
		}
	}
	if !props[2].Holds(&v) {
		t.Errorf("Expected the valve to be ruptured")
	}
}

var formulaTest = []struct {
	formula  Formula[valve]
	state    valve
	expected bool
}{
	{open, valve{Open: true}, true},
	{Not(open), valve{Open: true}, false},
	{ruptured, valve{Pressure: 11}, true},
	{ruptured, valve{Pressure: 11, Open: true}, false},
	{Or(open, high), valve{}, false},
	{Or[valve](), valve{}, false},
	{And[valve](), valve{}, true},
	{Implies(high, open), valve{Pressure: 5}, true},
	{Implies(high, open), valve{Pressure: 50}, false},
	{True[valve](), valve{}, true},
	{allOk, valve{Sensors: []bool{true, true}}, true},
	{allOk, valve{Sensors: []bool{true, false}}, false},
	{allOk, valve{}, true},
	{someOk, valve{Sensors: []bool{false, true}}, true},
	{someOk, valve{Sensors: []bool{false, false}}, false},
	{someOk, valve{}, false},
}
