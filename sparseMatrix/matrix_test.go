package sparseMatrix

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/slices"
)

func build(t *testing.T, m *Matrix, rows map[int][]Entry, order []int) {
	t.Helper()
	for _, r := range order {
		if err := m.SetRow(r); err != nil {
			t.Fatalf("Unexpected error setting row %v: %v", r, err)
		}
		for _, e := range rows[r] {
			if err := m.AddColumnValueToCurrentRow(e.Column, e.Value); err != nil {
				t.Fatalf("Unexpected error adding to row %v: %v", r, err)
			}
		}
		if err := m.FinishRow(); err != nil {
			t.Fatalf("Unexpected error finishing row %v: %v", r, err)
		}
	}
}

func TestMergeDuplicateColumns(t *testing.T) {
	m := New(1, 2)
	build(t, m, map[int][]Entry{0: {{1, 0.3}, {1, 0.3}}}, []int{0})
	if err := m.OptimizeAndSeal(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	row := m.Row(0)
	if len(row) != 1 || row[0].Column != 1 || math.Abs(row[0].Value-0.6) > 1e-12 {
		t.Errorf("Expected a single merged entry (1, 0.6). Got: %v", row)
	}
}

func TestSortRow(t *testing.T) {
	for i, test := range sortTest {
		m := New(1, len(test.in))
		build(t, m, map[int][]Entry{0: test.in}, []int{0})
		if err := m.SortRow(0); err != nil {
			t.Fatalf("Test %v: Unexpected error: %v", i, err)
		}
		if !slices.Equal(m.Row(0), test.expected) {
			t.Errorf("Test %v: Unexpected row. Got: %v. Expected: %v", i, m.Row(0), test.expected)
		}
	}
}

func TestSealOutOfOrderRows(t *testing.T) {
	rows := map[int][]Entry{
		0: {{2, 0.5}, {0, 0.5}},
		1: {{1, 1}},
		2: {{0, 0.25}, {2, 0.25}, {0, 0.5}},
	}
	m := New(3, 10)
	build(t, m, rows, []int{2, 0, 1})
	if err := m.OptimizeAndSeal(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m.Rows() != 3 || m.Entries() != 5 {
		t.Errorf("Unexpected dimensions. Rows: %v, Entries: %v", m.Rows(), m.Entries())
	}
	expected := [][]Entry{
		{{0, 0.5}, {2, 0.5}},
		{{1, 1}},
		{{0, 0.75}, {2, 0.25}},
	}
	for r := range expected {
		if !slices.Equal(m.Row(r), expected[r]) {
			t.Errorf("Unexpected row %v. Got: %v. Expected: %v", r, m.Row(r), expected[r])
		}
	}
	if err := m.ValidateStochastic([]int{0, 1, 2}, 1e-9); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestMultiplyWithVector(t *testing.T) {
	rows := map[int][]Entry{
		0: {{0, 0.4}, {1, 0.6}},
		1: {{1, 1}},
	}
	b := []float64{0, 1}
	expected := []float64{0.6, 1}

	m := New(2, 4)
	build(t, m, rows, []int{0, 1})
	res := make([]float64, 2)
	if err := m.MultiplyWithVectorUnsealed(b, res); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !slices.Equal(res, expected) {
		t.Errorf("Unexpected unsealed product. Got: %v. Expected: %v", res, expected)
	}
	if err := m.MultiplyWithVectorSealed(b, res); !errors.Is(err, ErrNotSealed) {
		t.Errorf("Expected ErrNotSealed. Got: %v", err)
	}

	if err := m.OptimizeAndSeal(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	res = make([]float64, 2)
	if err := m.MultiplyWithVectorSealed(b, res); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !slices.Equal(res, expected) {
		t.Errorf("Unexpected sealed product. Got: %v. Expected: %v", res, expected)
	}
}

func TestCapacityExceeded(t *testing.T) {
	m := New(1, 1)
	var ce *CapacityExceededError
	if err := m.SetRow(1); !errors.As(err, &ce) || ce.Limit != "row" || ce.Capacity != 1 {
		t.Errorf("Expected a row capacity error. Got: %v", err)
	}
	m.SetRow(0)
	m.AddColumnValueToCurrentRow(0, 0.5)
	err := m.AddColumnValueToCurrentRow(0, 0.5)
	if !errors.Is(err, ErrCapacityExceeded) || !errors.As(err, &ce) || ce.Limit != "entry" {
		t.Errorf("Expected an entry capacity error. Got: %v", err)
	}
}

func TestRowProtocol(t *testing.T) {
	m := New(2, 4)
	if err := m.AddColumnValueToCurrentRow(0, 1); !errors.Is(err, ErrRowProtocol) {
		t.Errorf("Expected ErrRowProtocol without a current row. Got: %v", err)
	}
	m.SetRow(0)
	if err := m.SetRow(1); !errors.Is(err, ErrRowProtocol) {
		t.Errorf("Expected ErrRowProtocol for an unfinished row. Got: %v", err)
	}
	if err := m.OptimizeAndSeal(); !errors.Is(err, ErrRowProtocol) {
		t.Errorf("Expected ErrRowProtocol when sealing an unfinished row. Got: %v", err)
	}
	m.FinishRow()
	if err := m.SetRow(0); !errors.Is(err, ErrRowProtocol) {
		t.Errorf("Expected ErrRowProtocol when setting a row twice. Got: %v", err)
	}
	if err := m.OptimizeAndSeal(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := m.SetRow(1); !errors.Is(err, ErrSealed) {
		t.Errorf("Expected ErrSealed. Got: %v", err)
	}
	if err := m.AddColumnValueToCurrentRow(0, 1); !errors.Is(err, ErrSealed) {
		t.Errorf("Expected ErrSealed. Got: %v", err)
	}
}

func TestValidateStochastic(t *testing.T) {
	m := New(2, 4)
	build(t, m, map[int][]Entry{0: {{0, 0.5}, {1, 0.4}}, 1: {{1, 1}}}, []int{0, 1})
	m.OptimizeAndSeal()
	if err := m.ValidateStochastic([]int{1}, 1e-9); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := m.ValidateStochastic([]int{0, 1}, 1e-9); !errors.Is(err, ErrNotStochastic) {
		t.Errorf("Expected ErrNotStochastic. Got: %v", err)
	}
}

var sortTest = []struct {
	in       []Entry
	expected []Entry
}{
	{[]Entry{}, []Entry{}},
	{[]Entry{{3, 1}}, []Entry{{3, 1}}},
	{[]Entry{{3, 0.5}, {1, 0.5}}, []Entry{{1, 0.5}, {3, 0.5}}},
	{[]Entry{{2, 0.25}, {0, 0.25}, {2, 0.25}, {1, 0.25}}, []Entry{{0, 0.25}, {1, 0.25}, {2, 0.5}}},
	{[]Entry{{1, 0.5}, {1, 0.25}, {1, 0.25}}, []Entry{{1, 1}}},
	{[]Entry{{4, 0.5}, {3, 0.125}, {2, 0.125}, {3, 0.125}, {4, 0.125}}, []Entry{{2, 0.125}, {3, 0.25}, {4, 0.625}}},
}
