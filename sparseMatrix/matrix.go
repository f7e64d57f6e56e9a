package sparseMatrix

import (
	"errors"
	"fmt"
	"math"
)

// Enables internal consistency checks that are too expensive for large models
const debugAssertions = false

var (
	ErrCapacityExceeded = errors.New("sparseMatrix: capacity exceeded")
	ErrSealed           = errors.New("sparseMatrix: matrix is sealed")
	ErrNotSealed        = errors.New("sparseMatrix: matrix is not sealed")
	ErrRowProtocol      = errors.New("sparseMatrix: row protocol violated")
	ErrNotStochastic    = errors.New("sparseMatrix: row does not sum to one")
)

// Returned when a pre-declared capacity of the matrix is exhausted.
// Limit names the exhausted capacity so the caller can retry with a larger configuration.
type CapacityExceededError struct {
	Limit    string
	Capacity int
}

func (ce *CapacityExceededError) Error() string {
	return fmt.Sprintf("sparseMatrix: %v capacity of %v exceeded", ce.Limit, ce.Capacity)
}

func (ce *CapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}

type Entry struct {
	Column int
	Value  float64
}

type rowInfo struct {
	start  int
	length int
	set    bool
}

// A sparse matrix of probabilities.
//
// Rows are written once using SetRow, AddColumnValueToCurrentRow and FinishRow, possibly out of order.
// Once every row is written the matrix is sealed into a compressed sparse row layout and becomes immutable.
type Matrix struct {
	rowCapacity   int
	entryCapacity int

	// Unsealed layout. The entries of a row are contiguous.
	rows       []rowInfo
	entries    []Entry
	currentRow int

	// Sealed layout
	sealed     bool
	rowOffsets []int
	columns    []int
	values     []float64
}

func New(rowCapacity, entryCapacity int) *Matrix {
	if rowCapacity < 0 || entryCapacity < 0 {
		panic(fmt.Errorf("sparseMatrix: negative capacity %v/%v: %w", rowCapacity, entryCapacity, ErrRowProtocol))
	}
	return &Matrix{
		rowCapacity:   rowCapacity,
		entryCapacity: entryCapacity,
		rows:          make([]rowInfo, 0, min(rowCapacity, 1024)),
		entries:       make([]Entry, 0, min(entryCapacity, 4096)),
		currentRow:    -1,
	}
}

// Start writing row r. Every row may be set exactly once.
func (m *Matrix) SetRow(r int) error {
	if m.sealed {
		return ErrSealed
	}
	if m.currentRow != -1 {
		return fmt.Errorf("sparseMatrix: row %v is not finished: %w", m.currentRow, ErrRowProtocol)
	}
	if r < 0 {
		return fmt.Errorf("sparseMatrix: negative row %v: %w", r, ErrRowProtocol)
	}
	if r >= m.rowCapacity {
		return &CapacityExceededError{Limit: "row", Capacity: m.rowCapacity}
	}
	for len(m.rows) <= r {
		m.rows = append(m.rows, rowInfo{})
	}
	if m.rows[r].set {
		return fmt.Errorf("sparseMatrix: row %v has already been set: %w", r, ErrRowProtocol)
	}
	m.rows[r] = rowInfo{start: len(m.entries), set: true}
	m.currentRow = r
	return nil
}

func (m *Matrix) AddColumnValueToCurrentRow(column int, value float64) error {
	if m.sealed {
		return ErrSealed
	}
	if m.currentRow == -1 {
		return fmt.Errorf("sparseMatrix: no current row: %w", ErrRowProtocol)
	}
	if column < 0 {
		return fmt.Errorf("sparseMatrix: negative column %v: %w", column, ErrRowProtocol)
	}
	if len(m.entries) >= m.entryCapacity {
		return &CapacityExceededError{Limit: "entry", Capacity: m.entryCapacity}
	}
	m.entries = append(m.entries, Entry{Column: column, Value: value})
	m.rows[m.currentRow].length++
	return nil
}

func (m *Matrix) FinishRow() error {
	if m.sealed {
		return ErrSealed
	}
	if m.currentRow == -1 {
		return fmt.Errorf("sparseMatrix: no current row: %w", ErrRowProtocol)
	}
	m.currentRow = -1
	return nil
}

// Sort the entries of row r by column, summing the values of duplicate columns.
//
// Insertion sort: rows are short, and merging in place keeps the entries of the row contiguous.
func (m *Matrix) SortRow(r int) error {
	if m.sealed {
		return ErrSealed
	}
	if r < 0 || r >= len(m.rows) || !m.rows[r].set {
		return fmt.Errorf("sparseMatrix: row %v has not been set: %w", r, ErrRowProtocol)
	}
	info := &m.rows[r]
	row := m.entries[info.start : info.start+info.length]
	n := 0
	for _, e := range row {
		// Find the insertion point among the n sorted, merged entries
		j := n
		for j > 0 && row[j-1].Column > e.Column {
			j--
		}
		if j > 0 && row[j-1].Column == e.Column {
			row[j-1].Value += e.Value
			continue
		}
		copy(row[j+1:n+1], row[j:n])
		row[j] = e
		n++
	}
	info.length = n
	return nil
}

// Compact all rows into the sealed layout and release the unsealed buffers.
// Rows that have never been set are empty. Every row is sorted and merged.
func (m *Matrix) OptimizeAndSeal() error {
	if m.sealed {
		return ErrSealed
	}
	if m.currentRow != -1 {
		return fmt.Errorf("sparseMatrix: row %v is not finished: %w", m.currentRow, ErrRowProtocol)
	}
	total := 0
	for r := range m.rows {
		if !m.rows[r].set {
			continue
		}
		if err := m.SortRow(r); err != nil {
			return err
		}
		total += m.rows[r].length
	}

	m.rowOffsets = make([]int, len(m.rows)+1)
	m.columns = make([]int, 0, total)
	m.values = make([]float64, 0, total)
	for r, info := range m.rows {
		m.rowOffsets[r] = len(m.columns)
		for _, e := range m.entries[info.start : info.start+info.length] {
			m.columns = append(m.columns, e.Column)
			m.values = append(m.values, e.Value)
		}
	}
	m.rowOffsets[len(m.rows)] = len(m.columns)

	m.rows = nil
	m.entries = nil
	m.sealed = true

	if debugAssertions {
		for r := 0; r < m.Rows(); r++ {
			cols := m.columns[m.rowOffsets[r]:m.rowOffsets[r+1]]
			for i := 1; i < len(cols); i++ {
				if cols[i-1] >= cols[i] {
					panic(fmt.Sprintf("sparseMatrix: row %v not sorted after sealing", r))
				}
			}
		}
	}
	return nil
}

func (m *Matrix) IsSealed() bool {
	return m.sealed
}

// Number of rows. Rows that were never set count as empty rows below the largest row set.
func (m *Matrix) Rows() int {
	if m.sealed {
		return len(m.rowOffsets) - 1
	}
	return len(m.rows)
}

// Number of stored entries
func (m *Matrix) Entries() int {
	if m.sealed {
		return len(m.columns)
	}
	return len(m.entries)
}

// The entries of row r. The returned slice is a copy.
func (m *Matrix) Row(r int) []Entry {
	if r < 0 || r >= m.Rows() {
		return nil
	}
	if !m.sealed {
		info := m.rows[r]
		out := make([]Entry, info.length)
		copy(out, m.entries[info.start:info.start+info.length])
		return out
	}
	start, end := m.rowOffsets[r], m.rowOffsets[r+1]
	out := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, Entry{Column: m.columns[i], Value: m.values[i]})
	}
	return out
}

// Iterate over the entries of row r in the sealed matrix without allocating.
func (m *Matrix) ForEach(r int, f func(column int, value float64)) {
	if !m.sealed {
		panic(ErrNotSealed)
	}
	for i := m.rowOffsets[r]; i < m.rowOffsets[r+1]; i++ {
		f(m.columns[i], m.values[i])
	}
}

func (m *Matrix) RowSum(r int) float64 {
	sum := 0.0
	for _, e := range m.Row(r) {
		sum += e.Value
	}
	return sum
}

// res[i] = Σ value·b[column] over row i of the sealed matrix.
func (m *Matrix) MultiplyWithVectorSealed(b, res []float64) error {
	if !m.sealed {
		return ErrNotSealed
	}
	if len(res) < m.Rows() {
		return fmt.Errorf("sparseMatrix: result vector of length %v for %v rows: %w", len(res), m.Rows(), ErrRowProtocol)
	}
	for r := 0; r < m.Rows(); r++ {
		sum := 0.0
		for i := m.rowOffsets[r]; i < m.rowOffsets[r+1]; i++ {
			sum += m.values[i] * b[m.columns[i]]
		}
		res[r] = sum
	}
	return nil
}

// res[i] = Σ value·b[column] over row i of the matrix before sealing.
func (m *Matrix) MultiplyWithVectorUnsealed(b, res []float64) error {
	if m.sealed {
		return ErrSealed
	}
	if len(res) < m.Rows() {
		return fmt.Errorf("sparseMatrix: result vector of length %v for %v rows: %w", len(res), m.Rows(), ErrRowProtocol)
	}
	for r, info := range m.rows {
		sum := 0.0
		for _, e := range m.entries[info.start : info.start+info.length] {
			sum += e.Value * b[e.Column]
		}
		res[r] = sum
	}
	return nil
}

// Check that each of the given rows sums to one within eps.
func (m *Matrix) ValidateStochastic(rows []int, eps float64) error {
	for _, r := range rows {
		if sum := m.RowSum(r); math.Abs(sum-1) > eps {
			return fmt.Errorf("sparseMatrix: row %v sums to %v: %w", r, sum, ErrNotStochastic)
		}
	}
	return nil
}
