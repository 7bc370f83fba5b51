package core

import "strings"

// Matrix is an immutable entity-by-sample intensity matrix. Rows are keyed
// by peptide or protein key in insertion order; columns are keyed by sample
// identifier. A matrix built with NewMatrix has no all-missing rows.
type Matrix struct {
	rows     []string
	rowIndex map[string]int
	samples  []string
	colIndex map[string]int
	cells    [][]Value

	// Provenance
	source     *Matrix
	provenance string
}

// NewMatrix validates the keyspace and copies cells into a new matrix.
// Rows without any observed value are dropped.
func NewMatrix(rows, samples []string, cells [][]Value) (*Matrix, error) {
	if len(rows) != len(cells) {
		return nil, ConfigurationError.New("matrix has %d row keys but %d rows", len(rows), len(cells))
	}

	m := &Matrix{
		rowIndex: make(map[string]int, len(rows)),
		colIndex: make(map[string]int, len(samples)),
	}
	for _, s := range samples {
		if s == "" {
			return nil, ConfigurationError.New("matrix has an empty sample identifier")
		}
		if _, dup := m.colIndex[s]; dup {
			return nil, ConfigurationError.New("duplicate sample column %q", s)
		}
		m.colIndex[s] = len(m.samples)
		m.samples = append(m.samples, s)
	}

	for i, key := range rows {
		if key == "" {
			return nil, ConfigurationError.New("row %d has an empty key", i+1)
		}
		if _, dup := m.rowIndex[key]; dup {
			return nil, ConfigurationError.New("duplicate row key %q", key)
		}
		if len(cells[i]) != len(samples) {
			return nil, ConfigurationError.New("row %q has %d cells, want %d", key, len(cells[i]), len(samples))
		}
		if CountPresent(cells[i]) == 0 {
			continue
		}
		row := make([]Value, len(samples))
		copy(row, cells[i])
		m.rowIndex[key] = len(m.rows)
		m.rows = append(m.rows, key)
		m.cells = append(m.cells, row)
	}

	return m, nil
}

// Derive returns a new matrix with the same keyspace as m, the given cells,
// and m recorded as its source. cells must have m's shape.
func (m *Matrix) Derive(provenance string, cells [][]Value) (*Matrix, error) {
	if len(cells) != len(m.rows) {
		return nil, ConfigurationError.New("derived matrix has %d rows, want %d", len(cells), len(m.rows))
	}
	d := &Matrix{
		rows:       m.rows,
		rowIndex:   m.rowIndex,
		samples:    m.samples,
		colIndex:   m.colIndex,
		cells:      make([][]Value, len(cells)),
		source:     m,
		provenance: provenance,
	}
	for i, row := range cells {
		if len(row) != len(m.samples) {
			return nil, ConfigurationError.New("derived row %q has %d cells, want %d", m.rows[i], len(row), len(m.samples))
		}
		d.cells[i] = make([]Value, len(row))
		copy(d.cells[i], row)
	}
	return d, nil
}

// Transform applies fn to every observed cell and returns the derived matrix
// with the number of cells that became missing because fn returned a
// non-finite number (log of zero, for example). Rows keep m's keyspace, so
// a derived matrix may hold rows with no observed cell.
func (m *Matrix) Transform(provenance string, fn func(float64) float64) (*Matrix, int) {
	lost := 0
	cells := make([][]Value, len(m.cells))
	for i, row := range m.cells {
		cells[i] = make([]Value, len(row))
		for j, v := range row {
			cells[i][j] = v.Map(fn)
			if !v.IsNA() && cells[i][j].IsNA() {
				lost++
			}
		}
	}
	d, _ := m.Derive(provenance, cells) // shape is m's by construction
	return d, lost
}

// WithProvenance labels a freshly built matrix.
func (m *Matrix) WithProvenance(provenance string) *Matrix {
	m.provenance = provenance
	return m
}

// NumRows returns the number of rows.
func (m *Matrix) NumRows() int { return len(m.rows) }

// NumSamples returns the number of sample columns.
func (m *Matrix) NumSamples() int { return len(m.samples) }

// Rows returns the row keys in order.
func (m *Matrix) Rows() []string {
	out := make([]string, len(m.rows))
	copy(out, m.rows)
	return out
}

// Samples returns the sample identifiers in column order.
func (m *Matrix) Samples() []string {
	out := make([]string, len(m.samples))
	copy(out, m.samples)
	return out
}

// RowIndex returns the position of a row key.
func (m *Matrix) RowIndex(key string) (int, bool) {
	i, ok := m.rowIndex[key]
	return i, ok
}

// SampleIndex returns the position of a sample column.
func (m *Matrix) SampleIndex(id string) (int, bool) {
	j, ok := m.colIndex[id]
	return j, ok
}

// At returns the cell at row i, column j.
func (m *Matrix) At(i, j int) Value {
	return m.cells[i][j]
}

// Get returns the cell for a row key and sample, NA if either is unknown.
func (m *Matrix) Get(key, sample string) Value {
	i, ok := m.rowIndex[key]
	if !ok {
		return NA
	}
	j, ok := m.colIndex[sample]
	if !ok {
		return NA
	}
	return m.cells[i][j]
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []Value {
	out := make([]Value, len(m.cells[i]))
	copy(out, m.cells[i])
	return out
}

// Column returns a copy of column j.
func (m *Matrix) Column(j int) []Value {
	out := make([]Value, len(m.cells))
	for i, row := range m.cells {
		out[i] = row[j]
	}
	return out
}

// Cells returns a deep copy of all cells.
func (m *Matrix) Cells() [][]Value {
	out := make([][]Value, len(m.cells))
	for i := range m.cells {
		out[i] = m.Row(i)
	}
	return out
}

// DetectedCount returns the number of observed cells in column j.
func (m *Matrix) DetectedCount(j int) int {
	n := 0
	for _, row := range m.cells {
		if !row[j].IsNA() {
			n++
		}
	}
	return n
}

// Source returns the matrix this one was derived from, or nil.
func (m *Matrix) Source() *Matrix { return m.source }

// Provenance returns the chain of labels from the original matrix to m,
// joined with "/".
func (m *Matrix) Provenance() string {
	var parts []string
	for cur := m; cur != nil; cur = cur.source {
		if cur.provenance != "" {
			parts = append([]string{cur.provenance}, parts...)
		}
	}
	return strings.Join(parts, "/")
}

// SelectSamples returns a new matrix restricted to the given sample columns.
// Rows left without observations are dropped.
func (m *Matrix) SelectSamples(ids []string) (*Matrix, error) {
	cols := make([]int, len(ids))
	for k, id := range ids {
		j, ok := m.colIndex[id]
		if !ok {
			return nil, ConfigurationError.New("unknown sample %q", id)
		}
		cols[k] = j
	}
	cells := make([][]Value, len(m.cells))
	for i, row := range m.cells {
		cells[i] = make([]Value, len(cols))
		for k, j := range cols {
			cells[i][k] = row[j]
		}
	}
	sub, err := NewMatrix(m.rows, ids, cells)
	if err != nil {
		return nil, err
	}
	sub.source = m
	sub.provenance = "subset"
	return sub, nil
}
