// Package annotation joins external per-entity annotation (gene names,
// descriptions, ...) onto an intensity matrix.
package annotation

import (
	"strings"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// Table is an annotation table keyed by one column.
type Table struct {
	key     string
	columns []string
	index   map[string]int
	values  [][]string
}

// NewTable creates an empty table. columns are the annotation columns
// carried for every key, excluding the key column itself.
func NewTable(key string, columns []string) (*Table, error) {
	if key == "" {
		return nil, core.ConfigurationError.New("annotation key column is empty")
	}
	seen := map[string]bool{key: true}
	for _, c := range columns {
		if seen[c] {
			return nil, core.ConfigurationError.New("duplicate annotation column %q", c)
		}
		seen[c] = true
	}
	return &Table{
		key:     key,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int),
	}, nil
}

// Key returns the key column name.
func (t *Table) Key() string { return t.key }

// Columns returns the annotation column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of annotated keys.
func (t *Table) Len() int { return len(t.values) }

// Add stores the annotation of one key. A key may only be added once.
func (t *Table) Add(key string, values []string) error {
	if key == "" {
		return core.DataIntegrityError.New("annotation row without a key")
	}
	if len(values) != len(t.columns) {
		return core.DataIntegrityError.New("annotation for %q has %d values, want %d", key, len(values), len(t.columns))
	}
	if _, dup := t.index[key]; dup {
		return core.DataIntegrityError.New("duplicate annotation key %q", key)
	}
	t.index[key] = len(t.values)
	t.values = append(t.values, append([]string(nil), values...))
	return nil
}

// Lookup returns the annotation of an entity. A protein group such as
// "P1;P2" that has no annotation of its own falls back to its leading id.
func (t *Table) Lookup(entity string) ([]string, bool) {
	if i, ok := t.index[entity]; ok {
		return t.values[i], true
	}
	if lead, _, found := strings.Cut(entity, ";"); found {
		if i, ok := t.index[strings.TrimSpace(lead)]; ok {
			return t.values[i], true
		}
	}
	return nil, false
}

// Annotated is a matrix with annotation columns joined to its rows.
type Annotated struct {
	Matrix  *core.Matrix
	Columns []string

	fields  [][]string // nil for unmatched rows
	matched int
}

// LeftMerge joins t onto the rows of m. Every matrix row is kept; rows
// without annotation get empty fields.
func LeftMerge(m *core.Matrix, t *Table) *Annotated {
	a := &Annotated{
		Matrix:  m,
		Columns: t.Columns(),
		fields:  make([][]string, m.NumRows()),
	}
	for i, key := range m.Rows() {
		if vals, ok := t.Lookup(key); ok {
			a.fields[i] = append([]string(nil), vals...)
			a.matched++
		}
	}
	return a
}

// Fields returns the annotation of row i and whether the row matched.
// Unmatched rows return empty strings.
func (a *Annotated) Fields(i int) ([]string, bool) {
	if a.fields[i] == nil {
		return make([]string, len(a.Columns)), false
	}
	out := make([]string, len(a.fields[i]))
	copy(out, a.fields[i])
	return out, true
}

// Matched returns how many rows found an annotation.
func (a *Annotated) Matched() int { return a.matched }
