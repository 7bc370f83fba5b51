// Package normalize rescales intensity matrices column by column so that
// samples become comparable.
package normalize

import (
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// Normalizer maps an entities-by-samples block to a block of the same
// shape. Implementations must keep every missing cell missing and every
// observed cell observed.
type Normalizer interface {
	Name() string
	Normalize(cells [][]core.Value) ([][]core.Value, error)
}

// Target selects how the common central value is derived from the
// per-sample central values.
type Target int

const (
	// TargetMean uses the mean of the per-sample medians.
	TargetMean Target = iota
	// TargetMedian uses the median of the per-sample medians.
	TargetMedian
)

// Mode selects how a column is moved onto the target.
type Mode int

const (
	// Scale multiplies each column by target/median (linear intensities).
	Scale Mode = iota
	// Shift adds target-median to each column (log intensities).
	Shift
)

// Median equalizes the per-sample medians of the observed values.
type Median struct {
	Target Target
	Mode   Mode
}

// Name implements Normalizer.
func (n Median) Name() string {
	if n.Mode == Shift {
		return "median-shift"
	}
	return "median"
}

// Normalize implements Normalizer. Columns without observations, and in
// Scale mode columns whose median is zero, are left unchanged and do not
// contribute to the target.
func (n Median) Normalize(cells [][]core.Value) ([][]core.Value, error) {
	out := copyCells(cells)
	if len(cells) == 0 {
		return out, nil
	}
	width := len(cells[0])

	centrals := make([]float64, width)
	usable := make([]bool, width)
	var targets []float64
	for j := 0; j < width; j++ {
		col := make([]core.Value, len(cells))
		for i := range cells {
			col[i] = cells[i][j]
		}
		c, ok := core.Median(core.Present(col))
		if !ok || (n.Mode == Scale && c == 0) {
			continue
		}
		centrals[j] = c
		usable[j] = true
		targets = append(targets, c)
	}
	if len(targets) == 0 {
		return out, nil
	}

	var target float64
	switch n.Target {
	case TargetMedian:
		target, _ = core.Median(targets)
	default:
		target = stat.Mean(targets, nil)
	}

	for j := 0; j < width; j++ {
		if !usable[j] {
			continue
		}
		c := centrals[j]
		for i := range out {
			out[i][j] = out[i][j].Map(func(x float64) float64 {
				if n.Mode == Shift {
					return x + (target - c)
				}
				return x * (target / c)
			})
		}
	}
	return out, nil
}

// None returns the cells unchanged.
type None struct{}

// Name implements Normalizer.
func (None) Name() string { return "none" }

// Normalize implements Normalizer.
func (None) Normalize(cells [][]core.Value) ([][]core.Value, error) {
	return copyCells(cells), nil
}

// Func adapts a user-supplied normalization function.
type Func struct {
	Label string
	Fn    func(cells [][]core.Value) ([][]core.Value, error)
}

// Name implements Normalizer.
func (f Func) Name() string {
	if f.Label == "" {
		return "custom"
	}
	return f.Label
}

// Normalize implements Normalizer.
func (f Func) Normalize(cells [][]core.Value) ([][]core.Value, error) {
	return f.Fn(cells)
}

// ByName resolves "median", "median-shift" or "none".
func ByName(name string) (Normalizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "median", "":
		return Median{}, nil
	case "median-shift":
		return Median{Mode: Shift}, nil
	case "none":
		return None{}, nil
	}
	return nil, core.ConfigurationError.New("unknown normalization %q (want median, median-shift or none)", name)
}

// Apply runs n over m and returns a new matrix derived from m. m itself is
// never modified. Output that changes the shape or the missing-value
// pattern is rejected.
func Apply(m *core.Matrix, n Normalizer) (*core.Matrix, error) {
	if n == nil {
		n = Median{}
	}
	in := m.Cells()
	out, err := n.Normalize(m.Cells())
	if err != nil {
		return nil, core.ConfigurationError.Wrap(err)
	}

	if len(out) != len(in) {
		return nil, core.ConfigurationError.New("normalization %s returned %d rows, want %d", n.Name(), len(out), len(in))
	}
	rows := m.Rows()
	for i := range in {
		if len(out[i]) != len(in[i]) {
			return nil, core.ConfigurationError.New("normalization %s returned %d columns for %q, want %d", n.Name(), len(out[i]), rows[i], len(in[i]))
		}
		for j := range in[i] {
			if in[i][j].IsNA() != out[i][j].IsNA() {
				return nil, core.ConfigurationError.New("normalization %s changed the detection state of %q in sample %d", n.Name(), rows[i], j+1)
			}
			if !out[i][j].IsNA() && !out[i][j].IsFinite() {
				return nil, core.ConfigurationError.New("normalization %s produced a non-finite value for %q", n.Name(), rows[i])
			}
		}
	}

	return m.Derive(n.Name()+"-normalized", out)
}

func copyCells(cells [][]core.Value) [][]core.Value {
	out := make([][]core.Value, len(cells))
	for i, row := range cells {
		out[i] = make([]core.Value, len(row))
		copy(out[i], row)
	}
	return out
}
