package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

func testMatrix(t *testing.T) *core.Matrix {
	t.Helper()
	na := core.NA
	m, err := core.NewMatrix(
		[]string{"P1", "P2", "P3", "P4"},
		[]string{"S1", "S2", "S3"},
		[][]core.Value{
			{core.Of(10), core.Of(40), core.Of(5)},
			{core.Of(20), core.Of(80), na},
			{core.Of(30), na, core.Of(15)},
			{na, core.Of(120), core.Of(25)},
		},
	)
	require.NoError(t, err)
	return m
}

func columnMedian(m *core.Matrix, j int) float64 {
	med, _ := core.Median(core.Present(m.Column(j)))
	return med
}

func TestMedianScale(t *testing.T) {
	m := testMatrix(t)
	norm, err := Apply(m, Median{})
	require.NoError(t, err)

	// Medians 20, 80, 15; target is their mean.
	target := (20.0 + 80.0 + 15.0) / 3
	for j := 0; j < norm.NumSamples(); j++ {
		if got := columnMedian(norm, j); math.Abs(got-target) > 1e-9 {
			t.Errorf("column %d median = %v, want %v", j, got, target)
		}
	}

	if norm.Source() != m {
		t.Error("normalized matrix does not point at its source")
	}
	if got := m.At(0, 0); got != core.Of(10) {
		t.Errorf("source changed: At(0,0) = %v", got)
	}
	if norm.Provenance() != "median-normalized" {
		t.Errorf("Provenance() = %q", norm.Provenance())
	}
}

func TestMedianPreservesMissingPattern(t *testing.T) {
	m := testMatrix(t)
	for _, n := range []Normalizer{Median{}, Median{Mode: Shift}, Median{Target: TargetMedian}, None{}} {
		norm, err := Apply(m, n)
		require.NoError(t, err, n.Name())
		for i := 0; i < m.NumRows(); i++ {
			for j := 0; j < m.NumSamples(); j++ {
				if m.At(i, j).IsNA() != norm.At(i, j).IsNA() {
					t.Errorf("%s: detection state changed at (%d,%d)", n.Name(), i, j)
				}
			}
		}
	}
}

func TestMedianIdempotent(t *testing.T) {
	m := testMatrix(t)
	for _, n := range []Normalizer{Median{}, Median{Mode: Shift}, Median{Target: TargetMedian}} {
		once, err := Apply(m, n)
		require.NoError(t, err)
		twice, err := Apply(once, n)
		require.NoError(t, err)

		for i := 0; i < once.NumRows(); i++ {
			for j := 0; j < once.NumSamples(); j++ {
				a, okA := once.At(i, j).Float()
				b, okB := twice.At(i, j).Float()
				if okA != okB || math.Abs(a-b) > 1e-9*math.Max(1, math.Abs(a)) {
					t.Errorf("%s: (%d,%d) moved from %v to %v", n.Name(), i, j, once.At(i, j), twice.At(i, j))
				}
			}
		}
	}
}

func TestMedianShift(t *testing.T) {
	m, err := core.NewMatrix([]string{"a", "b"}, []string{"S1", "S2"}, [][]core.Value{
		{core.Of(1), core.Of(3)},
		{core.Of(3), core.Of(5)},
	})
	require.NoError(t, err)

	norm, err := Apply(m, Median{Mode: Shift})
	require.NoError(t, err)

	// Medians 2 and 4, target 3.
	want := [][]float64{{2, 2}, {4, 4}}
	for i := range want {
		for j := range want[i] {
			if got := norm.At(i, j); got != core.Of(want[i][j]) {
				t.Errorf("At(%d,%d) = %v, want %v", i, j, got, want[i][j])
			}
		}
	}
}

func TestMedianSkipsEmptyAndZeroColumns(t *testing.T) {
	na := core.NA
	m, err := core.NewMatrix([]string{"a", "b", "c"}, []string{"S1", "S2", "S3"}, [][]core.Value{
		{core.Of(2), na, core.Of(0)},
		{core.Of(4), na, core.Of(0)},
		{core.Of(6), na, core.Of(1)},
	})
	require.NoError(t, err)

	norm, err := Apply(m, Median{})
	require.NoError(t, err)

	// Only S1 is usable, so its own median is the target.
	for i := 0; i < 3; i++ {
		if norm.At(i, 0) != m.At(i, 0) || norm.At(i, 2) != m.At(i, 2) {
			t.Errorf("row %d changed: %v -> %v", i, m.Row(i), norm.Row(i))
		}
	}
}

func TestApplyRejectsPatternChanges(t *testing.T) {
	m := testMatrix(t)

	fill := Func{Label: "fill", Fn: func(cells [][]core.Value) ([][]core.Value, error) {
		out := copyCells(cells)
		for i := range out {
			for j := range out[i] {
				if out[i][j].IsNA() {
					out[i][j] = core.Of(0)
				}
			}
		}
		return out, nil
	}}
	drop := Func{Fn: func(cells [][]core.Value) ([][]core.Value, error) {
		return cells[:1], nil
	}}

	for _, n := range []Normalizer{fill, drop} {
		if _, err := Apply(m, n); !core.ConfigurationError.Has(err) {
			t.Errorf("Apply(%s) error = %v, want configuration error", n.Name(), err)
		}
	}
}

func TestApplyUserFunction(t *testing.T) {
	m := testMatrix(t)
	double := Func{Label: "double", Fn: func(cells [][]core.Value) ([][]core.Value, error) {
		out := copyCells(cells)
		for i := range out {
			for j := range out[i] {
				out[i][j] = out[i][j].Map(func(x float64) float64 { return 2 * x })
			}
		}
		return out, nil
	}}

	norm, err := Apply(m, double)
	require.NoError(t, err)
	if got := norm.At(0, 1); got != core.Of(80) {
		t.Errorf("At(0,1) = %v, want 80", got)
	}
	if norm.Provenance() != "double-normalized" {
		t.Errorf("Provenance() = %q", norm.Provenance())
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{"median": "median", "median-shift": "median-shift", "none": "none", "": "median"} {
		n, err := ByName(name)
		require.NoError(t, err)
		if n.Name() != want {
			t.Errorf("ByName(%q).Name() = %q, want %q", name, n.Name(), want)
		}
	}
	if _, err := ByName("quantile"); !core.ConfigurationError.Has(err) {
		t.Errorf("ByName(quantile) error = %v, want configuration error", err)
	}
}
