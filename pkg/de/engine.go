// Package de prepares intensity matrices for two-condition differential
// expression testing and post-processes the test results.
package de

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// Group labels in the design vector handed to an Engine.
const (
	GroupNone = -1 // sample not part of the contrast
	GroupA    = 0  // reference condition
	GroupB    = 1
)

// Estimate is an engine's result for one entity row.
type Estimate struct {
	Effect core.Value // B minus A on the transformed scale
	P      core.Value // raw p-value
}

// Engine runs the per-entity hypothesis test. data holds transformed values
// (entities by samples); groups assigns each sample column to GroupA,
// GroupB or GroupNone. Fit must return one Estimate per row.
type Engine interface {
	Name() string
	Fit(data [][]core.Value, groups []int) ([]Estimate, error)
}

// Welch is the default engine: an unequal-variance two-sample t-test per
// row over the observed values.
type Welch struct{}

// Name implements Engine.
func (Welch) Name() string { return "welch" }

// Fit implements Engine. The effect is defined when both groups have an
// observation; the p-value additionally needs two observations per group
// and a non-zero standard error.
func (Welch) Fit(data [][]core.Value, groups []int) ([]Estimate, error) {
	out := make([]Estimate, len(data))
	var a, b []float64
	for i, row := range data {
		if len(row) != len(groups) {
			return nil, core.ConfigurationError.New("row %d has %d values for %d groups", i, len(row), len(groups))
		}
		a, b = a[:0], b[:0]
		for j, v := range row {
			x, ok := v.Float()
			if !ok {
				continue
			}
			switch groups[j] {
			case GroupA:
				a = append(a, x)
			case GroupB:
				b = append(b, x)
			}
		}
		out[i] = welch(a, b)
	}
	return out, nil
}

func welch(a, b []float64) Estimate {
	if len(a) == 0 || len(b) == 0 {
		return Estimate{}
	}
	if len(a) < 2 || len(b) < 2 {
		return Estimate{Effect: core.Of(stat.Mean(b, nil) - stat.Mean(a, nil))}
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))
	effect := meanB - meanA

	sa, sb := varA/na, varB/nb
	se2 := sa + sb
	if se2 == 0 {
		return Estimate{Effect: core.Of(effect)}
	}
	t := effect / math.Sqrt(se2)
	df := se2 * se2 / (sa*sa/(na-1) + sb*sb/(nb-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	return Estimate{Effect: core.Of(effect), P: core.Finite(math.Min(1, p))}
}
