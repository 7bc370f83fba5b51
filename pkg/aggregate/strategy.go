// Package aggregate collapses measurement records into peptide rows and
// peptide rows into protein rows using pluggable reduction strategies.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// DefaultTopK is the number of most intense entries averaged by TopKMean
// when K is not set ("high-flyer" quantification).
const DefaultTopK = 3

// Strategy reduces an entries-by-samples block to one value per sample.
//
// Implementations must ignore missing inputs and return core.NA for a
// column without any observed entry; they must never return NaN or a
// sentinel number in its place.
type Strategy interface {
	Name() string
	Aggregate(entries [][]core.Value, width int) []core.Value
}

// Sum adds the observed entries of each column.
type Sum struct{}

// Name implements Strategy.
func (Sum) Name() string { return "sum" }

// Aggregate implements Strategy.
func (Sum) Aggregate(entries [][]core.Value, width int) []core.Value {
	return byColumn(entries, width, floats.Sum)
}

// Median takes the median of the observed entries of each column.
type Median struct{}

// Name implements Strategy.
func (Median) Name() string { return "median" }

// Aggregate implements Strategy.
func (Median) Aggregate(entries [][]core.Value, width int) []core.Value {
	return byColumn(entries, width, func(xs []float64) float64 {
		m, _ := core.Median(xs)
		return m
	})
}

// TopKMean averages the K most intense observed entries of each column,
// or all of them when fewer than K are observed.
type TopKMean struct {
	K int // 0 means DefaultTopK
}

func (s TopKMean) k() int {
	if s.K <= 0 {
		return DefaultTopK
	}
	return s.K
}

// Name implements Strategy.
func (s TopKMean) Name() string { return fmt.Sprintf("top%d", s.k()) }

// Aggregate implements Strategy.
func (s TopKMean) Aggregate(entries [][]core.Value, width int) []core.Value {
	k := s.k()
	return byColumn(entries, width, func(xs []float64) float64 {
		sort.Sort(sort.Reverse(sort.Float64Slice(xs)))
		if len(xs) > k {
			xs = xs[:k]
		}
		return stat.Mean(xs, nil)
	})
}

// Func adapts a user-supplied reduction to Strategy. Fn must honor the
// missing-value contract of Strategy; the engines reject output that
// does not.
type Func struct {
	Label string
	Fn    func(entries [][]core.Value, width int) []core.Value
}

// Name implements Strategy.
func (f Func) Name() string {
	if f.Label == "" {
		return "custom"
	}
	return f.Label
}

// Aggregate implements Strategy.
func (f Func) Aggregate(entries [][]core.Value, width int) []core.Value {
	return f.Fn(entries, width)
}

// byColumn gathers the observed entries of each column and reduces the
// non-empty ones with fn. Empty columns stay NA.
func byColumn(entries [][]core.Value, width int, fn func([]float64) float64) []core.Value {
	out := make([]core.Value, width)
	col := make([]float64, 0, len(entries))
	for j := 0; j < width; j++ {
		col = col[:0]
		for _, row := range entries {
			if x, ok := row[j].Float(); ok {
				col = append(col, x)
			}
		}
		if len(col) > 0 {
			out[j] = core.Of(fn(col))
		}
	}
	return out
}

// ByName resolves a strategy name: "sum", "median", "topK" (e.g. "top3")
// or "top" with topK supplying K.
func ByName(name string, topK int) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "sum":
		return Sum{}, nil
	case n == "median":
		return Median{}, nil
	case n == "top" || n == "topk":
		if topK < 0 {
			return nil, core.ConfigurationError.New("top-k must be positive, got %d", topK)
		}
		return TopKMean{K: topK}, nil
	case strings.HasPrefix(n, "top"):
		k, err := strconv.Atoi(strings.TrimPrefix(n, "top"))
		if err != nil || k <= 0 {
			return nil, core.ConfigurationError.New("invalid top-k aggregator %q", name)
		}
		return TopKMean{K: k}, nil
	}
	return nil, core.ConfigurationError.New("unknown aggregator %q (want sum, median or topK)", name)
}

// apply runs s over entries and checks the output against the missing-value
// contract.
func apply(s Strategy, key string, entries [][]core.Value, width int) ([]core.Value, error) {
	out := s.Aggregate(entries, width)
	if len(out) != width {
		return nil, core.ConfigurationError.New("aggregator %s returned %d values for %q, want %d", s.Name(), len(out), key, width)
	}
	for j, v := range out {
		x, ok := v.Float()
		if !ok {
			continue
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, core.ConfigurationError.New("aggregator %s returned non-finite %v for %q", s.Name(), x, key)
		}
		observed := false
		for _, row := range entries {
			if !row[j].IsNA() {
				observed = true
				break
			}
		}
		if !observed {
			return nil, core.ConfigurationError.New("aggregator %s invented a value for %q in a column without observations", s.Name(), key)
		}
	}
	return out, nil
}
