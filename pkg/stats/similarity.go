package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// SquareMatrix is a symmetric sample-by-sample matrix of similarities or
// distances. Undefined entries are NA.
type SquareMatrix struct {
	labels []string
	cells  [][]core.Value
}

func newSquare(labels []string) *SquareMatrix {
	s := &SquareMatrix{labels: labels, cells: make([][]core.Value, len(labels))}
	for i := range s.cells {
		s.cells[i] = make([]core.Value, len(labels))
	}
	return s
}

func (s *SquareMatrix) set(i, j int, v core.Value) {
	s.cells[i][j] = v
	s.cells[j][i] = v
}

// Len returns the number of samples.
func (s *SquareMatrix) Len() int { return len(s.labels) }

// Labels returns the sample identifiers.
func (s *SquareMatrix) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// At returns the entry for samples i and j.
func (s *SquareMatrix) At(i, j int) core.Value { return s.cells[i][j] }

// Get returns the entry for two sample identifiers, NA if either is unknown.
func (s *SquareMatrix) Get(a, b string) core.Value {
	i, j := indexOf(s.labels, a), indexOf(s.labels, b)
	if i < 0 || j < 0 {
		return core.NA
	}
	return s.cells[i][j]
}

// Distance returns 1 - s for every defined entry.
func (s *SquareMatrix) Distance() *SquareMatrix {
	d := newSquare(s.Labels())
	for i := range s.cells {
		for j := range s.cells[i] {
			d.cells[i][j] = s.cells[i][j].Map(func(x float64) float64 { return 1 - x })
		}
	}
	return d
}

// UpperTriangle returns the defined entries above the diagonal, row by row.
func (s *SquareMatrix) UpperTriangle() []float64 {
	var out []float64
	for i := range s.cells {
		for j := i + 1; j < len(s.cells); j++ {
			if x, ok := s.cells[i][j].Float(); ok {
				out = append(out, x)
			}
		}
	}
	return out
}

// Jaccard returns |A∩B| / |A∪B| for the detection sets of samples a and b
// (the rows observed in each). An empty union is undefined.
func Jaccard(m *core.Matrix, a, b string) (core.Value, error) {
	i, ok := m.SampleIndex(a)
	if !ok {
		return core.NA, core.ConfigurationError.New("unknown sample %q", a)
	}
	j, ok := m.SampleIndex(b)
	if !ok {
		return core.NA, core.ConfigurationError.New("unknown sample %q", b)
	}
	return jaccard(m, i, j), nil
}

func jaccard(m *core.Matrix, a, b int) core.Value {
	inter, union := 0, 0
	for i := 0; i < m.NumRows(); i++ {
		inA, inB := !m.At(i, a).IsNA(), !m.At(i, b).IsNA()
		if inA || inB {
			union++
		}
		if inA && inB {
			inter++
		}
	}
	if union == 0 {
		return core.NA
	}
	return core.Of(float64(inter) / float64(union))
}

// JaccardMatrix computes Jaccard similarity for every pair of samples.
func JaccardMatrix(m *core.Matrix) *SquareMatrix {
	s := newSquare(m.Samples())
	for a := 0; a < s.Len(); a++ {
		for b := a; b < s.Len(); b++ {
			s.set(a, b, jaccard(m, a, b))
		}
	}
	return s
}

// JaccardDistribution returns the defined Jaccard similarities of all
// unordered sample pairs.
func JaccardDistribution(m *core.Matrix) []float64 {
	return JaccardMatrix(m).UpperTriangle()
}

// Bin is one histogram bucket, covering [Lower, Upper).
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram counts similarity values in [0, 1] into bins of the given
// width. The last bin is closed so that a similarity of exactly 1 is
// counted.
func Histogram(values []float64, binWidth float64) ([]Bin, error) {
	if !(binWidth > 0 && binWidth <= 1) {
		return nil, core.ConfigurationError.New("bin width must be in (0, 1], got %v", binWidth)
	}
	for _, x := range values {
		if !(x >= 0 && x <= 1) {
			return nil, core.ConfigurationError.New("histogram value %v outside [0, 1]", x)
		}
	}

	n := int(math.Ceil(1/binWidth - 1e-9))
	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = float64(i) * binWidth
	}
	if dividers[n] < 1 {
		dividers[n] = 1
	}
	upper := dividers[n]
	dividers[n] = math.Nextafter(upper, math.Inf(1))

	counts := make([]float64, n)
	if len(values) > 0 {
		sorted := make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)
		stat.Histogram(counts, dividers, sorted, nil)
	}

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	bins[n-1].Upper = upper
	return bins, nil
}

// Correlation computes the Pearson correlation of every pair of samples over
// the rows observed in both (pairwise-complete). Pairs with fewer than two
// shared rows or without variance are NA; the diagonal is exactly 1.
func Correlation(m *core.Matrix) *SquareMatrix {
	s := newSquare(m.Samples())
	xs := make([]float64, 0, m.NumRows())
	ys := make([]float64, 0, m.NumRows())
	for a := 0; a < s.Len(); a++ {
		s.set(a, a, core.Of(1))
		for b := a + 1; b < s.Len(); b++ {
			xs, ys = xs[:0], ys[:0]
			for i := 0; i < m.NumRows(); i++ {
				x, okX := m.At(i, a).Float()
				y, okY := m.At(i, b).Float()
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := stat.Correlation(xs, ys, nil)
			if v := core.Finite(r); !v.IsNA() {
				s.set(a, b, core.Of(math.Max(-1, math.Min(1, r))))
			}
		}
	}
	return s
}
