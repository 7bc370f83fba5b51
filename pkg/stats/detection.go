// Package stats derives descriptive statistics from intensity matrices:
// per-condition detection, means and variances, Jaccard similarity,
// correlation and hierarchical clustering of samples.
package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// conditionColumns groups the matrix columns by condition. Conditions are
// listed in sample-set order, restricted to those with a column in m.
func conditionColumns(m *core.Matrix, samples *core.SampleSet) ([]string, [][]int, error) {
	if samples == nil {
		return nil, nil, core.ConfigurationError.New("sample metadata is required")
	}
	byCond := make(map[string][]int)
	for j, id := range m.Samples() {
		cond, ok := samples.Condition(id)
		if !ok {
			return nil, nil, core.ConfigurationError.New("matrix sample %q is not in the sample metadata", id)
		}
		byCond[cond] = append(byCond[cond], j)
	}

	var conds []string
	var cols [][]int
	for _, c := range samples.Conditions() {
		if js, ok := byCond[c]; ok {
			conds = append(conds, c)
			cols = append(cols, js)
		}
	}
	return conds, cols, nil
}

// DetectionTable records, for each matrix row and condition, whether any
// sample of the condition has an observed value.
type DetectionTable struct {
	rows       []string
	conditions []string
	detected   [][]bool
}

// Detect builds the detection table of m.
func Detect(m *core.Matrix, samples *core.SampleSet) (*DetectionTable, error) {
	conds, cols, err := conditionColumns(m, samples)
	if err != nil {
		return nil, err
	}

	dt := &DetectionTable{
		rows:       m.Rows(),
		conditions: conds,
		detected:   make([][]bool, m.NumRows()),
	}
	for i := range dt.detected {
		dt.detected[i] = make([]bool, len(conds))
		for c, js := range cols {
			for _, j := range js {
				if !m.At(i, j).IsNA() {
					dt.detected[i][c] = true
					break
				}
			}
		}
	}
	return dt, nil
}

// Rows returns the row keys.
func (d *DetectionTable) Rows() []string {
	out := make([]string, len(d.rows))
	copy(out, d.rows)
	return out
}

// Conditions returns the condition columns.
func (d *DetectionTable) Conditions() []string {
	out := make([]string, len(d.conditions))
	copy(out, d.conditions)
	return out
}

// At reports detection for row i and condition column c.
func (d *DetectionTable) At(i, c int) bool {
	return d.detected[i][c]
}

// DetectedIn reports detection of a row key under a condition. ok is false
// when either is unknown.
func (d *DetectionTable) DetectedIn(row, condition string) (detected, ok bool) {
	c := indexOf(d.conditions, condition)
	if c < 0 {
		return false, false
	}
	i := indexOf(d.rows, row)
	if i < 0 {
		return false, false
	}
	return d.detected[i][c], true
}

// CountByCondition returns the number of detected rows per condition,
// aligned with Conditions.
func (d *DetectionTable) CountByCondition() []int {
	counts := make([]int, len(d.conditions))
	for _, row := range d.detected {
		for c, ok := range row {
			if ok {
				counts[c]++
			}
		}
	}
	return counts
}

// ConditionSummary holds per-row, per-condition mean and variance of the
// observed values.
type ConditionSummary struct {
	rows       []string
	conditions []string
	mean       [][]core.Value
	variance   [][]core.Value
	n          [][]int
}

// Summarize computes the mean and sample variance of each row within each
// condition. With no observations both are NA; with one the variance is 0.
func Summarize(m *core.Matrix, samples *core.SampleSet) (*ConditionSummary, error) {
	conds, cols, err := conditionColumns(m, samples)
	if err != nil {
		return nil, err
	}

	s := &ConditionSummary{
		rows:       m.Rows(),
		conditions: conds,
		mean:       make([][]core.Value, m.NumRows()),
		variance:   make([][]core.Value, m.NumRows()),
		n:          make([][]int, m.NumRows()),
	}
	xs := make([]float64, 0, m.NumSamples())
	for i := 0; i < m.NumRows(); i++ {
		s.mean[i] = make([]core.Value, len(conds))
		s.variance[i] = make([]core.Value, len(conds))
		s.n[i] = make([]int, len(conds))
		for c, js := range cols {
			xs = xs[:0]
			for _, j := range js {
				if x, ok := m.At(i, j).Float(); ok {
					xs = append(xs, x)
				}
			}
			s.n[i][c] = len(xs)
			switch len(xs) {
			case 0:
			case 1:
				s.mean[i][c] = core.Of(xs[0])
				s.variance[i][c] = core.Of(0)
			default:
				mean, variance := stat.MeanVariance(xs, nil)
				s.mean[i][c] = core.Of(mean)
				s.variance[i][c] = core.Of(variance)
			}
		}
	}
	return s, nil
}

// Rows returns the row keys.
func (s *ConditionSummary) Rows() []string {
	out := make([]string, len(s.rows))
	copy(out, s.rows)
	return out
}

// Conditions returns the condition columns.
func (s *ConditionSummary) Conditions() []string {
	out := make([]string, len(s.conditions))
	copy(out, s.conditions)
	return out
}

// Mean returns the mean for row i and condition column c.
func (s *ConditionSummary) Mean(i, c int) core.Value { return s.mean[i][c] }

// Variance returns the variance for row i and condition column c.
func (s *ConditionSummary) Variance(i, c int) core.Value { return s.variance[i][c] }

// Count returns the number of observed values for row i and condition c.
func (s *ConditionSummary) Count(i, c int) int { return s.n[i][c] }

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
