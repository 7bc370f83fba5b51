// Package core provides the data model shared by every ProtQuant stage:
// optional intensity values, evidence records, sample metadata, intensity
// matrices and the peptide-to-protein map.
package core

import (
	"math"
	"sort"
	"strconv"
)

// Value is an intensity that is either observed or missing ("not detected").
// The zero Value is missing. Zero is a legitimate observed intensity and is
// never used to stand in for a missing one.
type Value struct {
	x     float64
	valid bool
}

// NA is the missing value.
var NA = Value{}

// Of returns an observed value.
func Of(x float64) Value {
	return Value{x: x, valid: true}
}

// Finite returns an observed value for finite x and NA for NaN or ±Inf.
func Finite(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return NA
	}
	return Of(x)
}

// IsNA reports whether the value is missing.
func (v Value) IsNA() bool {
	return !v.valid
}

// Float returns the observed number and true, or 0 and false when missing.
func (v Value) Float() (float64, bool) {
	return v.x, v.valid
}

// Or returns the observed number, or def when missing.
func (v Value) Or(def float64) float64 {
	if !v.valid {
		return def
	}
	return v.x
}

// IsFinite reports whether the value is observed and a finite number.
func (v Value) IsFinite() bool {
	return v.valid && !math.IsNaN(v.x) && !math.IsInf(v.x, 0)
}

// Map applies fn to an observed value. Missing stays missing and a
// non-finite result becomes missing.
func (v Value) Map(fn func(float64) float64) Value {
	if !v.valid {
		return NA
	}
	return Finite(fn(v.x))
}

func (v Value) String() string {
	if !v.valid {
		return "NA"
	}
	return strconv.FormatFloat(v.x, 'g', -1, 64)
}

// Present returns the observed numbers of vals in their original order.
func Present(vals []Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.valid {
			out = append(out, v.x)
		}
	}
	return out
}

// CountPresent returns the number of observed values.
func CountPresent(vals []Value) int {
	n := 0
	for _, v := range vals {
		if v.valid {
			n++
		}
	}
	return n
}

// Median returns the median of xs, averaging the two middle elements for an
// even count. It reports false for an empty slice. xs is not modified.
func Median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}
