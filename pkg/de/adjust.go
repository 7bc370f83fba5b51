package de

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// AdjustBH applies the Benjamini–Hochberg step-up correction to the defined
// p-values. Missing p-values stay missing and do not count towards the
// number of tests.
func AdjustBH(p []core.Value) []core.Value {
	idx := make([]int, 0, len(p))
	for i, v := range p {
		if !v.IsNA() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, _ := p[idx[a]].Float()
		pb, _ := p[idx[b]].Float()
		return pa < pb
	})

	out := make([]core.Value, len(p))
	m := float64(len(idx))
	running := 1.0
	for rank := len(idx); rank >= 1; rank-- {
		i := idx[rank-1]
		x, _ := p[i].Float()
		running = math.Min(running, x*m/float64(rank))
		out[i] = core.Of(running)
	}
	return out
}
