package stats

import (
	"math"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// Merge is one agglomeration step. Left and Right follow the hclust
// convention: a negative number -k is leaf k-1 (0-based sample index), a
// positive number k is the cluster formed at step k (1-based).
type Merge struct {
	Left   int
	Right  int
	Height float64
	Size   int
}

// Dendrogram is the result of hierarchical clustering of samples.
type Dendrogram struct {
	Labels []string
	Merges []Merge
	Order  []int // leaf indices in plotting order
}

// OrderedLabels returns the sample identifiers in dendrogram order.
func (d *Dendrogram) OrderedLabels() []string {
	out := make([]string, len(d.Order))
	for i, leaf := range d.Order {
		out[i] = d.Labels[leaf]
	}
	return out
}

// Cluster runs average-linkage agglomerative clustering over a distance
// matrix. Undefined distances count as 1 (no correlation). Ties are broken
// by the lowest pair of cluster slots so the result is deterministic.
func Cluster(dist *SquareMatrix) (*Dendrogram, error) {
	n := dist.Len()
	if n == 0 {
		return nil, core.ConfigurationError.New("cannot cluster an empty distance matrix")
	}

	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			if i != j {
				d[i][j] = dist.At(i, j).Or(1)
			}
		}
	}

	// Slot i holds a cluster while active[i]; id is its hclust label.
	active := make([]bool, n)
	id := make([]int, n)
	size := make([]int, n)
	for i := range active {
		active[i] = true
		id[i] = -(i + 1)
		size[i] = 1
	}

	dg := &Dendrogram{Labels: dist.Labels(), Merges: make([]Merge, 0, n-1)}
	for step := 1; step < n; step++ {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i][j] < best {
					best, bi, bj = d[i][j], i, j
				}
			}
		}

		left, right := id[bi], id[bj]
		if mergeLess(right, left) {
			left, right = right, left
		}
		dg.Merges = append(dg.Merges, Merge{Left: left, Right: right, Height: best, Size: size[bi] + size[bj]})

		// Average linkage: weight the two clusters by their sizes.
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			avg := (float64(size[bi])*d[bi][k] + float64(size[bj])*d[bj][k]) / float64(size[bi]+size[bj])
			d[bi][k], d[k][bi] = avg, avg
		}
		size[bi] += size[bj]
		id[bi] = step
		active[bj] = false
	}

	dg.Order = leafOrder(dg.Merges, n)
	return dg, nil
}

// mergeLess orders merge members: leaves before clusters, then leaves by
// index and clusters by step.
func mergeLess(a, b int) bool {
	switch {
	case a < 0 && b < 0:
		return -a < -b
	case a < 0:
		return true
	case b < 0:
		return false
	}
	return a < b
}

func leafOrder(merges []Merge, n int) []int {
	if len(merges) == 0 {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		return order
	}
	order := make([]int, 0, n)
	var walk func(node int)
	walk = func(node int) {
		if node < 0 {
			order = append(order, -node-1)
			return
		}
		m := merges[node-1]
		walk(m.Left)
		walk(m.Right)
	}
	walk(len(merges))
	return order
}
