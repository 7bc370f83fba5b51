package stats

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

func sampleSet(t *testing.T, conds map[string]string, order ...string) *core.SampleSet {
	t.Helper()
	samples := make([]core.Sample, len(order))
	for i, id := range order {
		samples[i] = core.Sample{ID: id, Condition: conds[id]}
	}
	set, err := core.NewSampleSet(samples)
	require.NoError(t, err)
	return set
}

func fixture(t *testing.T) (*core.Matrix, *core.SampleSet) {
	t.Helper()
	na := core.NA
	m, err := core.NewMatrix(
		[]string{"P1", "P2", "P3"},
		[]string{"S1", "S2", "S3", "S4"},
		[][]core.Value{
			{core.Of(1), core.Of(3), core.Of(5), na},
			{core.Of(2), na, na, na},
			{na, na, core.Of(4), core.Of(6)},
		},
	)
	require.NoError(t, err)
	set := sampleSet(t, map[string]string{"S1": "A", "S2": "A", "S3": "B", "S4": "B"}, "S1", "S2", "S3", "S4")
	return m, set
}

func TestDetect(t *testing.T) {
	m, set := fixture(t)
	dt, err := Detect(m, set)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"A", "B"}, dt.Conditions()); diff != "" {
		t.Errorf("Conditions() mismatch (-want +got):\n%s", diff)
	}
	want := [][]bool{{true, true}, {true, false}, {false, true}}
	for i := range want {
		for c := range want[i] {
			if dt.At(i, c) != want[i][c] {
				t.Errorf("At(%d,%d) = %v, want %v", i, c, dt.At(i, c), want[i][c])
			}
		}
	}
	if got, ok := dt.DetectedIn("P2", "B"); !ok || got {
		t.Errorf("DetectedIn(P2, B) = %v, %v", got, ok)
	}
	if _, ok := dt.DetectedIn("P2", "C"); ok {
		t.Error("DetectedIn(P2, C) reported a known condition")
	}
	if diff := cmp.Diff([]int{2, 2}, dt.CountByCondition()); diff != "" {
		t.Errorf("CountByCondition() mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectUnknownSample(t *testing.T) {
	m, _ := fixture(t)
	set := sampleSet(t, map[string]string{"S1": "A"}, "S1")
	if _, err := Detect(m, set); !core.ConfigurationError.Has(err) {
		t.Errorf("Detect() error = %v, want configuration error", err)
	}
}

func TestSummarize(t *testing.T) {
	m, set := fixture(t)
	s, err := Summarize(m, set)
	require.NoError(t, err)

	// P1 in A: {1, 3}.
	if got := s.Mean(0, 0); got != core.Of(2) {
		t.Errorf("Mean(P1, A) = %v, want 2", got)
	}
	if got := s.Variance(0, 0); got != core.Of(2) {
		t.Errorf("Variance(P1, A) = %v, want 2", got)
	}
	// P1 in B: {5}.
	if got := s.Variance(0, 1); got != core.Of(0) {
		t.Errorf("Variance(P1, B) = %v, want 0", got)
	}
	if got := s.Mean(0, 1); got != core.Of(5) {
		t.Errorf("Mean(P1, B) = %v, want 5", got)
	}
	// P2 in B: nothing.
	if !s.Mean(1, 1).IsNA() || !s.Variance(1, 1).IsNA() || s.Count(1, 1) != 0 {
		t.Errorf("P2 in B = %v, %v, n=%d; want NA, NA, 0", s.Mean(1, 1), s.Variance(1, 1), s.Count(1, 1))
	}
}

func TestJaccard(t *testing.T) {
	na := core.NA
	m, err := core.NewMatrix(
		[]string{"a", "b", "c", "d"},
		[]string{"S1", "S2", "S3", "S4", "S5"},
		[][]core.Value{
			{core.Of(1), core.Of(1), na, core.Of(1), na},
			{core.Of(1), core.Of(1), na, na, na},
			{na, na, core.Of(1), na, na},
			{na, na, na, core.Of(1), na},
		},
	)
	require.NoError(t, err)

	tests := []struct {
		a, b string
		want core.Value
	}{
		{"S1", "S2", core.Of(1)},       // identical detection sets
		{"S1", "S3", core.Of(0)},       // disjoint
		{"S1", "S4", core.Of(1.0 / 3)}, // {a} of {a,b,d}
		{"S5", "S5", na},               // empty union
		{"S1", "S5", core.Of(0)},
	}
	for _, tt := range tests {
		got, err := Jaccard(m, tt.a, tt.b)
		require.NoError(t, err)
		if got != tt.want {
			t.Errorf("Jaccard(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	js := JaccardMatrix(m)
	for i := 0; i < js.Len(); i++ {
		for j := 0; j < js.Len(); j++ {
			if js.At(i, j) != js.At(j, i) {
				t.Errorf("JaccardMatrix not symmetric at (%d,%d)", i, j)
			}
			if x, ok := js.At(i, j).Float(); ok && (x < 0 || x > 1) {
				t.Errorf("JaccardMatrix(%d,%d) = %v out of [0,1]", i, j, x)
			}
		}
	}

	// 10 pairs, none undefined because S5 pairs have a non-empty union.
	if got := len(JaccardDistribution(m)); got != 10 {
		t.Errorf("len(JaccardDistribution) = %d, want 10", got)
	}

	if _, err := Jaccard(m, "S1", "S9"); !core.ConfigurationError.Has(err) {
		t.Errorf("Jaccard(S1, S9) error = %v, want configuration error", err)
	}
}

func TestHistogram(t *testing.T) {
	bins, err := Histogram([]float64{0, 0.05, 0.5, 0.74, 1, 1}, 0.25)
	require.NoError(t, err)

	want := []int{2, 0, 2, 2}
	require.Len(t, bins, len(want))
	for i, b := range bins {
		if b.Count != want[i] {
			t.Errorf("bin %d [%v,%v) count = %d, want %d", i, b.Lower, b.Upper, b.Count, want[i])
		}
	}
	if bins[3].Upper != 1 {
		t.Errorf("last bin upper = %v, want 1", bins[3].Upper)
	}

	bins, err = Histogram(nil, 0.1)
	require.NoError(t, err)
	if len(bins) != 10 {
		t.Errorf("len(bins) = %d, want 10", len(bins))
	}

	if _, err := Histogram([]float64{0.5}, 0); !core.ConfigurationError.Has(err) {
		t.Errorf("zero bin width error = %v", err)
	}
	if _, err := Histogram([]float64{1.5}, 0.1); !core.ConfigurationError.Has(err) {
		t.Errorf("out-of-range value error = %v", err)
	}
}

func TestCorrelation(t *testing.T) {
	na := core.NA
	m, err := core.NewMatrix(
		[]string{"a", "b", "c", "d"},
		[]string{"S1", "S2", "S3", "S4"},
		[][]core.Value{
			{core.Of(1), core.Of(2), core.Of(4), core.Of(7)},
			{core.Of(2), core.Of(4), core.Of(3), na},
			{core.Of(3), core.Of(6), core.Of(2), core.Of(7)},
			{na, core.Of(100), na, na},
		},
	)
	require.NoError(t, err)

	c := Correlation(m)
	for i := 0; i < c.Len(); i++ {
		if c.At(i, i) != core.Of(1) {
			t.Errorf("diagonal %d = %v, want exactly 1", i, c.At(i, i))
		}
		for j := 0; j < c.Len(); j++ {
			if c.At(i, j) != c.At(j, i) {
				t.Errorf("not symmetric at (%d,%d)", i, j)
			}
		}
	}

	// S1 and S2 share a, b, c (d is missing in S1): perfectly correlated.
	if x, _ := c.Get("S1", "S2").Float(); math.Abs(x-1) > 1e-12 {
		t.Errorf("cor(S1, S2) = %v, want 1", x)
	}
	if x, _ := c.Get("S1", "S3").Float(); math.Abs(x+1) > 1e-12 {
		t.Errorf("cor(S1, S3) = %v, want -1", x)
	}
	// S4 is constant over the shared rows.
	if got := c.Get("S1", "S4"); !got.IsNA() {
		t.Errorf("cor(S1, S4) = %v, want NA", got)
	}

	d := c.Distance()
	if x, _ := d.Get("S1", "S3").Float(); math.Abs(x-2) > 1e-12 {
		t.Errorf("dist(S1, S3) = %v, want 2", x)
	}
	if d.At(0, 0) != core.Of(0) {
		t.Errorf("dist diagonal = %v, want 0", d.At(0, 0))
	}
}

func TestCluster(t *testing.T) {
	labels := []string{"S1", "S2", "S3", "S4"}
	dist := newSquare(labels)
	raw := [][]float64{
		{0, 0.1, 0.8, 0.9},
		{0.1, 0, 0.7, 0.8},
		{0.8, 0.7, 0, 0.2},
		{0.9, 0.8, 0.2, 0},
	}
	for i := range raw {
		for j := range raw[i] {
			dist.cells[i][j] = core.Of(raw[i][j])
		}
	}

	dg, err := Cluster(dist)
	require.NoError(t, err)

	want := []Merge{
		{Left: -1, Right: -2, Height: 0.1, Size: 2},
		{Left: -3, Right: -4, Height: 0.2, Size: 2},
		{Left: 1, Right: 2, Height: 0.8, Size: 4}, // mean of 0.8, 0.9, 0.7, 0.8
	}
	opt := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-12 })
	if diff := cmp.Diff(want, dg.Merges, opt); diff != "" {
		t.Errorf("Merges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, dg.Order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(labels, dg.OrderedLabels()); diff != "" {
		t.Errorf("OrderedLabels mismatch (-want +got):\n%s", diff)
	}
}

func TestClusterTiesAndMissing(t *testing.T) {
	dist := newSquare([]string{"S1", "S2", "S3"})
	for i := 0; i < 3; i++ {
		dist.cells[i][i] = core.Of(0)
	}
	// All off-diagonal distances undefined: every pair ties at 1.
	dg, err := Cluster(dist)
	require.NoError(t, err)

	want := []Merge{
		{Left: -1, Right: -2, Height: 1, Size: 2},
		{Left: -3, Right: 1, Height: 1, Size: 3},
	}
	if diff := cmp.Diff(want, dg.Merges); diff != "" {
		t.Errorf("Merges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 0, 1}, dg.Order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}

	single, err := Cluster(newSquare([]string{"S1"}))
	require.NoError(t, err)
	if len(single.Merges) != 0 || len(single.Order) != 1 {
		t.Errorf("single-sample dendrogram = %+v", single)
	}
}
