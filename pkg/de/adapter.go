package de

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// DefaultAlpha is the default significance level for adjusted p-values.
const DefaultAlpha = 0.05

// ErrAmbiguousConditions is returned when no contrast was given and the
// metadata does not have exactly two conditions.
var ErrAmbiguousConditions = core.ConfigurationError.New("ambiguous conditions: specify the two conditions to compare")

// Transform is an elementwise transform applied before testing.
type Transform struct {
	Name string
	Fn   func(float64) float64
}

// Built-in transforms.
var (
	Log10    = Transform{Name: "log10", Fn: math.Log10}
	Log2     = Transform{Name: "log2", Fn: math.Log2}
	Identity = Transform{Name: "none", Fn: func(x float64) float64 { return x }}
)

// TransformByName resolves "log10", "log2" or "none".
func TransformByName(name string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "log10", "":
		return Log10, nil
	case "log2":
		return Log2, nil
	case "none", "identity":
		return Identity, nil
	}
	return Transform{}, core.ConfigurationError.New("unknown transform %q (want log10, log2 or none)", name)
}

// Options configures a differential expression run.
type Options struct {
	ConditionA string // reference; with ConditionB empty both are auto-detected
	ConditionB string
	Transform  Transform // default Log10
	Alpha      float64   // default DefaultAlpha
	Engine     Engine    // default Welch
	Logger     *zap.Logger
}

// Row is the result for one entity.
type Row struct {
	Entity      string
	FoldChange  core.Value // mean(B) - mean(A) on the transformed scale
	PValue      core.Value
	AdjustedP   core.Value // Benjamini–Hochberg
	Significant bool
	ObservedA   int
	ObservedB   int
}

// Result is the differential expression table, one row per matrix row in
// matrix order.
type Result struct {
	ConditionA string
	ConditionB string
	Transform  string
	Engine     string
	Alpha      float64
	Rows       []Row
	NonFinite  int // observed cells the transform turned into NA
}

// SignificantCount returns the number of significant rows.
func (r *Result) SignificantCount() int {
	n := 0
	for _, row := range r.Rows {
		if row.Significant {
			n++
		}
	}
	return n
}

// ResolveConditions returns the contrast to test. Both labels must be given
// together; with neither given the metadata must have exactly two.
func ResolveConditions(samples *core.SampleSet, a, b string) (string, string, error) {
	conds := samples.Conditions()
	switch {
	case a == "" && b == "":
		if len(conds) == 2 {
			return conds[0], conds[1], nil
		}
		if len(conds) > 2 {
			return "", "", ErrAmbiguousConditions
		}
		return "", "", core.ConfigurationError.New("differential expression needs two conditions, metadata has %d", len(conds))
	case a == "" || b == "":
		return "", "", core.ConfigurationError.New("both conditions must be given (got %q and %q)", a, b)
	case a == b:
		return "", "", core.ConfigurationError.New("cannot compare condition %q with itself", a)
	}
	for _, c := range []string{a, b} {
		if len(samples.SamplesIn(c)) == 0 {
			return "", "", core.ConfigurationError.New("unknown condition %q", c)
		}
	}
	return a, b, nil
}

// Run transforms m, builds the two-group design, delegates testing to the
// engine and applies Benjamini–Hochberg correction.
func Run(m *core.Matrix, samples *core.SampleSet, opts Options) (*Result, error) {
	if samples == nil {
		return nil, core.ConfigurationError.New("sample metadata is required")
	}
	condA, condB, err := ResolveConditions(samples, opts.ConditionA, opts.ConditionB)
	if err != nil {
		return nil, err
	}
	tr := opts.Transform
	if tr.Fn == nil {
		tr = Log10
	}
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}
	if alpha < 0 || alpha >= 1 {
		return nil, core.ConfigurationError.New("significance level must be in (0, 1), got %v", alpha)
	}
	engine := opts.Engine
	if engine == nil {
		engine = Welch{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	groups := make([]int, m.NumSamples())
	for j, id := range m.Samples() {
		cond, ok := samples.Condition(id)
		if !ok {
			return nil, core.ConfigurationError.New("matrix sample %q is not in the sample metadata", id)
		}
		switch cond {
		case condA:
			groups[j] = GroupA
		case condB:
			groups[j] = GroupB
		default:
			groups[j] = GroupNone
		}
	}

	transformed, lost := m.Transform(tr.Name, tr.Fn)
	if lost > 0 {
		log.Warn("transform produced non-finite values, treating them as missing",
			zap.String("transform", tr.Name),
			zap.Int("cells", lost))
	}
	data := transformed.Cells()

	estimates, err := engine.Fit(data, groups)
	if err != nil {
		return nil, err
	}
	if len(estimates) != len(data) {
		return nil, core.ConfigurationError.New("engine %s returned %d estimates for %d rows", engine.Name(), len(estimates), len(data))
	}

	res := &Result{
		ConditionA: condA,
		ConditionB: condB,
		Transform:  tr.Name,
		Engine:     engine.Name(),
		Alpha:      alpha,
		Rows:       make([]Row, len(data)),
		NonFinite:  lost,
	}
	raw := make([]core.Value, len(data))
	for i, key := range transformed.Rows() {
		row := Row{Entity: key}
		for j, v := range data[i] {
			if v.IsNA() {
				continue
			}
			switch groups[j] {
			case GroupA:
				row.ObservedA++
			case GroupB:
				row.ObservedB++
			}
		}
		// Entities absent from either condition have nothing to compare.
		if row.ObservedA > 0 && row.ObservedB > 0 {
			row.FoldChange = finite(estimates[i].Effect)
			raw[i] = probability(estimates[i].P)
			row.PValue = raw[i]
		}
		res.Rows[i] = row
	}

	adjusted := AdjustBH(raw)
	for i := range res.Rows {
		res.Rows[i].AdjustedP = adjusted[i]
		if q, ok := adjusted[i].Float(); ok && q < alpha {
			res.Rows[i].Significant = true
		}
	}

	log.Info("differential expression",
		zap.String("a", condA),
		zap.String("b", condB),
		zap.String("engine", engine.Name()),
		zap.Int("entities", len(res.Rows)),
		zap.Int("significant", res.SignificantCount()))

	return res, nil
}

func finite(v core.Value) core.Value {
	if !v.IsFinite() {
		return core.NA
	}
	return v
}

// probability keeps p-values inside [0, 1]; anything else is treated as
// missing.
func probability(v core.Value) core.Value {
	x, ok := v.Float()
	if !ok || !(x >= 0 && x <= 1) {
		return core.NA
	}
	return v
}
