// Package pipeline chains the quantification stages: peptide aggregation,
// protein aggregation, normalization, descriptive statistics and optional
// differential expression.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/ChrisMcGann/ProtQuant/pkg/aggregate"
	"github.com/ChrisMcGann/ProtQuant/pkg/annotation"
	"github.com/ChrisMcGann/ProtQuant/pkg/core"
	"github.com/ChrisMcGann/ProtQuant/pkg/de"
	"github.com/ChrisMcGann/ProtQuant/pkg/normalize"
	"github.com/ChrisMcGann/ProtQuant/pkg/stats"
)

// DefaultBinWidth is the Jaccard histogram bin width.
const DefaultBinWidth = 0.05

// Options configures a pipeline run. Zero values select the stage defaults.
type Options struct {
	SequenceField   core.SequenceField
	ProteinField    core.ProteinField
	PeptideStrategy aggregate.Strategy
	ProteinStrategy aggregate.Strategy
	Normalizer      normalize.Normalizer

	// Correlation and clustering run on this transform of the normalized
	// protein matrix. Default de.Log10.
	Transform de.Transform

	JaccardBinWidth float64
	Annotation      *annotation.Table // optional, joined onto proteins
	Differential    *de.Options       // nil skips differential expression

	Logger *zap.Logger
}

// Report holds every intermediate and final product of a run.
type Report struct {
	Samples *core.SampleSet

	Peptides *aggregate.PeptideResult
	Proteins *aggregate.ProteinResult

	NormalizedPeptides *core.Matrix
	NormalizedProteins *core.Matrix

	PeptideDetection *stats.DetectionTable
	ProteinDetection *stats.DetectionTable
	Summary          *stats.ConditionSummary // normalized proteins

	Jaccard          *stats.SquareMatrix
	JaccardHistogram []stats.Bin
	Correlation      *stats.SquareMatrix
	Dendrogram       *stats.Dendrogram

	Annotated    *annotation.Annotated
	Differential *de.Result
}

// Run executes the pipeline over pre-filtered records. Any stage error
// aborts the run; no partial report is returned.
func Run(records []core.MeasurementRecord, samples *core.SampleSet, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	binWidth := opts.JaccardBinWidth
	if binWidth == 0 {
		binWidth = DefaultBinWidth
	}
	tr := opts.Transform
	if tr.Fn == nil {
		tr = de.Log10
	}

	rep := &Report{Samples: samples}

	peps, err := aggregate.AggregatePeptides(records, samples, aggregate.PeptideOptions{
		SequenceField: opts.SequenceField,
		ProteinField:  opts.ProteinField,
		Strategy:      opts.PeptideStrategy,
		Logger:        log.Named("peptide"),
	})
	if err != nil {
		return nil, err
	}
	rep.Peptides = peps

	prots, err := aggregate.AggregateProteins(peps.Matrix, peps.Map, aggregate.ProteinOptions{
		Strategy: opts.ProteinStrategy,
		Logger:   log.Named("protein"),
	})
	if err != nil {
		return nil, err
	}
	rep.Proteins = prots

	if rep.NormalizedPeptides, err = normalize.Apply(peps.Matrix, opts.Normalizer); err != nil {
		return nil, err
	}
	if rep.NormalizedProteins, err = normalize.Apply(prots.Matrix, opts.Normalizer); err != nil {
		return nil, err
	}
	log.Info("normalized",
		zap.String("peptides", rep.NormalizedPeptides.Provenance()),
		zap.String("proteins", rep.NormalizedProteins.Provenance()))

	if rep.PeptideDetection, err = stats.Detect(peps.Matrix, samples); err != nil {
		return nil, err
	}
	if rep.ProteinDetection, err = stats.Detect(prots.Matrix, samples); err != nil {
		return nil, err
	}
	if rep.Summary, err = stats.Summarize(rep.NormalizedProteins, samples); err != nil {
		return nil, err
	}

	rep.Jaccard = stats.JaccardMatrix(prots.Matrix)
	if rep.JaccardHistogram, err = stats.Histogram(stats.JaccardDistribution(prots.Matrix), binWidth); err != nil {
		return nil, err
	}

	scaled, lost := rep.NormalizedProteins.Transform(tr.Name, tr.Fn)
	if lost > 0 {
		log.Warn("transform produced non-finite values, excluded from correlation",
			zap.String("transform", tr.Name),
			zap.Int("cells", lost))
	}
	rep.Correlation = stats.Correlation(scaled)
	if rep.Dendrogram, err = stats.Cluster(rep.Correlation.Distance()); err != nil {
		return nil, err
	}
	log.Debug("sample order", zap.Strings("samples", rep.Dendrogram.OrderedLabels()))

	if opts.Annotation != nil {
		rep.Annotated = annotation.LeftMerge(prots.Matrix, opts.Annotation)
		log.Info("annotated proteins",
			zap.Int("matched", rep.Annotated.Matched()),
			zap.Int("proteins", prots.Matrix.NumRows()))
	}

	if opts.Differential != nil {
		deOpts := *opts.Differential
		if deOpts.Logger == nil {
			deOpts.Logger = log.Named("de")
		}
		if rep.Differential, err = de.Run(rep.NormalizedProteins, samples, deOpts); err != nil {
			return nil, err
		}
	}

	return rep, nil
}
