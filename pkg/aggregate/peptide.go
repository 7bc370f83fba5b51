package aggregate

import (
	"go.uber.org/zap"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// PeptideOptions configures peptide aggregation.
type PeptideOptions struct {
	SequenceField core.SequenceField // default core.PlainSequence
	ProteinField  core.ProteinField  // default core.RazorProtein
	Strategy      Strategy           // default Sum
	Logger        *zap.Logger
}

// MappingConflict records a peptide whose records disagree on protein
// identity. Kept is the first-seen protein, Rejected a later one.
type MappingConflict struct {
	Peptide  string
	Kept     string
	Rejected string
}

// PeptideResult is the output of AggregatePeptides.
type PeptideResult struct {
	Matrix *core.Matrix
	Map    *core.PeptideMap

	// Data-integrity report
	Conflicts      []MappingConflict
	DroppedRecords int      // records whose sample is not in the sample set
	UnknownSamples []string // distinct such samples, first-seen order
	EmptyKeys      int      // records without the selected sequence key
	EmptyProteins  int      // records without the selected protein id
}

// peptideGroup collects the entries of one sequence key.
type peptideGroup struct {
	key     string
	protein string
	entries [][]core.Value
}

// AggregatePeptides groups records by sequence key, collapses each group to
// one row per sample with the configured strategy, and builds the
// peptide-to-protein map for the resulting rows.
func AggregatePeptides(records []core.MeasurementRecord, samples *core.SampleSet, opts PeptideOptions) (*PeptideResult, error) {
	if samples == nil || samples.Len() == 0 {
		return nil, core.ConfigurationError.New("no samples to aggregate into")
	}
	seqField, err := core.ParseSequenceField(string(opts.SequenceField))
	if err != nil {
		return nil, err
	}
	protField, err := core.ParseProteinField(string(opts.ProteinField))
	if err != nil {
		return nil, err
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = Sum{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	width := samples.Len()
	result := &PeptideResult{}
	unknown := make(map[string]bool)
	conflictSeen := make(map[MappingConflict]bool)

	var groups []*peptideGroup
	byKey := make(map[string]*peptideGroup)

	for i := range records {
		rec := &records[i]

		col, ok := samples.Index(rec.Sample)
		if !ok {
			result.DroppedRecords++
			if !unknown[rec.Sample] {
				unknown[rec.Sample] = true
				result.UnknownSamples = append(result.UnknownSamples, rec.Sample)
			}
			continue
		}

		key := rec.Key(seqField)
		if key == "" {
			result.EmptyKeys++
			continue
		}
		protein := rec.ProteinID(protField)
		if protein == "" {
			result.EmptyProteins++
			continue
		}

		g, ok := byKey[key]
		if !ok {
			g = &peptideGroup{key: key, protein: protein}
			byKey[key] = g
			groups = append(groups, g)
		} else if g.protein != protein {
			c := MappingConflict{Peptide: key, Kept: g.protein, Rejected: protein}
			if !conflictSeen[c] {
				conflictSeen[c] = true
				result.Conflicts = append(result.Conflicts, c)
				log.Warn("peptide maps to conflicting proteins, keeping first seen",
					zap.String("peptide", key),
					zap.String("kept", g.protein),
					zap.String("rejected", protein),
					zap.Error(core.DataIntegrityError.New("conflicting protein identifiers")))
			}
		}

		entry := make([]core.Value, width)
		entry[col] = rec.Intensity
		g.entries = append(g.entries, entry)
	}

	if result.DroppedRecords > 0 {
		log.Warn("dropped records for samples absent from metadata",
			zap.Int("records", result.DroppedRecords),
			zap.Strings("samples", result.UnknownSamples))
	}
	if result.EmptyKeys > 0 {
		log.Warn("dropped records without a sequence key",
			zap.Int("records", result.EmptyKeys),
			zap.String("field", string(seqField)))
	}
	if result.EmptyProteins > 0 {
		log.Warn("dropped records without a protein id",
			zap.Int("records", result.EmptyProteins),
			zap.String("field", string(protField)),
			zap.Error(core.DataIntegrityError.New("empty %s", protField)))
	}

	rows := make([]string, 0, len(groups))
	cells := make([][]core.Value, 0, len(groups))
	for _, g := range groups {
		out, err := apply(strategy, g.key, g.entries, width)
		if err != nil {
			return nil, err
		}
		rows = append(rows, g.key)
		cells = append(cells, out)
	}

	m, err := core.NewMatrix(rows, samples.IDs(), cells)
	if err != nil {
		return nil, err
	}
	if m.NumRows() == 0 {
		return nil, core.EmptyResultError.New("peptide aggregation produced no rows (%d records, %d dropped)", len(records), result.DroppedRecords)
	}
	result.Matrix = m.WithProvenance("peptide:" + strategy.Name())

	// The map covers exactly the rows that survived.
	b := core.NewPeptideMapBuilder(protField)
	for _, key := range m.Rows() {
		b.Add(key, byKey[key].protein)
	}
	result.Map = b.Build()

	log.Info("aggregated peptides",
		zap.Int("records", len(records)),
		zap.Int("peptides", m.NumRows()),
		zap.Int("samples", width),
		zap.String("strategy", strategy.Name()),
		zap.Int("conflicts", len(result.Conflicts)))

	return result, nil
}
