package aggregate

import (
	"go.uber.org/zap"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// ProteinOptions configures protein aggregation.
type ProteinOptions struct {
	Strategy Strategy // default TopKMean{K: DefaultTopK}
	Logger   *zap.Logger
}

// ProteinGroup lists the peptide rows that were collapsed into one protein.
type ProteinGroup struct {
	Protein  string
	Peptides []string
}

// ProteinResult is the output of AggregateProteins.
type ProteinResult struct {
	Matrix *core.Matrix
	Groups []ProteinGroup // aligned with Matrix rows
}

// PeptideCount returns how many peptide rows contributed to a protein.
func (r *ProteinResult) PeptideCount(protein string) int {
	i, ok := r.Matrix.RowIndex(protein)
	if !ok {
		return 0
	}
	return len(r.Groups[i].Peptides)
}

// AggregateProteins partitions peptide rows by their mapped protein key and
// collapses each partition per sample with the configured strategy.
// Protein keys appear in order of their first peptide row.
func AggregateProteins(peptides *core.Matrix, pm *core.PeptideMap, opts ProteinOptions) (*ProteinResult, error) {
	if peptides == nil || pm == nil {
		return nil, core.ConfigurationError.New("protein aggregation needs a peptide matrix and a peptide map")
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = TopKMean{K: DefaultTopK}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	width := peptides.NumSamples()
	var groups []*ProteinGroup
	entries := make(map[string][][]core.Value)
	byProtein := make(map[string]*ProteinGroup)

	for i, pep := range peptides.Rows() {
		protein, ok := pm.Protein(pep)
		if !ok {
			return nil, core.ConfigurationError.New("peptide %q is not in the peptide map", pep)
		}
		g, ok := byProtein[protein]
		if !ok {
			g = &ProteinGroup{Protein: protein}
			byProtein[protein] = g
			groups = append(groups, g)
		}
		g.Peptides = append(g.Peptides, pep)
		entries[protein] = append(entries[protein], peptides.Row(i))
	}

	rows := make([]string, 0, len(groups))
	cells := make([][]core.Value, 0, len(groups))
	for _, g := range groups {
		out, err := apply(strategy, g.Protein, entries[g.Protein], width)
		if err != nil {
			return nil, err
		}
		rows = append(rows, g.Protein)
		cells = append(cells, out)
	}

	m, err := core.NewMatrix(rows, peptides.Samples(), cells)
	if err != nil {
		return nil, err
	}
	if m.NumRows() == 0 {
		return nil, core.EmptyResultError.New("protein aggregation produced no rows from %d peptides", peptides.NumRows())
	}

	result := &ProteinResult{
		Matrix: m.WithProvenance("protein:" + strategy.Name()),
		Groups: make([]ProteinGroup, 0, m.NumRows()),
	}
	for _, key := range m.Rows() {
		result.Groups = append(result.Groups, *byProtein[key])
	}

	log.Info("aggregated proteins",
		zap.Int("peptides", peptides.NumRows()),
		zap.Int("proteins", m.NumRows()),
		zap.String("strategy", strategy.Name()))

	return result, nil
}
