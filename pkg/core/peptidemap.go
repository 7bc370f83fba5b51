package core

// PeptideMap is the immutable relation from peptide key to protein key (or
// protein-group key). Protein keys live in an arena and each peptide points
// at one arena slot. Group keys such as "P1;P2" are atomic.
type PeptideMap struct {
	field    ProteinField
	proteins []string       // arena, first-seen order
	slot     map[string]int // protein -> arena slot
	peptides []string       // insertion order
	index    map[string]int // peptide -> arena slot
	members  [][]string     // arena slot -> peptides
}

// PeptideMapBuilder accumulates peptide-to-protein pairs. The first protein
// recorded for a peptide wins.
type PeptideMapBuilder struct {
	m     *PeptideMap
	built bool
}

// NewPeptideMapBuilder starts a map for the given protein identifier field.
func NewPeptideMapBuilder(field ProteinField) *PeptideMapBuilder {
	return &PeptideMapBuilder{
		m: &PeptideMap{
			field: field,
			slot:  make(map[string]int),
			index: make(map[string]int),
		},
	}
}

// Add records that peptide maps to protein. If the peptide is already
// mapped, the existing protein is kept and returned with conflict set when
// it differs from protein.
func (b *PeptideMapBuilder) Add(peptide, protein string) (kept string, conflict bool) {
	if b.built {
		panic("core: PeptideMapBuilder used after Build")
	}
	m := b.m
	if s, ok := m.index[peptide]; ok {
		kept = m.proteins[s]
		return kept, kept != protein
	}

	s, ok := m.slot[protein]
	if !ok {
		s = len(m.proteins)
		m.slot[protein] = s
		m.proteins = append(m.proteins, protein)
		m.members = append(m.members, nil)
	}
	m.index[peptide] = s
	m.peptides = append(m.peptides, peptide)
	m.members[s] = append(m.members[s], peptide)
	return protein, false
}

// Build returns the finished map. The builder cannot be used afterwards.
func (b *PeptideMapBuilder) Build() *PeptideMap {
	b.built = true
	return b.m
}

// Field returns the protein identifier field the map was built from.
func (m *PeptideMap) Field() ProteinField { return m.field }

// Len returns the number of mapped peptides.
func (m *PeptideMap) Len() int { return len(m.peptides) }

// Protein returns the protein key a peptide maps to.
func (m *PeptideMap) Protein(peptide string) (string, bool) {
	s, ok := m.index[peptide]
	if !ok {
		return "", false
	}
	return m.proteins[s], true
}

// PeptidesOf returns the peptides mapped to a protein key, in insertion order.
func (m *PeptideMap) PeptidesOf(protein string) []string {
	s, ok := m.slot[protein]
	if !ok {
		return nil
	}
	out := make([]string, len(m.members[s]))
	copy(out, m.members[s])
	return out
}

// Proteins returns the distinct protein keys in first-seen order.
func (m *PeptideMap) Proteins() []string {
	out := make([]string, len(m.proteins))
	copy(out, m.proteins)
	return out
}

// Peptides returns the mapped peptide keys in insertion order.
func (m *PeptideMap) Peptides() []string {
	out := make([]string, len(m.peptides))
	copy(out, m.peptides)
	return out
}
