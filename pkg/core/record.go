package core

import (
	"fmt"
	"math"
	"strings"
)

// SequenceField selects which sequence column keys a peptide.
type SequenceField string

// ProteinField selects which protein identifier a peptide maps to.
type ProteinField string

const (
	// PlainSequence keys peptides by their unmodified sequence.
	PlainSequence SequenceField = "sequence"
	// ModifiedSequence keys peptides by their modified sequence.
	ModifiedSequence SequenceField = "modified_sequence"

	// RazorProtein maps each peptide to its leading razor protein.
	RazorProtein ProteinField = "razor"
	// ProteinGroupID maps each peptide to its whole protein group.
	ProteinGroupID ProteinField = "group"
)

// ParseSequenceField validates a sequence field name. The empty string
// selects PlainSequence.
func ParseSequenceField(s string) (SequenceField, error) {
	switch SequenceField(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlainSequence:
		return PlainSequence, nil
	case ModifiedSequence:
		return ModifiedSequence, nil
	}
	return "", ConfigurationError.New("unknown sequence field %q (want %q or %q)", s, PlainSequence, ModifiedSequence)
}

// ParseProteinField validates a protein field name. The empty string
// selects RazorProtein.
func ParseProteinField(s string) (ProteinField, error) {
	switch ProteinField(strings.ToLower(strings.TrimSpace(s))) {
	case "", RazorProtein:
		return RazorProtein, nil
	case ProteinGroupID:
		return ProteinGroupID, nil
	}
	return "", ConfigurationError.New("unknown protein field %q (want %q or %q)", s, RazorProtein, ProteinGroupID)
}

// MeasurementRecord is a single evidence row. Records are produced by a
// reader and never modified by the aggregation stages.
type MeasurementRecord struct {
	// Identification
	Sequence         string
	ModifiedSequence string
	LeadingProtein   string // Leading razor protein
	ProteinGroup     string // Protein group, e.g. "P12345;Q67890"

	// Quantification
	Sample    string
	Intensity Value

	// Internal tracking
	SourceFile string
	Line       int
}

// ValidationError represents an error found during record validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a record can take part in aggregation.
func (r *MeasurementRecord) Validate() error {
	var errs []string

	if r.Sequence == "" && r.ModifiedSequence == "" {
		errs = append(errs, "sequence is required")
	}
	if r.Sample == "" {
		errs = append(errs, "sample is required")
	}
	if r.LeadingProtein == "" && r.ProteinGroup == "" {
		errs = append(errs, "a protein identifier is required")
	}
	if x, ok := r.Intensity.Float(); ok {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			errs = append(errs, "intensity must be finite")
		} else if x < 0 {
			errs = append(errs, "intensity must be non-negative")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "MeasurementRecord",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// Key returns the peptide key selected by field.
func (r *MeasurementRecord) Key(field SequenceField) string {
	if field == ModifiedSequence {
		return r.ModifiedSequence
	}
	return r.Sequence
}

// ProteinID returns the protein identifier selected by field.
func (r *MeasurementRecord) ProteinID(field ProteinField) string {
	if field == ProteinGroupID {
		return r.ProteinGroup
	}
	return r.LeadingProtein
}

// Name returns the record name in format "Sequence@Sample".
func (r *MeasurementRecord) Name() string {
	seq := r.Sequence
	if seq == "" {
		seq = r.ModifiedSequence
	}
	return fmt.Sprintf("%s@%s", seq, r.Sample)
}
