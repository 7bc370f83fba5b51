// Package evidence provides a streaming reader for tab-separated evidence
// tables, one measurement per row.
package evidence

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// Column names of the evidence table. Matching is case-insensitive and
// treats spaces as underscores, so "Leading razor protein" also matches.
const (
	ColSequence         = "sequence"
	ColModifiedSequence = "modified_sequence"
	ColLeadingProtein   = "leading_razor_protein"
	ColProteinGroup     = "protein_group"
	ColSample           = "sample"
	ColIntensity        = "intensity"
)

// aliases maps alternative header names found in search-engine exports.
var aliases = map[string]string{
	"proteins":           ColProteinGroup,
	"protein_group_ids":  ColProteinGroup,
	"experiment":         ColSample,
	"leading_proteins":   ColLeadingProtein,
	"modified_sequences": ColModifiedSequence,
}

// Reader provides streaming access to evidence tables
type Reader struct {
	csv        *csv.Reader
	source     string
	cols       map[string]int
	width      int
	currentRec *core.MeasurementRecord
	err        error
}

// NewReader creates a new evidence reader. source names the input in
// records and error messages.
func NewReader(r io.Reader, source string) *Reader {
	c := csv.NewReader(r)
	c.Comma = '\t'
	c.Comment = '#'
	c.LazyQuotes = true
	c.FieldsPerRecord = -1

	return &Reader{
		csv:    c,
		source: source,
	}
}

// Next advances to the next record. Returns false when no more records or error.
func (r *Reader) Next() bool {
	r.currentRec = nil
	if r.err != nil {
		return false
	}

	if r.cols == nil {
		if err := r.readHeader(); err != nil {
			if err != io.EOF {
				r.err = err
			} else {
				r.err = core.ConfigurationError.New("%s: empty evidence table", r.source)
			}
			return false
		}
	}

	fields, err := r.csv.Read()
	if err != nil {
		if err != io.EOF {
			r.err = core.DataIntegrityError.Wrap(fmt.Errorf("%s: %w", r.source, err))
		}
		return false
	}
	line, _ := r.csv.FieldPos(0)

	rec, err := r.parseRecord(fields, line)
	if err != nil {
		r.err = err
		return false
	}

	r.currentRec = rec
	return true
}

// Record returns the current record
func (r *Reader) Record() *core.MeasurementRecord {
	return r.currentRec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// readHeader locates the known columns
func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		return err
	}

	cols := make(map[string]int)
	for i, name := range header {
		key := normalizeHeader(name)
		if alias, ok := aliases[key]; ok {
			key = alias
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	var missing []string
	if !has(cols, ColSequence) && !has(cols, ColModifiedSequence) {
		missing = append(missing, ColSequence+" or "+ColModifiedSequence)
	}
	if !has(cols, ColLeadingProtein) && !has(cols, ColProteinGroup) {
		missing = append(missing, ColLeadingProtein+" or "+ColProteinGroup)
	}
	for _, c := range []string{ColSample, ColIntensity} {
		if !has(cols, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return core.ConfigurationError.New("%s: missing required columns: %s", r.source, strings.Join(missing, ", "))
	}

	r.cols = cols
	r.width = len(header)
	return nil
}

// parseRecord builds a record from one row
func (r *Reader) parseRecord(fields []string, line int) (*core.MeasurementRecord, error) {
	if len(fields) > r.width {
		return nil, core.DataIntegrityError.New("%s line %d: %d fields, header has %d", r.source, line, len(fields), r.width)
	}

	rec := &core.MeasurementRecord{
		Sequence:         r.field(fields, ColSequence),
		ModifiedSequence: r.field(fields, ColModifiedSequence),
		LeadingProtein:   r.field(fields, ColLeadingProtein),
		ProteinGroup:     r.field(fields, ColProteinGroup),
		Sample:           r.field(fields, ColSample),
		SourceFile:       r.source,
		Line:             line,
	}

	intensity, err := ParseIntensity(r.field(fields, ColIntensity))
	if err != nil {
		return nil, core.DataIntegrityError.New("%s line %d: %v", r.source, line, err)
	}
	rec.Intensity = intensity

	return rec, nil
}

// field returns a trimmed cell, or "" for absent columns and short rows
func (r *Reader) field(fields []string, col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// ParseIntensity parses an intensity cell. Empty cells, "NA" and "NaN"
// are missing; zero is a valid observation.
func ParseIntensity(s string) (core.Value, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return core.NA, nil
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return core.NA, fmt.Errorf("invalid intensity '%s'", s)
	}
	if math.IsNaN(x) {
		return core.NA, nil
	}
	return core.Of(x), nil
}

// ReadAll reads and validates every record. The first invalid record
// aborts the read.
func ReadAll(r io.Reader, source string) ([]core.MeasurementRecord, error) {
	reader := NewReader(r, source)

	var records []core.MeasurementRecord
	for reader.Next() {
		rec := reader.Record()
		if err := rec.Validate(); err != nil {
			return nil, core.DataIntegrityError.Wrap(fmt.Errorf("%s line %d: %w", source, rec.Line, err))
		}
		records = append(records, *rec)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "_")
}

func has(cols map[string]int, col string) bool {
	_, ok := cols[col]
	return ok
}
