package cmd

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/ProtQuant/pkg/annotation"
	"github.com/ChrisMcGann/ProtQuant/pkg/core"
	"github.com/ChrisMcGann/ProtQuant/pkg/filter"
	"github.com/ChrisMcGann/ProtQuant/pkg/reader/evidence"
	"github.com/ChrisMcGann/ProtQuant/pkg/reader/metadata"
	"github.com/ChrisMcGann/ProtQuant/pkg/reader/table"
)

// progressEvery controls how often record progress is printed
const progressEvery = 100000

// loadStats counts what happened to the evidence records
type loadStats struct {
	read    int
	invalid int
	removed filter.Stats
}

// requireFiles checks that every non-empty path exists
func requireFiles(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", path)
		}
	}
	return nil
}

// loadMetadata reads the sample sheet
func loadMetadata(path string) (*core.SampleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	samples, err := metadata.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return samples, nil
}

// loadEvidence streams the evidence table, skipping invalid records with a
// warning and dropping records rejected by the filter
func loadEvidence(path string, fc *filter.Config) ([]core.MeasurementRecord, loadStats, error) {
	var st loadStats

	f, err := os.Open(path)
	if err != nil {
		return nil, st, fmt.Errorf("failed to open evidence file: %w", err)
	}
	defer f.Close()

	reader := evidence.NewReader(f, path)

	var records []core.MeasurementRecord
	for reader.Next() {
		rec := reader.Record()
		st.read++

		if err := rec.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid record %s (line %d): %v\n", rec.Name(), rec.Line, err)
			st.invalid++
			continue
		}

		records = append(records, *rec)

		if st.read%progressEvery == 0 {
			fmt.Printf("Processed %d records...\n", st.read)
		}
	}

	if err := reader.Err(); err != nil {
		return nil, st, fmt.Errorf("error reading evidence file: %w", err)
	}

	records, st.removed = fc.Apply(records)
	return records, st, nil
}

// loadAnnotation reads the optional annotation table
func loadAnnotation(path, key string) (*annotation.Table, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()

	t, err := table.Read(f, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// printLoadStats reports record counts
func printLoadStats(st loadStats, kept int) {
	fmt.Printf("Read: %d records\n", st.read)
	if st.invalid > 0 {
		fmt.Printf("Skipped: %d records (validation errors)\n", st.invalid)
	}
	if st.removed.Excluded > 0 {
		fmt.Printf("Excluded: %d records (contaminant/decoy prefixes)\n", st.removed.Excluded)
	}
	if st.removed.LowIntensity > 0 {
		fmt.Printf("Excluded: %d records (below minimum intensity)\n", st.removed.LowIntensity)
	}
	fmt.Printf("Kept: %d records\n", kept)
}
