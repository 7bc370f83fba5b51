// Package filter provides record filtering applied before quantification
package filter

import (
	"strings"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// DefaultExcludePrefixes are the contaminant and decoy markers used by
// common search engines.
var DefaultExcludePrefixes = []string{"CON__", "REV__"}

// Config holds filtering configuration
type Config struct {
	ExcludePrefixes []string // Drop records whose protein ids start with any of these (nil = keep all)
	MinIntensity    float64  // Drop observed intensities below this value (0 = no cutoff)
}

// Stats counts why records were removed.
type Stats struct {
	Excluded     int
	LowIntensity int
}

// Removed returns the total number of removed records.
func (s Stats) Removed() int {
	return s.Excluded + s.LowIntensity
}

// Keep reports whether a record passes all configured filters
func (c *Config) Keep(rec *core.MeasurementRecord) bool {
	return !c.excluded(rec) && !c.belowCutoff(rec)
}

// Apply returns the records that pass all filters, in input order
func (c *Config) Apply(records []core.MeasurementRecord) ([]core.MeasurementRecord, Stats) {
	var stats Stats
	kept := make([]core.MeasurementRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		// Prefix exclusion wins when both apply
		switch {
		case c.excluded(rec):
			stats.Excluded++
		case c.belowCutoff(rec):
			stats.LowIntensity++
		default:
			kept = append(kept, *rec)
		}
	}
	return kept, stats
}

// excluded checks every id of the leading protein and the protein group
func (c *Config) excluded(rec *core.MeasurementRecord) bool {
	if len(c.ExcludePrefixes) == 0 {
		return false
	}
	for _, field := range []string{rec.LeadingProtein, rec.ProteinGroup} {
		for _, id := range strings.Split(field, ";") {
			if matchesPrefix(strings.TrimSpace(id), c.ExcludePrefixes) {
				return true
			}
		}
	}
	return false
}

// matchesPrefix checks if an identifier starts with any excluded prefix
func matchesPrefix(id string, prefixes []string) bool {
	if id == "" {
		return false
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// belowCutoff is false for missing intensities; a missing value carries no
// evidence either way and is handled by aggregation.
func (c *Config) belowCutoff(rec *core.MeasurementRecord) bool {
	if c.MinIntensity <= 0 {
		return false
	}
	x, ok := rec.Intensity.Float()
	return ok && x < c.MinIntensity
}
