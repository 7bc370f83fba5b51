// Package metadata reads the sample sheet that assigns every sample to an
// experimental condition.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// Required columns. Any further column becomes a sample attribute keyed
// by its header.
const (
	ColSample    = "sample"
	ColCondition = "condition"
)

// Read parses a tab-separated sample sheet into a SampleSet. Samples keep
// file order.
func Read(r io.Reader) (*core.SampleSet, error) {
	c := csv.NewReader(r)
	c.Comma = '\t'
	c.Comment = '#'
	c.FieldsPerRecord = -1

	header, err := c.Read()
	if err == io.EOF {
		return nil, core.ConfigurationError.New("empty sample metadata")
	}
	if err != nil {
		return nil, core.DataIntegrityError.Wrap(err)
	}

	sampleCol, condCol := -1, -1
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		switch strings.ToLower(names[i]) {
		case ColSample, "experiment":
			if sampleCol < 0 {
				sampleCol = i
			}
		case ColCondition, "group":
			if condCol < 0 {
				condCol = i
			}
		}
	}
	if sampleCol < 0 || condCol < 0 {
		return nil, core.ConfigurationError.New("sample metadata needs %q and %q columns", ColSample, ColCondition)
	}

	var samples []core.Sample
	for {
		fields, err := c.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.DataIntegrityError.Wrap(err)
		}
		line, _ := c.FieldPos(0)

		if sampleCol >= len(fields) || condCol >= len(fields) {
			return nil, core.DataIntegrityError.New("line %d: expected at least %d fields, got %d", line, max(sampleCol, condCol)+1, len(fields))
		}

		s := core.Sample{
			ID:         strings.TrimSpace(fields[sampleCol]),
			Condition:  strings.TrimSpace(fields[condCol]),
			Attributes: make(map[string]string),
		}
		for i, v := range fields {
			if i == sampleCol || i == condCol || i >= len(names) || names[i] == "" {
				continue
			}
			s.Attributes[names[i]] = strings.TrimSpace(v)
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, core.ConfigurationError.New("sample metadata lists no samples")
	}

	set, err := core.NewSampleSet(samples)
	if err != nil {
		return nil, fmt.Errorf("sample metadata: %w", err)
	}
	return set, nil
}
