package core

import "strings"

// Sample is one measured sample with its experimental condition.
type Sample struct {
	ID         string
	Condition  string
	Attributes map[string]string // replicate, batch, ...
}

// SampleSet is an ordered collection of samples, unique by ID.
type SampleSet struct {
	samples    []Sample
	index      map[string]int
	conditions []string
}

// NewSampleSet validates samples and builds the set. Order is kept for
// display; conditions are listed in first-seen order.
func NewSampleSet(samples []Sample) (*SampleSet, error) {
	set := &SampleSet{
		samples: make([]Sample, 0, len(samples)),
		index:   make(map[string]int, len(samples)),
	}
	seenCond := make(map[string]bool)

	for i, s := range samples {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, ConfigurationError.New("sample %d has an empty identifier", i+1)
		}
		if _, dup := set.index[id]; dup {
			return nil, ConfigurationError.New("duplicate sample %q", id)
		}
		cond := strings.TrimSpace(s.Condition)
		if cond == "" {
			return nil, ConfigurationError.New("sample %q has no condition", id)
		}

		attrs := make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			attrs[k] = v
		}

		set.index[id] = len(set.samples)
		set.samples = append(set.samples, Sample{ID: id, Condition: cond, Attributes: attrs})
		if !seenCond[cond] {
			seenCond[cond] = true
			set.conditions = append(set.conditions, cond)
		}
	}

	return set, nil
}

// Len returns the number of samples.
func (s *SampleSet) Len() int {
	return len(s.samples)
}

// At returns the i-th sample.
func (s *SampleSet) At(i int) Sample {
	return s.samples[i]
}

// IDs returns the sample identifiers in set order.
func (s *SampleSet) IDs() []string {
	ids := make([]string, len(s.samples))
	for i, smp := range s.samples {
		ids[i] = smp.ID
	}
	return ids
}

// Index returns the position of a sample in the set.
func (s *SampleSet) Index(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Condition returns the condition label of a sample.
func (s *SampleSet) Condition(id string) (string, bool) {
	i, ok := s.index[id]
	if !ok {
		return "", false
	}
	return s.samples[i].Condition, true
}

// Conditions returns the distinct condition labels in first-seen order.
func (s *SampleSet) Conditions() []string {
	out := make([]string, len(s.conditions))
	copy(out, s.conditions)
	return out
}

// SamplesIn returns the identifiers of the samples under a condition.
func (s *SampleSet) SamplesIn(condition string) []string {
	var ids []string
	for _, smp := range s.samples {
		if smp.Condition == condition {
			ids = append(ids, smp.ID)
		}
	}
	return ids
}
