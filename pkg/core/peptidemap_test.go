package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPeptideMapFirstSeenWins(t *testing.T) {
	b := NewPeptideMapBuilder(RazorProtein)

	if kept, conflict := b.Add("p1", "P1"); kept != "P1" || conflict {
		t.Errorf("Add(p1, P1) = %q, %v", kept, conflict)
	}
	b.Add("p2", "P1")
	b.Add("p3", "P2;P3")
	if kept, conflict := b.Add("p1", "P9"); kept != "P1" || !conflict {
		t.Errorf("Add(p1, P9) = %q, %v, want P1 with conflict", kept, conflict)
	}
	if _, conflict := b.Add("p2", "P1"); conflict {
		t.Error("re-adding an agreeing pair reported a conflict")
	}

	m := b.Build()
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	if got, _ := m.Protein("p1"); got != "P1" {
		t.Errorf("Protein(p1) = %q", got)
	}
	if _, ok := m.Protein("p9"); ok {
		t.Error("Protein(p9) reported a mapping")
	}
	if diff := cmp.Diff([]string{"P1", "P2;P3"}, m.Proteins()); diff != "" {
		t.Errorf("Proteins() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p1", "p2"}, m.PeptidesOf("P1")); diff != "" {
		t.Errorf("PeptidesOf(P1) mismatch (-want +got):\n%s", diff)
	}
	if got := m.PeptidesOf("P2"); got != nil {
		t.Errorf("PeptidesOf(P2) = %v, group keys must stay atomic", got)
	}
	if m.Field() != RazorProtein {
		t.Errorf("Field() = %q", m.Field())
	}
}

func TestPeptideMapBuilderSealed(t *testing.T) {
	b := NewPeptideMapBuilder(ProteinGroupID)
	b.Add("p1", "P1")
	b.Build()

	defer func() {
		if recover() == nil {
			t.Error("Add after Build did not panic")
		}
	}()
	b.Add("p2", "P2")
}

func TestSampleSet(t *testing.T) {
	set, err := NewSampleSet([]Sample{
		{ID: "S1", Condition: "A", Attributes: map[string]string{"replicate": "1"}},
		{ID: "S2", Condition: "B"},
		{ID: "S3", Condition: "A"},
	})
	if err != nil {
		t.Fatalf("NewSampleSet() error = %v", err)
	}

	if diff := cmp.Diff([]string{"A", "B"}, set.Conditions()); diff != "" {
		t.Errorf("Conditions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"S1", "S3"}, set.SamplesIn("A")); diff != "" {
		t.Errorf("SamplesIn(A) mismatch (-want +got):\n%s", diff)
	}
	if c, ok := set.Condition("S2"); !ok || c != "B" {
		t.Errorf("Condition(S2) = %q, %v", c, ok)
	}
	if got := set.At(0).Attributes["replicate"]; got != "1" {
		t.Errorf("replicate attribute = %q", got)
	}

	_, err = NewSampleSet([]Sample{{ID: "S1", Condition: "A"}, {ID: "S1", Condition: "B"}})
	if !ConfigurationError.Has(err) {
		t.Errorf("duplicate sample error = %v, want configuration error", err)
	}
	_, err = NewSampleSet([]Sample{{ID: "S1"}})
	if !ConfigurationError.Has(err) {
		t.Errorf("missing condition error = %v, want configuration error", err)
	}
}
