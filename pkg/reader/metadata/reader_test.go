package metadata

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

func TestRead(t *testing.T) {
	input := "sample\tcondition\treplicate\tbatch\n" +
		"S1\tctrl\t1\tb1\n" +
		"S2\tctrl\t2\tb2\n" +
		"# S3 failed QC\n" +
		"S4\tdrug\t1\tb1\n"

	set, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"S1", "S2", "S4"}, set.IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ctrl", "drug"}, set.Conditions()); diff != "" {
		t.Errorf("Conditions() mismatch (-want +got):\n%s", diff)
	}
	want := map[string]string{"replicate": "2", "batch": "b2"}
	if diff := cmp.Diff(want, set.At(1).Attributes); diff != "" {
		t.Errorf("Attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestReadColumnOrder(t *testing.T) {
	input := "Condition\tSample\nA\tS1\nB\tS2\n"

	set, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	if c, ok := set.Condition("S2"); !ok || c != "B" {
		t.Errorf("Condition(S2) = %q, %v", c, ok)
	}
	if len(set.At(0).Attributes) != 0 {
		t.Errorf("unexpected attributes %v", set.At(0).Attributes)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no condition column", "sample\treplicate\nS1\t1\n"},
		{"no samples", "sample\tcondition\n"},
		{"duplicate sample", "sample\tcondition\nS1\tA\nS1\tB\n"},
		{"missing condition", "sample\tcondition\nS1\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if !core.ConfigurationError.Has(err) {
				t.Errorf("Read() error = %v, want configuration error", err)
			}
		})
	}

	_, err := Read(strings.NewReader("sample\tcondition\nS1\n"))
	if !core.DataIntegrityError.Has(err) {
		t.Errorf("short row error = %v, want data integrity error", err)
	}
}
