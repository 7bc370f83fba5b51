package table

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

func TestRead(t *testing.T) {
	input := "Gene\tProtein ID\tDescription\n" +
		"ALB\tP02768\tSerum albumin\n" +
		"APOA1\tP02647\n"

	tbl, err := Read(strings.NewReader(input), "protein id")
	require.NoError(t, err)

	if tbl.Key() != "Protein ID" {
		t.Errorf("Key() = %q", tbl.Key())
	}
	if diff := cmp.Diff([]string{"Gene", "Description"}, tbl.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
	got, ok := tbl.Lookup("P02647")
	if !ok {
		t.Fatal("Lookup(P02647) found nothing")
	}
	if diff := cmp.Diff([]string{"APOA1", ""}, got); diff != "" {
		t.Errorf("short row mismatch (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		class interface{ Has(error) bool }
	}{
		{"empty", "", &core.ConfigurationError},
		{"no key column", "gene\tdesc\nA\tB\n", &core.ConfigurationError},
		{"missing key", "protein\tgene\n\tA\n", &core.DataIntegrityError},
		{"duplicate key", "protein\tgene\nP1\tA\nP1\tB\n", &core.DataIntegrityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), "protein")
			if !tt.class.Has(err) {
				t.Errorf("Read() error = %v", err)
			}
		})
	}
}
