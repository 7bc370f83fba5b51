package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const evidenceTSV = "sequence\tleading_razor_protein\tprotein_group\tsample\tintensity\n" +
	"AAK\tP1\tP1\tA1\t100\n" +
	"AAK\tP1\tP1\tA2\t120\n" +
	"AAK\tP1\tP1\tB1\t900\n" +
	"AAK\tP1\tP1\tB2\t1000\n" +
	"CCK\tP2\tP2\tA1\t50\n" +
	"CCK\tP2\tP2\tB1\t60\n" +
	"DDK\tCON__K1\tCON__K1\tA1\t1e9\n" +
	"EEK\tP3\tP3\t\t10\n"

const metadataTSV = "sample\tcondition\n" +
	"A1\tA\n" +
	"A2\tA\n" +
	"B1\tB\n" +
	"B2\tB\n"

func TestQuantifyCommand(t *testing.T) {
	dir := t.TempDir()
	ev := filepath.Join(dir, "evidence.tsv")
	meta := filepath.Join(dir, "samples.tsv")
	out := filepath.Join(dir, "report.db")
	require.NoError(t, os.WriteFile(ev, []byte(evidenceTSV), 0o644))
	require.NoError(t, os.WriteFile(meta, []byte(metadataTSV), 0o644))

	rootCmd.SetArgs([]string{"quantify", "-e", ev, "-m", meta, "-o", out, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	info, err := os.Stat(out)
	require.NoError(t, err)
	if info.Size() == 0 {
		t.Error("report is empty")
	}

	// A second run replaces the report instead of appending to it.
	rootCmd.SetArgs([]string{"quantify", "-e", ev, "-m", meta, "-o", out, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"validate", ev})
	if err := rootCmd.Execute(); err == nil {
		t.Error("validate accepted a record without a sample")
	}
}
