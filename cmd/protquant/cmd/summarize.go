package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ProtQuant/pkg/config"
	"github.com/ChrisMcGann/ProtQuant/pkg/logging"
	"github.com/ChrisMcGann/ProtQuant/pkg/pipeline"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [evidence] [metadata]",
	Short: "Summarize quantification without testing or writing a report",
	Long: `Print record, peptide and protein counts, detection per sample and condition,
and the clustered sample order. Differential expression is not run.`,
	Args: cobra.ExactArgs(2),
	RunE: runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	cfg.Evidence, cfg.Metadata = args[0], args[1]
	cfg.SkipDifferential = true
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := requireFiles(cfg.Evidence, cfg.Metadata); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	samples, err := loadMetadata(cfg.Metadata)
	if err != nil {
		return err
	}
	records, st, err := loadEvidence(cfg.Evidence, cfg.Filter())
	if err != nil {
		return err
	}

	opts, err := cfg.PipelineOptions(nil, log)
	if err != nil {
		return err
	}
	rep, err := pipeline.Run(records, samples, opts)
	if err != nil {
		return fmt.Errorf("quantification failed: %w", err)
	}

	printLoadStats(st, len(records))
	if n := rep.Peptides.DroppedRecords; n > 0 {
		fmt.Printf("Unknown samples: %d records (%v)\n", n, rep.Peptides.UnknownSamples)
	}
	fmt.Printf("Peptides: %d\n", rep.Peptides.Matrix.NumRows())
	fmt.Printf("Proteins: %d\n", rep.Proteins.Matrix.NumRows())
	if n := len(rep.Peptides.Conflicts); n > 0 {
		fmt.Printf("Mapping conflicts: %d peptides\n", n)
	}

	fmt.Printf("\n%-20s %-15s %10s %10s\n", "Sample", "Condition", "Peptides", "Proteins")
	peps, prots := rep.Peptides.Matrix, rep.Proteins.Matrix
	for j, id := range prots.Samples() {
		cond, _ := samples.Condition(id)
		fmt.Printf("%-20s %-15s %10d %10d\n", id, cond, peps.DetectedCount(j), prots.DetectedCount(j))
	}

	fmt.Printf("\n%-15s %10s\n", "Condition", "Proteins")
	counts := rep.ProteinDetection.CountByCondition()
	for c, cond := range rep.ProteinDetection.Conditions() {
		fmt.Printf("%-15s %10d\n", cond, counts[c])
	}

	fmt.Printf("\nSample order: %v\n", rep.Dendrogram.OrderedLabels())
	return nil
}
