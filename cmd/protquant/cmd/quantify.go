package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/ProtQuant/pkg/config"
	"github.com/ChrisMcGann/ProtQuant/pkg/logging"
	"github.com/ChrisMcGann/ProtQuant/pkg/pipeline"
	"github.com/ChrisMcGann/ProtQuant/pkg/writer/sqlite"
)

var quantifyCmd = &cobra.Command{
	Use:   "quantify",
	Short: "Quantify proteins and write a SQLite report",
	Long: `Aggregate evidence records to peptides and proteins, normalize, compute
descriptive statistics and test two conditions for differential expression.

Examples:
  # Quantify with default settings (sum peptides, top-3 proteins, median normalization)
  protquant quantify --evidence evidence.tsv --metadata samples.tsv --output report.db

  # Key peptides by modified sequence, compare two of several conditions
  protquant quantify -e evidence.tsv -m samples.tsv --sequence-field modified_sequence \
    --condition-a control --condition-b treated

  # Join gene names and skip testing
  protquant quantify -e evidence.tsv -m samples.tsv --annotation uniprot.tsv \
    --annotation-key Entry --no-de`,
	RunE: runQuantify,
}

func runQuantify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := requireFiles(cfg.Evidence, cfg.Metadata, cfg.Annotation); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	fmt.Printf("Quantifying %s to %s...\n", cfg.Evidence, cfg.Output)
	fmt.Printf("Peptide aggregator: %s\n", cfg.PeptideAggregator)
	fmt.Printf("Protein aggregator: %s\n", cfg.ProteinAggregator)
	fmt.Printf("Normalization: %s\n", cfg.Normalization)

	samples, err := loadMetadata(cfg.Metadata)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d samples in %d conditions\n", samples.Len(), len(samples.Conditions()))

	ann, err := loadAnnotation(cfg.Annotation, cfg.AnnotationKey)
	if err != nil {
		return err
	}
	if ann != nil {
		fmt.Printf("Loaded %d annotations\n", ann.Len())
	}

	records, st, err := loadEvidence(cfg.Evidence, cfg.Filter())
	if err != nil {
		return err
	}

	opts, err := cfg.PipelineOptions(ann, log)
	if err != nil {
		return err
	}
	rep, err := pipeline.Run(records, samples, opts)
	if err != nil {
		return fmt.Errorf("quantification failed: %w", err)
	}

	// Reports are rebuilt from scratch
	if _, err := os.Stat(cfg.Output); err == nil {
		if err := os.Remove(cfg.Output); err != nil {
			return fmt.Errorf("failed to replace %s: %w", cfg.Output, err)
		}
	}

	writer, err := sqlite.NewWriter(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	if err := writer.WriteReport(rep); err != nil {
		writer.Close()
		os.Remove(cfg.Output)
		return err
	}
	if err := writer.Finalize(); err != nil {
		os.Remove(cfg.Output)
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	log.Debug("report written", zap.String("path", cfg.Output))

	fmt.Printf("\nQuantification complete!\n")
	printLoadStats(st, len(records))
	fmt.Printf("Peptides: %d\n", rep.Peptides.Matrix.NumRows())
	fmt.Printf("Proteins: %d\n", rep.Proteins.Matrix.NumRows())
	if n := len(rep.Peptides.Conflicts); n > 0 {
		fmt.Printf("Mapping conflicts: %d peptides (first-seen protein kept)\n", n)
	}
	if n := rep.Peptides.EmptyProteins; n > 0 {
		fmt.Printf("Skipped: %d records (no %s protein id)\n", n, cfg.ProteinField)
	}
	if rep.Annotated != nil {
		fmt.Printf("Annotated: %d proteins\n", rep.Annotated.Matched())
	}
	if res := rep.Differential; res != nil {
		fmt.Printf("Differential expression: %s vs %s, %d of %d significant at %.2g\n",
			res.ConditionB, res.ConditionA, res.SignificantCount(), len(res.Rows), res.Alpha)
	}
	fmt.Printf("Output: %s\n", cfg.Output)

	return nil
}
