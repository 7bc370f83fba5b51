package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ProtQuant/pkg/config"
	"github.com/ChrisMcGann/ProtQuant/pkg/core"
	"github.com/ChrisMcGann/ProtQuant/pkg/reader/evidence"
)

// maxReported caps the number of invalid records printed
const maxReported = 20

var validateCmd = &cobra.Command{
	Use:   "validate [evidence]",
	Short: "Validate an evidence table",
	Long: `Validate that an evidence table is properly formatted and that every record
can take part in quantification. With --metadata, records whose sample is
missing from the sample sheet are reported too.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	path := args[0]
	if err := requireFiles(path, cfg.Metadata); err != nil {
		return err
	}

	var samples *core.SampleSet
	if cfg.Metadata != "" {
		if samples, err = loadMetadata(cfg.Metadata); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open evidence file: %w", err)
	}
	defer f.Close()

	reader := evidence.NewReader(f, path)
	fc := cfg.Filter()

	count, invalid, unknown, filtered, missing := 0, 0, 0, 0, 0
	unknownSamples := make(map[string]bool)
	for reader.Next() {
		rec := reader.Record()
		count++

		if err := rec.Validate(); err != nil {
			if invalid < maxReported {
				fmt.Fprintf(os.Stderr, "line %d: %v\n", rec.Line, err)
			}
			invalid++
			continue
		}
		if rec.Intensity.IsNA() {
			missing++
		}
		if !fc.Keep(rec) {
			filtered++
		}
		if samples != nil {
			if _, ok := samples.Index(rec.Sample); !ok {
				unknown++
				unknownSamples[rec.Sample] = true
			}
		}
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading evidence file: %w", err)
	}

	fmt.Printf("Records: %d\n", count)
	fmt.Printf("Missing intensities: %d\n", missing)
	fmt.Printf("Filtered: %d\n", filtered)
	if samples != nil {
		fmt.Printf("Unknown samples: %d records in %d samples\n", unknown, len(unknownSamples))
	}
	if invalid > 0 {
		if invalid > maxReported {
			fmt.Fprintf(os.Stderr, "... %d more\n", invalid-maxReported)
		}
		return fmt.Errorf("%d of %d records are invalid", invalid, count)
	}

	fmt.Printf("OK\n")
	return nil
}
