// Package cmd provides CLI command implementations
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ProtQuant/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "protquant",
	Short: "ProtQuant - Label-free proteomics quantification",
	Long: `ProtQuant turns peptide-level evidence tables into protein quantities and
reports them as a SQLite database.

Pipeline:
- Peptide aggregation (sum, median or top-K mean per sample)
- Protein aggregation through the peptide-to-protein map
- Median normalization
- Detection, condition summaries, sample similarity and clustering
- Two-condition differential expression with Benjamini-Hochberg correction

Every flag can also be set through a PROTQUANT_* environment variable
(e.g. PROTQUANT_TOP_K) or a --config file.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(quantifyCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	config.RegisterGlobalFlags(rootCmd.PersistentFlags())
	config.RegisterFlags(quantifyCmd.Flags())
	config.RegisterFlags(summarizeCmd.Flags())
	config.RegisterFlags(validateCmd.Flags())
}
