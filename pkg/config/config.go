// Package config loads ProtQuant settings from flags, PROTQUANT_*
// environment variables and an optional YAML or TOML file.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/ProtQuant/pkg/aggregate"
	"github.com/ChrisMcGann/ProtQuant/pkg/annotation"
	"github.com/ChrisMcGann/ProtQuant/pkg/core"
	"github.com/ChrisMcGann/ProtQuant/pkg/de"
	"github.com/ChrisMcGann/ProtQuant/pkg/filter"
	"github.com/ChrisMcGann/ProtQuant/pkg/normalize"
	"github.com/ChrisMcGann/ProtQuant/pkg/pipeline"
)

// EnvPrefix prefixes every environment variable, e.g. PROTQUANT_TOP_K.
const EnvPrefix = "PROTQUANT"

// Config holds every setting of a quantification run.
type Config struct {
	// Inputs and outputs
	Evidence      string `mapstructure:"evidence"`
	Metadata      string `mapstructure:"metadata"`
	Annotation    string `mapstructure:"annotation"`
	AnnotationKey string `mapstructure:"annotation-key"`
	Output        string `mapstructure:"output"`

	// Aggregation
	SequenceField     string `mapstructure:"sequence-field"`
	ProteinField      string `mapstructure:"protein-field"`
	PeptideAggregator string `mapstructure:"peptide-aggregator"`
	ProteinAggregator string `mapstructure:"protein-aggregator"`
	TopK              int    `mapstructure:"top-k"`
	Normalization     string `mapstructure:"normalization"`

	// Differential expression
	SkipDifferential bool    `mapstructure:"no-de"`
	ConditionA       string  `mapstructure:"condition-a"`
	ConditionB       string  `mapstructure:"condition-b"`
	Alpha            float64 `mapstructure:"alpha"`
	Transform        string  `mapstructure:"transform"`

	// Statistics
	JaccardBinWidth float64 `mapstructure:"jaccard-bin-width"`

	// Filtering
	ExcludePrefixes []string `mapstructure:"exclude-prefixes"`
	MinIntensity    float64  `mapstructure:"min-intensity"`

	LogLevel string `mapstructure:"log-level"`
}

// RegisterFlags adds the run settings to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("evidence", "e", "", "Evidence table (TSV)")
	fs.StringP("metadata", "m", "", "Sample metadata table (TSV) with sample and condition columns")
	fs.String("annotation", "", "Optional protein annotation table (TSV)")
	fs.String("annotation-key", "protein", "Key column of the annotation table")
	fs.StringP("output", "o", "protquant.db", "Output SQLite report")

	fs.String("sequence-field", string(core.PlainSequence), "Peptide key: sequence or modified_sequence")
	fs.String("protein-field", string(core.RazorProtein), "Protein identifier: razor or group")
	fs.String("peptide-aggregator", "sum", "Peptide aggregator: sum, median or topN")
	fs.String("protein-aggregator", "top", "Protein aggregator: sum, median, top (uses --top-k) or topN")
	fs.Int("top-k", aggregate.DefaultTopK, "K for the top-K mean aggregator")
	fs.String("normalization", "median", "Normalization: median, median-shift or none")

	fs.Bool("no-de", false, "Skip differential expression")
	fs.String("condition-a", "", "Reference condition (auto-detected with exactly two conditions)")
	fs.String("condition-b", "", "Compared condition")
	fs.Float64("alpha", de.DefaultAlpha, "Significance level for adjusted p-values")
	fs.String("transform", "log10", "Transform before testing: log10, log2 or none")

	fs.Float64("jaccard-bin-width", pipeline.DefaultBinWidth, "Bin width of the Jaccard histogram")

	fs.StringSlice("exclude-prefixes", filter.DefaultExcludePrefixes, "Drop records whose protein ids start with these prefixes")
	fs.Float64("min-intensity", 0, "Drop intensities below this value (0 = no cutoff)")
}

// RegisterGlobalFlags adds the settings shared by every command.
func RegisterGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (YAML or TOML)")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
}

// Load resolves settings from fs, the environment and the file named by
// the config flag. Explicit flags win over the environment, which wins
// over the file.
func Load(fs *pflag.FlagSet) (*Config, error) {
	vip := viper.New()

	if err := vip.BindPFlags(fs); err != nil {
		return nil, core.ConfigurationError.Wrap(err)
	}

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()

	if path := vip.GetString("config"); path != "" {
		vip.SetConfigFile(path)
		if err := vip.ReadInConfig(); err != nil {
			return nil, core.ConfigurationError.New("failed to read config file %s: %v", path, err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, core.ConfigurationError.Wrap(err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var group errs.Group

	if c.Evidence == "" {
		group.Add(errs.New("evidence table is required"))
	}
	if c.Metadata == "" {
		group.Add(errs.New("sample metadata is required"))
	}
	if c.Annotation != "" && c.AnnotationKey == "" {
		group.Add(errs.New("annotation-key is required with an annotation table"))
	}
	if _, err := c.PipelineOptions(nil, nil); err != nil {
		group.Add(err)
	}
	if (c.ConditionA == "") != (c.ConditionB == "") {
		group.Add(errs.New("condition-a and condition-b must be given together"))
	}
	if c.MinIntensity < 0 {
		group.Add(errs.New("min-intensity must be non-negative, got %v", c.MinIntensity))
	}

	return core.ConfigurationError.Wrap(group.Err())
}

// Filter returns the record filter configuration.
func (c *Config) Filter() *filter.Config {
	return &filter.Config{
		ExcludePrefixes: c.ExcludePrefixes,
		MinIntensity:    c.MinIntensity,
	}
}

// PipelineOptions resolves the named strategies into pipeline options.
// ann may be nil.
func (c *Config) PipelineOptions(ann *annotation.Table, log *zap.Logger) (pipeline.Options, error) {
	var group errs.Group

	seq, err := core.ParseSequenceField(c.SequenceField)
	group.Add(err)
	prot, err := core.ParseProteinField(c.ProteinField)
	group.Add(err)
	if c.TopK <= 0 {
		group.Add(errs.New("top-k must be positive, got %d", c.TopK))
	}
	pepAgg, err := aggregate.ByName(c.PeptideAggregator, c.TopK)
	group.Add(err)
	protAgg, err := aggregate.ByName(c.ProteinAggregator, c.TopK)
	group.Add(err)
	norm, err := normalize.ByName(c.Normalization)
	group.Add(err)
	tr, err := de.TransformByName(c.Transform)
	group.Add(err)
	if !(c.Alpha > 0 && c.Alpha < 1) {
		group.Add(errs.New("alpha must be in (0, 1), got %v", c.Alpha))
	}
	if !(c.JaccardBinWidth > 0 && c.JaccardBinWidth <= 1) {
		group.Add(errs.New("jaccard-bin-width must be in (0, 1], got %v", c.JaccardBinWidth))
	}
	if err := group.Err(); err != nil {
		return pipeline.Options{}, core.ConfigurationError.Wrap(err)
	}

	opts := pipeline.Options{
		SequenceField:   seq,
		ProteinField:    prot,
		PeptideStrategy: pepAgg,
		ProteinStrategy: protAgg,
		Normalizer:      norm,
		Transform:       tr,
		JaccardBinWidth: c.JaccardBinWidth,
		Annotation:      ann,
		Logger:          log,
	}
	if !c.SkipDifferential {
		opts.Differential = &de.Options{
			ConditionA: c.ConditionA,
			ConditionB: c.ConditionB,
			Transform:  tr,
			Alpha:      c.Alpha,
		}
	}
	return opts, nil
}
