package core

import "github.com/zeebo/errs"

// Error classes surfaced by the aggregation and statistics stages.
var (
	// ConfigurationError marks caller mistakes: unknown fields or strategy
	// names, strategies that break the missing-value contract, ambiguous
	// condition selection.
	ConfigurationError = errs.Class("configuration")

	// DataIntegrityError marks recoverable input problems such as a
	// sequence key mapped to conflicting proteins. Stages recover from
	// these with a deterministic fallback and report them as warnings.
	DataIntegrityError = errs.Class("data integrity")

	// EmptyResultError marks a stage that produced no rows.
	EmptyResultError = errs.Class("empty result")
)
