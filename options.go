package registrar

import "github.com/tsawler/registrar/transcript"

// processOptions holds configuration for a cleaning pass.
type processOptions struct {
	// Table selection (1-indexed in API, stored as-is)
	tables []int

	// Duplicate detection policy
	policy transcript.DedupePolicy

	// Replacement noise rules; nil means the built-in rule list
	rules []transcript.Rule
}

// defaultOptions returns the default processing options.
func defaultOptions() processOptions {
	return processOptions{
		tables: nil, // nil means all tables
		policy: transcript.DedupeExact,
		rules:  nil,
	}
}

// clone creates a deep copy of processOptions.
func (o processOptions) clone() processOptions {
	newOpts := processOptions{
		policy: o.policy,
	}

	if o.tables != nil {
		newOpts.tables = make([]int, len(o.tables))
		copy(newOpts.tables, o.tables)
	}
	if o.rules != nil {
		newOpts.rules = make([]transcript.Rule, len(o.rules))
		copy(newOpts.rules, o.rules)
	}

	return newOpts
}
