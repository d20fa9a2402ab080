package driving

import "context"

// RunOptions configures one tagging pass over the corpus.
type RunOptions struct {
	// DryRun computes and reports without writing the final index.
	// Incremental commits are also suppressed.
	DryRun bool

	// Sort replaces merge ordering with a locale-aware lexical sort.
	Sort bool
}

// RunStats is the user-visible summary of a tagging pass.
type RunStats struct {
	// RunID correlates log lines from one pass.
	RunID string

	// Total is the number of documents in the pass.
	Total int

	// Processed is the number of documents merged and committed.
	Processed int

	// Skipped counts documents the source could not read or parse.
	Skipped int

	// Calls is the number of generation attempts sent, retries included.
	Calls int

	// CallFailures is the number of failed generation attempts.
	CallFailures int

	// Degraded counts documents whose retries were exhausted and which
	// fell back to their historical+own tags.
	Degraded int

	// TotalTags is the number of tags across the final index entries
	// written by this pass.
	TotalTags int

	// NewTags is the number of tags genuinely contributed by
	// generation in this pass.
	NewTags int
}

// Failed reports whether the pass absorbed any per-document failures.
func (s *RunStats) Failed() bool {
	return s.Degraded > 0 || s.Skipped > 0
}

// SyncOrchestrator coordinates one generation-and-merge pass over the
// corpus: bounded-concurrency generation, retry, merge, incremental
// persistence and final reconciliation.
type SyncOrchestrator interface {
	// Run executes a full pass. Only configuration errors and context
	// cancellation abort it; per-document failures degrade locally and
	// are reported through the returned stats.
	Run(ctx context.Context, opts RunOptions) (*RunStats, error)
}
