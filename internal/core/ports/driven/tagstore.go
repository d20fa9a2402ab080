package driven

import (
	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
)

// FinalizeOptions controls the final reconciliation write.
type FinalizeOptions struct {
	// DryRun reports the pending diff without writing.
	DryRun bool

	// Filtered marks the pass as partial: a path filter or draft
	// exclusion narrowed the corpus. A filtered pass never prunes
	// entries it did not examine.
	Filtered bool
}

// FinalizeReport summarises what a finalize did (or, on dry-run,
// would have done).
type FinalizeReport struct {
	Diff    domain.IndexDiff
	Written bool
}

// TagIndexStore owns the persisted tag-index artifact for the run's
// duration. Implementations must serialize writes internally so that
// concurrent document completions never interleave on the artifact.
type TagIndexStore interface {
	// Read loads the persisted index. A missing artifact yields an
	// empty index; malformed content yields an empty index and a
	// warning. Read never fails the run.
	Read() (domain.TagIndex, error)

	// Commit snapshots the in-memory index to the artifact immediately,
	// bounding data loss on abnormal termination to the in-flight
	// document. The reason is logged, not persisted.
	Commit(index domain.TagIndex, reason string) error

	// Diff compares two index states positionally.
	Diff(previous, next domain.TagIndex) domain.IndexDiff

	// Finalize writes the authoritative index after a full pass. Seen
	// holds the document IDs the pass examined; entries absent from it
	// are pruned unless the pass was filtered. Dry-run reports the
	// pending diff without writing.
	Finalize(index domain.TagIndex, seen []string, opts FinalizeOptions) (*FinalizeReport, error)
}
