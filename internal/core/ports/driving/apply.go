package driving

import "context"

// ApplyOptions configures a front matter synchronisation pass.
type ApplyOptions struct {
	// DryRun compares and reports without touching disk.
	DryRun bool

	// Sort writes tags in locale order instead of merge order.
	Sort bool
}

// ApplyStats summarises a front matter synchronisation pass.
type ApplyStats struct {
	// Updated documents had their tags field rewritten.
	Updated []string

	// Unchanged documents already carried the index's tag list.
	Unchanged []string

	// Missing IDs are referenced by the index but absent from disk.
	Missing []string

	// FilteredOut IDs exist on disk but were excluded by an active
	// path or draft filter, so they were not rewritten.
	FilteredOut []string

	// Failed documents could not be rewritten (I/O or block errors).
	// The pass continues past them.
	Failed []string
}

// FrontMatterSynchroniser pushes the persisted tag index back into the
// documents' front matter, preserving the original textual form of
// every unrelated field.
type FrontMatterSynchroniser interface {
	// Apply rewrites the tags field of each indexed document whose own
	// tags differ from the index.
	Apply(ctx context.Context, opts ApplyOptions) (*ApplyStats, error)
}
