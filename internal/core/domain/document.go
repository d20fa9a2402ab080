package domain

// Document is a parsed markdown document supplied by a DocumentSource.
// It is immutable within a run.
type Document struct {
	// ID is the stable document identifier: the forward-slash relative
	// path of the file under the corpus root, regardless of host path
	// conventions. Primary key into the tag index.
	ID string

	// Title is the document title from its front matter, falling back
	// to the first heading or the file name.
	Title string

	// Tags are the document's own tags, in front matter declaration
	// order, before any generation.
	Tags []string

	// Content is the raw markdown body, front matter excluded.
	Content string

	// FrontMatter is the verbatim front matter block text, delimiters
	// excluded. Empty when the document has no front matter.
	FrontMatter string

	// Draft marks documents excluded from publication.
	Draft bool

	// Path is the absolute on-disk path the document was read from.
	Path string
}

// GenerationResult is the outcome of tag generation for one document.
// Only the last attempt's result is retained.
type GenerationResult struct {
	// DocumentID is the document the result belongs to.
	DocumentID string

	// Tags are the proposed tags parsed from the response. Empty when
	// the response carried no parsable JSON array.
	Tags []string

	// Raw is the raw response message content, kept for diagnostics.
	Raw string

	// Err is the last attempt's failure, nil on success. A ParseFailure
	// is not an error: it yields empty Tags instead.
	Err error
}

// TagIndex maps document IDs to their ordered tag lists. It is the
// persisted artifact owned by the TagIndexStore.
type TagIndex map[string][]string

// Clone returns a deep copy of the index. Stores hand out clones so
// callers can mutate freely.
func (idx TagIndex) Clone() TagIndex {
	out := make(TagIndex, len(idx))
	for id, tags := range idx {
		cp := make([]string, len(tags))
		copy(cp, tags)
		out[id] = cp
	}
	return out
}

// IndexDiff describes the difference between two index states.
// Comparison is positional: reordering a document's tags is a change.
type IndexDiff struct {
	// UpdatedPaths are IDs that are new or whose tag sequence differs.
	UpdatedPaths []string

	// RemovedPaths are IDs present before but absent after.
	RemovedPaths []string
}

// Empty reports whether the diff carries no changes.
func (d IndexDiff) Empty() bool {
	return len(d.UpdatedPaths) == 0 && len(d.RemovedPaths) == 0
}
