package driven

import (
	"context"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
)

// DocumentSource supplies the ordered, already-parsed markdown corpus.
// Path and draft filtering happen here, upstream of the core.
type DocumentSource interface {
	// Load scans the corpus and returns parsed documents in a stable
	// order, plus the count of files skipped because they could not be
	// read or parsed.
	Load(ctx context.Context) ([]domain.Document, int, error)

	// Exists reports whether the document's file is present on disk,
	// ignoring any active filter. Used to tell a deleted document from
	// a merely filtered-out one.
	Exists(id string) bool

	// Filtered reports whether the source narrows the corpus, via an
	// active path filter or excluded drafts. A filtered pass must
	// never cause index pruning.
	Filtered() bool

	// Watch emits the IDs of documents whose files change on disk,
	// until ctx is cancelled. Optional: sources that cannot watch
	// return domain.ErrNotImplemented.
	Watch(ctx context.Context) (<-chan string, error)
}
