package driven

import (
	"context"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
)

// TagGenerator proposes tags for a document via an external
// text-generation service. One call is one request/response round trip;
// retry lives in the orchestrator, not here.
type TagGenerator interface {
	// Generate builds a prompt from the document's content, its own
	// tags and the historical tags, sends one request and parses the
	// response. Transport and HTTP failures are returned inside the
	// result's Err field wrapping domain.ErrTransport; an unparsable
	// response yields empty proposed tags and a nil Err.
	Generate(ctx context.Context, doc domain.Document, historical []string) domain.GenerationResult

	// Ping validates the service is reachable by making a lightweight
	// test request, without running inference.
	Ping(ctx context.Context) error

	// ModelName returns the name of the model being used.
	ModelName() string
}
