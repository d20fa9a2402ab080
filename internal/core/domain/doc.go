// Package domain defines the core business entities for blog-tags-sync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A parsed markdown document with its native tags
//   - TagIndex: The persisted mapping from document ID to tag list
//   - GenerationResult: The outcome of one tag-generation round trip
//   - Taxonomy: Ordered classification rules for reporting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
