package services

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driving"
	"github.com/zhangzqs/blog-tags-sync/internal/frontmatter"
	"github.com/zhangzqs/blog-tags-sync/internal/logger"
)

// Ensure FrontMatterService implements the interface.
var _ driving.FrontMatterSynchroniser = (*FrontMatterService)(nil)

// FrontMatterService pushes the persisted tag index back into each
// document's front matter. Only the tags field is reformatted; every
// other field keeps its original source spelling.
type FrontMatterService struct {
	source driven.DocumentSource
	store  driven.TagIndexStore
	locale string

	// writeFile is os.WriteFile, replaceable in tests.
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// NewFrontMatterService creates the synchroniser.
func NewFrontMatterService(source driven.DocumentSource, store driven.TagIndexStore, locale string) *FrontMatterService {
	return &FrontMatterService{
		source:    source,
		store:     store,
		locale:    locale,
		writeFile: os.WriteFile,
	}
}

// Apply rewrites the tags field of every indexed document whose own
// tags differ from the index's tag list.
func (s *FrontMatterService) Apply(ctx context.Context, opts driving.ApplyOptions) (*driving.ApplyStats, error) {
	index, err := s.store.Read()
	if err != nil {
		return nil, fmt.Errorf("read tag index: %w", err)
	}

	docs, _, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	byID := make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	// Walk the index in a stable order so reports are deterministic.
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	logger.Section("front matter sync")
	stats := &driving.ApplyStats{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		doc, ok := byID[id]
		if !ok {
			if s.source.Exists(id) {
				stats.FilteredOut = append(stats.FilteredOut, id)
			} else {
				stats.Missing = append(stats.Missing, id)
				logger.Warn("%s: indexed but missing from disk", id)
			}
			continue
		}

		// The index's view of the document, under the same
		// normalisation and ordering rules the merge uses.
		target := domain.NormalizeTags(index[id])
		if opts.Sort {
			target = SortedTags(target, s.locale)
		}

		if domain.EqualTags(domain.NormalizeTags(doc.Tags), target) {
			stats.Unchanged = append(stats.Unchanged, id)
			continue
		}

		if !opts.DryRun {
			if err := s.rewrite(doc, target); err != nil {
				logger.Warn("%s: front matter rewrite failed: %v", id, err)
				stats.Failed = append(stats.Failed, id)
				continue
			}
		}
		stats.Updated = append(stats.Updated, id)
		logger.Debug("%s: tags -> %v", id, target)
	}

	logger.Info("front matter: %d updated, %d unchanged, %d missing, %d filtered out, %d failed",
		len(stats.Updated), len(stats.Unchanged), len(stats.Missing), len(stats.FilteredOut), len(stats.Failed))
	return stats, nil
}

// rewrite replaces the document's tags field on disk.
func (s *FrontMatterService) rewrite(doc domain.Document, tags []string) error {
	block, err := frontmatter.RewriteTags(doc.FrontMatter, tags)
	if err != nil {
		return err
	}
	content := "---\n" + block + "---\n" + doc.Content
	return s.writeFile(doc.Path, []byte(content), 0o644)
}
