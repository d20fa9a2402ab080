package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driving"
	"github.com/zhangzqs/blog-tags-sync/internal/logger"
)

// Ensure TagSyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*TagSyncOrchestrator)(nil)

// Default orchestration parameters.
const (
	DefaultMaxConcurrency = 3
	DefaultMaxRetries     = 2

	backoffStep = 2 * time.Second
	backoffCap  = 5 * time.Second
)

// SyncConfig holds resolved orchestration configuration. Zero values
// fall back to the defaults above.
type SyncConfig struct {
	// MaxConcurrency bounds simultaneous in-flight generation calls.
	MaxConcurrency int

	// MaxRetries is the number of further attempts after the first.
	MaxRetries int

	// Locale drives the optional lexical sort.
	Locale string

	// Taxonomy classifies merged tags for reporting. Optional.
	Taxonomy *domain.Taxonomy
}

// TagSyncOrchestrator runs one generation-and-merge pass: every
// document is scheduled eagerly, at most MaxConcurrency generation
// calls are in flight, and each document's merged tags are committed
// to the store the moment that document completes. One document's
// failure never cancels its siblings.
type TagSyncOrchestrator struct {
	source    driven.DocumentSource
	generator driven.TagGenerator
	store     driven.TagIndexStore
	cfg       SyncConfig

	// sleep is the backoff delay, context-aware. Replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTagSyncOrchestrator creates the orchestrator for one run.
func NewTagSyncOrchestrator(
	source driven.DocumentSource,
	generator driven.TagGenerator,
	store driven.TagIndexStore,
	cfg SyncConfig,
) *TagSyncOrchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &TagSyncOrchestrator{
		source:    source,
		generator: generator,
		store:     store,
		cfg:       cfg,
		sleep:     sleepCtx,
	}
}

// Run executes a full pass over the corpus.
func (o *TagSyncOrchestrator) Run(ctx context.Context, opts driving.RunOptions) (*driving.RunStats, error) {
	index, err := o.store.Read()
	if err != nil {
		return nil, fmt.Errorf("read tag index: %w", err)
	}

	docs, skipped, err := o.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	stats := &driving.RunStats{
		RunID:   uuid.New().String(),
		Total:   len(docs),
		Skipped: skipped,
	}
	logger.Section("tag sync")
	logger.Info("run %s: %d documents, concurrency %d", stats.RunID, len(docs), o.cfg.MaxConcurrency)

	var (
		mu   sync.Mutex // guards index and stats across completions
		wg   sync.WaitGroup
		sem  = semaphore.NewWeighted(int64(o.cfg.MaxConcurrency))
		seen = make([]string, 0, len(docs))
	)

	for _, doc := range docs {
		seen = append(seen, doc.ID)

		wg.Add(1)
		go func(doc domain.Document) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				return // run cancelled; document stays unprocessed
			}
			defer sem.Release(1)

			mu.Lock()
			historical := append([]string(nil), index[doc.ID]...)
			mu.Unlock()

			result := o.generateWithRetry(ctx, doc, historical, stats, &mu)

			merged := MergeTags(historical, doc.Tags, result.Tags, MergeOptions{
				Sort:     opts.Sort,
				Locale:   o.cfg.Locale,
				Taxonomy: o.cfg.Taxonomy,
			})
			logger.Debug("%s: %d tags, %d new", doc.ID, len(merged.Tags), len(merged.Added))

			mu.Lock()
			index[doc.ID] = merged.Tags
			stats.Processed++
			stats.TotalTags += len(merged.Tags)
			stats.NewTags += len(merged.Added)
			snapshot := index.Clone()
			mu.Unlock()

			// The store serializes writes internally, so concurrent
			// completions cannot interleave on the artifact.
			if !opts.DryRun {
				if err := o.store.Commit(snapshot, doc.ID); err != nil {
					logger.Warn("incremental commit after %s failed: %v", doc.ID, err)
				}
			}
		}(doc)
	}

	wg.Wait()
	if ctx.Err() != nil {
		return stats, ctx.Err()
	}

	report, err := o.store.Finalize(index, seen, driven.FinalizeOptions{
		DryRun:   opts.DryRun,
		Filtered: o.source.Filtered(),
	})
	if err != nil {
		return stats, fmt.Errorf("finalize tag index: %w", err)
	}

	logger.Info("run %s: processed %d/%d, %d calls (%d failed), %d tags (%d new), %d entries updated, %d removed",
		stats.RunID, stats.Processed, stats.Total, stats.Calls, stats.CallFailures,
		stats.TotalTags, stats.NewTags, len(report.Diff.UpdatedPaths), len(report.Diff.RemovedPaths))

	return stats, nil
}

// generateWithRetry runs up to 1+MaxRetries sequential attempts with
// linear backoff. Attempts are independent; only the last attempt's
// result is retained. Exhaustion degrades the document to an empty
// proposed list rather than failing the run.
func (o *TagSyncOrchestrator) generateWithRetry(
	ctx context.Context,
	doc domain.Document,
	historical []string,
	stats *driving.RunStats,
	mu *sync.Mutex,
) domain.GenerationResult {
	attempts := 1 + o.cfg.MaxRetries

	var result domain.GenerationResult
	for attempt := 1; attempt <= attempts; attempt++ {
		result = o.generator.Generate(ctx, doc, historical)

		mu.Lock()
		stats.Calls++
		if result.Err != nil {
			stats.CallFailures++
		}
		mu.Unlock()

		if result.Err == nil {
			return result
		}
		logger.Warn("%s: generation attempt %d/%d failed: %v", doc.ID, attempt, attempts, result.Err)

		if attempt < attempts {
			if err := o.sleep(ctx, backoffDelay(attempt)); err != nil {
				break // cancelled mid-backoff
			}
		}
	}

	mu.Lock()
	stats.Degraded++
	mu.Unlock()
	logger.Warn("%s: retries exhausted, falling back to historical+own tags", doc.ID)

	// Keep the typed failure on the retained result but clear the
	// proposal so the merge degrades to historical+own.
	result.Tags = nil
	return result
}

// backoffDelay is the linear backoff after a failed attempt:
// min(2s x attempt, 5s).
func backoffDelay(attempt int) time.Duration {
	d := time.Duration(attempt) * backoffStep
	if d > backoffCap {
		d = backoffCap
	}
	return d
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
