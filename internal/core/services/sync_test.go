package services

import (
	"context"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driving"
)

// --- Mock implementations for orchestrator testing ---

// mockSource implements driven.DocumentSource.
type mockSource struct {
	docs     []domain.Document
	skipped  int
	filtered bool
	onDisk   map[string]bool
}

func (m *mockSource) Load(_ context.Context) ([]domain.Document, int, error) {
	return m.docs, m.skipped, nil
}
func (m *mockSource) Exists(id string) bool { return m.onDisk[id] }
func (m *mockSource) Filtered() bool        { return m.filtered }
func (m *mockSource) Watch(_ context.Context) (<-chan string, error) {
	return nil, domain.ErrNotImplemented
}

// mockGenerator implements driven.TagGenerator. Each document gets a
// scripted sequence of attempt outcomes; an exhausted script repeats
// its last entry.
type mockGenerator struct {
	mu       stdsync.Mutex
	script   map[string][]domain.GenerationResult
	calls    map[string]int
	inFlight int
	maxSeen  int
	block    time.Duration
}

func (m *mockGenerator) Generate(_ context.Context, doc domain.Document, _ []string) domain.GenerationResult {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	n := m.calls[doc.ID]
	m.calls[doc.ID] = n + 1
	script := m.script[doc.ID]
	m.mu.Unlock()

	if m.block > 0 {
		time.Sleep(m.block)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if len(script) == 0 {
		return domain.GenerationResult{DocumentID: doc.ID}
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	res := script[n]
	res.DocumentID = doc.ID
	return res
}

func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) ModelName() string            { return "mock" }

// mockStore implements driven.TagIndexStore in memory.
type mockStore struct {
	mu        stdsync.Mutex
	initial   domain.TagIndex
	commits   []domain.TagIndex
	finalized *domain.TagIndex
	finalOpts driven.FinalizeOptions
	finalSeen []string
}

func (m *mockStore) Read() (domain.TagIndex, error) {
	if m.initial == nil {
		return domain.TagIndex{}, nil
	}
	return m.initial.Clone(), nil
}

func (m *mockStore) Commit(index domain.TagIndex, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits = append(m.commits, index.Clone())
	return nil
}

func (m *mockStore) Diff(previous, next domain.TagIndex) domain.IndexDiff {
	var d domain.IndexDiff
	for id, tags := range next {
		if !domain.EqualTags(previous[id], tags) {
			d.UpdatedPaths = append(d.UpdatedPaths, id)
		}
	}
	for id := range previous {
		if _, ok := next[id]; !ok {
			d.RemovedPaths = append(d.RemovedPaths, id)
		}
	}
	return d
}

func (m *mockStore) Finalize(index domain.TagIndex, seen []string, opts driven.FinalizeOptions) (*driven.FinalizeReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := index.Clone()
	m.finalized = &clone
	m.finalOpts = opts
	m.finalSeen = seen
	return &driven.FinalizeReport{Written: !opts.DryRun}, nil
}

// fail builds a scripted transport failure.
func fail() domain.GenerationResult {
	return domain.GenerationResult{Err: fmt.Errorf("%w: status 500", domain.ErrTransport)}
}

// propose builds a scripted success.
func propose(tags ...string) domain.GenerationResult {
	return domain.GenerationResult{Tags: tags}
}

func newTestOrchestrator(src *mockSource, gen *mockGenerator, store *mockStore, cfg SyncConfig) (*TagSyncOrchestrator, *[]time.Duration) {
	o := NewTagSyncOrchestrator(src, gen, store, cfg)
	delays := &[]time.Duration{}
	var mu stdsync.Mutex
	o.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		*delays = append(*delays, d)
		return nil
	}
	return o, delays
}

func doc(id string, tags ...string) domain.Document {
	return domain.Document{ID: id, Tags: tags}
}

func TestTagSyncOrchestrator_Run(t *testing.T) {
	t.Run("merges three sources and commits per document", func(t *testing.T) {
		src := &mockSource{docs: []domain.Document{doc("a.md", "B", "C"), doc("b.md")}}
		gen := &mockGenerator{
			calls: map[string]int{},
			script: map[string][]domain.GenerationResult{
				"a.md": {propose("C", "D")},
				"b.md": {propose("x")},
			},
		}
		store := &mockStore{initial: domain.TagIndex{"a.md": {"A", "B"}}}
		o, _ := newTestOrchestrator(src, gen, store, SyncConfig{MaxConcurrency: 1})

		stats, err := o.Run(context.Background(), driving.RunOptions{})
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 2, stats.Processed)
		assert.Equal(t, 2, stats.Calls)
		assert.Equal(t, 0, stats.CallFailures)
		assert.Equal(t, 5, stats.TotalTags)
		assert.Equal(t, 2, stats.NewTags) // D and x
		assert.False(t, stats.Failed())

		require.NotNil(t, store.finalized)
		assert.Equal(t, []string{"A", "B", "C", "D"}, (*store.finalized)["a.md"])
		assert.Equal(t, []string{"x"}, (*store.finalized)["b.md"])

		// One incremental commit per completed document.
		assert.Len(t, store.commits, 2)
	})

	t.Run("failing twice then succeeding keeps attempt 3's result", func(t *testing.T) {
		src := &mockSource{docs: []domain.Document{doc("a.md")}}
		gen := &mockGenerator{
			calls:  map[string]int{},
			script: map[string][]domain.GenerationResult{"a.md": {fail(), fail(), propose("win")}},
		}
		store := &mockStore{}
		o, delays := newTestOrchestrator(src, gen, store, SyncConfig{MaxConcurrency: 1, MaxRetries: 2})

		stats, err := o.Run(context.Background(), driving.RunOptions{})
		require.NoError(t, err)

		assert.Equal(t, 3, stats.Calls)
		assert.Equal(t, 2, stats.CallFailures)
		assert.Equal(t, 0, stats.Degraded)
		assert.Equal(t, []string{"win"}, (*store.finalized)["a.md"])

		// Linear backoff: 2s after attempt 1, 4s after attempt 2.
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *delays)
	})

	t.Run("backoff is capped at five seconds", func(t *testing.T) {
		assert.Equal(t, 2*time.Second, backoffDelay(1))
		assert.Equal(t, 4*time.Second, backoffDelay(2))
		assert.Equal(t, 5*time.Second, backoffDelay(3))
		assert.Equal(t, 5*time.Second, backoffDelay(10))
	})

	t.Run("exhausted retries degrade to historical plus own tags", func(t *testing.T) {
		src := &mockSource{docs: []domain.Document{doc("a.md", "own")}}
		gen := &mockGenerator{
			calls:  map[string]int{},
			script: map[string][]domain.GenerationResult{"a.md": {fail()}},
		}
		store := &mockStore{initial: domain.TagIndex{"a.md": {"hist"}}}
		o, delays := newTestOrchestrator(src, gen, store, SyncConfig{MaxConcurrency: 1, MaxRetries: 2})

		stats, err := o.Run(context.Background(), driving.RunOptions{})
		require.NoError(t, err)

		assert.Equal(t, 3, stats.Calls)
		assert.Equal(t, 3, stats.CallFailures)
		assert.Equal(t, 1, stats.Degraded)
		assert.True(t, stats.Failed())
		assert.Len(t, *delays, 2)
		assert.Equal(t, []string{"hist", "own"}, (*store.finalized)["a.md"])
	})

	t.Run("one document's failure never cancels siblings", func(t *testing.T) {
		src := &mockSource{docs: []domain.Document{doc("bad.md"), doc("good.md")}}
		gen := &mockGenerator{
			calls: map[string]int{},
			script: map[string][]domain.GenerationResult{
				"bad.md":  {fail()},
				"good.md": {propose("ok")},
			},
		}
		store := &mockStore{}
		o, _ := newTestOrchestrator(src, gen, store, SyncConfig{MaxConcurrency: 2, MaxRetries: 1})

		stats, err := o.Run(context.Background(), driving.RunOptions{})
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Processed)
		assert.Equal(t, 1, stats.Degraded)
		assert.Equal(t, []string{"ok"}, (*store.finalized)["good.md"])
	})

	t.Run("in-flight calls respect the concurrency ceiling", func(t *testing.T) {
		docs := make([]domain.Document, 8)
		for i := range docs {
			docs[i] = doc(fmt.Sprintf("d%d.md", i))
		}
		gen := &mockGenerator{calls: map[string]int{}, script: map[string][]domain.GenerationResult{}, block: 10 * time.Millisecond}
		store := &mockStore{}
		o, _ := newTestOrchestrator(&mockSource{docs: docs}, gen, store, SyncConfig{MaxConcurrency: 2})

		_, err := o.Run(context.Background(), driving.RunOptions{})
		require.NoError(t, err)
		assert.LessOrEqual(t, gen.maxSeen, 2)
	})

	t.Run("dry-run suppresses incremental commits and the final write", func(t *testing.T) {
		src := &mockSource{docs: []domain.Document{doc("a.md")}}
		gen := &mockGenerator{calls: map[string]int{}, script: map[string][]domain.GenerationResult{"a.md": {propose("x")}}}
		store := &mockStore{}
		o, _ := newTestOrchestrator(src, gen, store, SyncConfig{})

		_, err := o.Run(context.Background(), driving.RunOptions{DryRun: true})
		require.NoError(t, err)

		assert.Empty(t, store.commits)
		assert.True(t, store.finalOpts.DryRun)
	})

	t.Run("a filtered pass reaches finalize as filtered", func(t *testing.T) {
		src := &mockSource{docs: []domain.Document{doc("a.md")}, filtered: true}
		gen := &mockGenerator{calls: map[string]int{}, script: map[string][]domain.GenerationResult{}}
		store := &mockStore{}
		o, _ := newTestOrchestrator(src, gen, store, SyncConfig{})

		_, err := o.Run(context.Background(), driving.RunOptions{})
		require.NoError(t, err)

		assert.True(t, store.finalOpts.Filtered)
		assert.Equal(t, []string{"a.md"}, store.finalSeen)
	})

	t.Run("source skip count reaches the stats", func(t *testing.T) {
		src := &mockSource{docs: nil, skipped: 3}
		gen := &mockGenerator{calls: map[string]int{}}
		store := &mockStore{}
		o, _ := newTestOrchestrator(src, gen, store, SyncConfig{})

		stats, err := o.Run(context.Background(), driving.RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Skipped)
		assert.True(t, stats.Failed())
	})
}
