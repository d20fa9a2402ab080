// Package file provides the JSON-file-backed TagIndexStore. The
// artifact is a single pretty-printed JSON object mapping document
// identifiers to their ordered tag lists; it is the store's only side
// channel.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
	"github.com/zhangzqs/blog-tags-sync/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.TagIndexStore = (*Store)(nil)

// Store owns the tag-index artifact for the run's duration. A mutex
// serializes every write, so concurrent document completions never
// interleave on the file.
type Store struct {
	mu   sync.Mutex
	path string

	// baseline is the index as first read, kept so finalize can report
	// what the whole run changed even after incremental commits have
	// already moved the file forward.
	baseline domain.TagIndex
}

// NewStore creates a store backed by the given artifact path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Read loads the persisted index. A missing artifact is an empty
// index; malformed content is an empty index plus a warning. Read
// never fails the run.
func (s *Store) Read() (domain.TagIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.readLocked()
	if s.baseline == nil {
		s.baseline = index.Clone()
	}
	return index, nil
}

// readLocked loads the artifact; caller must hold the mutex.
func (s *Store) readLocked() domain.TagIndex {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("tag index %s unreadable, starting empty: %v", s.path, err)
		}
		return domain.TagIndex{}
	}

	var index domain.TagIndex
	if err := json.Unmarshal(data, &index); err != nil {
		logger.Warn("tag index %s malformed, starting empty: %v", s.path, err)
		return domain.TagIndex{}
	}
	if index == nil {
		index = domain.TagIndex{}
	}
	return index
}

// Commit snapshots the index to the artifact immediately. Incremental
// commits may transiently persist a half-updated index; the finalize
// write after the full pass is authoritative.
func (s *Store) Commit(index domain.TagIndex, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(index); err != nil {
		return fmt.Errorf("commit tag index: %w", err)
	}
	logger.Debug("tag index committed (%s)", reason)
	return nil
}

// writeLocked atomically replaces the artifact; caller must hold the
// mutex. The index is pretty-printed with 2-space indentation and
// sorted keys so unchanged runs produce byte-identical files.
func (s *Store) writeLocked(index domain.TagIndex) error {
	// Every entry is an array in the artifact. A nil tag list would
	// marshal as null and break consumers expecting string arrays.
	for id, tags := range index {
		if tags == nil {
			index[id] = []string{}
		}
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Diff compares two index states positionally: a reordering of one
// document's tags counts as a change.
func (s *Store) Diff(previous, next domain.TagIndex) domain.IndexDiff {
	var d domain.IndexDiff
	for id, tags := range next {
		if prev, ok := previous[id]; !ok || !domain.EqualTags(prev, tags) {
			d.UpdatedPaths = append(d.UpdatedPaths, id)
		}
	}
	for id := range previous {
		if _, ok := next[id]; !ok {
			d.RemovedPaths = append(d.RemovedPaths, id)
		}
	}
	sort.Strings(d.UpdatedPaths)
	sort.Strings(d.RemovedPaths)
	return d
}

// Finalize writes the authoritative index after a full pass. Entries
// absent from seen are pruned, unless the pass was filtered: a partial
// pass must never delete entries it did not examine. Dry-run reports
// the pending diff without writing.
func (s *Store) Finalize(index domain.TagIndex, seen []string, opts driven.FinalizeOptions) (*driven.FinalizeReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	final := index.Clone()
	if !opts.Filtered {
		inPass := make(map[string]struct{}, len(seen))
		for _, id := range seen {
			inPass[id] = struct{}{}
		}
		for id := range final {
			if _, ok := inPass[id]; !ok {
				logger.Info("pruning %s: absent from current pass", id)
				delete(final, id)
			}
		}
	}

	baseline := s.baseline
	if baseline == nil {
		baseline = s.readLocked()
	}
	report := &driven.FinalizeReport{Diff: s.Diff(baseline, final)}

	if opts.DryRun {
		logger.Info("dry-run: %d entries would change, %d would be removed",
			len(report.Diff.UpdatedPaths), len(report.Diff.RemovedPaths))
		return report, nil
	}

	if err := s.writeLocked(final); err != nil {
		return nil, fmt.Errorf("finalize tag index: %w", err)
	}
	report.Written = true
	logger.Info("tag index written: %d entries changed, %d removed",
		len(report.Diff.UpdatedPaths), len(report.Diff.RemovedPaths))
	return report, nil
}
