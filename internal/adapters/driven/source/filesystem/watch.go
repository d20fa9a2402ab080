package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zhangzqs/blog-tags-sync/internal/logger"
)

// debounceWindow coalesces editor save bursts (write + chmod + rename)
// into a single change notification per document.
const debounceWindow = 500 * time.Millisecond

// Watch emits document IDs as their files change under the root. The
// channel closes when ctx is cancelled. Subdirectories created while
// watching are added to the watch set.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(watcher, s.root); err != nil {
		watcher.Close()
		return nil, err
	}

	changes := make(chan string)
	go s.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- string) {
	defer close(changes)
	defer watcher.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	emit := func(id string) {
		mu.Lock()
		if t, ok := pending[id]; ok {
			t.Reset(debounceWindow)
			mu.Unlock()
			return
		}
		pending[id] = time.AfterFunc(debounceWindow, func() {
			mu.Lock()
			delete(pending, id)
			mu.Unlock()
			select {
			case changes <- id:
			case <-ctx.Done():
			}
		})
		mu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						logger.Warn("watch: %v", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isMarkdown(filepath.Base(event.Name)) {
				continue
			}
			rel, err := filepath.Rel(s.root, event.Name)
			if err != nil {
				continue
			}
			id := filepath.ToSlash(rel)
			if !s.matchesPrefix(id) {
				continue
			}
			emit(id)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// addRecursive watches a directory and every non-hidden subdirectory.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
