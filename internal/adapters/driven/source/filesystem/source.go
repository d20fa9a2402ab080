// Package filesystem provides the DocumentSource adapter for a local
// markdown corpus: it scans a root directory, parses each document's
// front matter and applies path and draft filtering upstream of the
// core.
package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
	"github.com/zhangzqs/blog-tags-sync/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Options filter the corpus.
type Options struct {
	// PathPrefixes restricts the pass to IDs with one of these
	// prefixes. Empty means the whole corpus.
	PathPrefixes []string

	// IncludeDrafts includes documents marked draft: true.
	IncludeDrafts bool
}

// Source reads markdown documents from a directory tree.
type Source struct {
	root string
	opts Options

	mu             sync.Mutex
	excludedDrafts int
}

// New creates a source rooted at the given directory.
func New(root string, opts Options) *Source {
	return &Source{root: root, opts: opts}
}

// frontMatterMeta is the subset of front matter the source interprets.
// Everything else is carried verbatim in Document.FrontMatter.
type frontMatterMeta struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
	Draft bool     `yaml:"draft"`
}

// Load scans the corpus. Documents that cannot be read or parsed are
// skipped with a warning and counted; they never abort the pass.
func (s *Source) Load(ctx context.Context) ([]domain.Document, int, error) {
	var (
		docs    []domain.Document
		skipped int
		drafts  int
	)

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// An unreadable root is a configuration error; anything
			// below it degrades locally like an unreadable document.
			if path == s.root {
				return err
			}
			logger.Warn("%s: skipped: %v", path, err)
			skipped++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if path != s.root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(name) {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)
		if !s.matchesPrefix(id) {
			return nil
		}

		doc, err := s.readDocument(path, id)
		if err != nil {
			logger.Warn("%s: skipped: %v", id, err)
			skipped++
			return nil
		}
		if doc.Draft && !s.opts.IncludeDrafts {
			logger.Debug("%s: draft excluded", id)
			drafts++
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, skipped, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	s.mu.Lock()
	s.excludedDrafts = drafts
	s.mu.Unlock()

	logger.Info("corpus: %d documents (%d skipped, %d drafts excluded)", len(docs), skipped, drafts)
	return docs, skipped, nil
}

// readDocument parses one markdown file.
func (s *Source) readDocument(path, id string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}

	block, content := splitFrontMatter(string(data))

	var meta frontMatterMeta
	if block != "" {
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
			return domain.Document{}, err
		}
	}

	title := meta.Title
	if title == "" {
		title = fallbackTitle(content, id)
	}

	return domain.Document{
		ID:          id,
		Title:       title,
		Tags:        meta.Tags,
		Content:     content,
		FrontMatter: block,
		Draft:       meta.Draft,
		Path:        path,
	}, nil
}

// splitFrontMatter separates the verbatim front matter block from the
// body. Returns ("", whole content) when there is no block. CRLF
// delimiters are recognised; line content is kept verbatim either way.
func splitFrontMatter(content string) (block, body string) {
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		if rest, ok = strings.CutPrefix(content, "---\r\n"); !ok {
			return "", content
		}
	}
	if end := strings.Index(rest, "\r\n---\r\n"); end >= 0 {
		return rest[:end+2], rest[end+len("\r\n---\r\n"):]
	}
	if end := strings.Index(rest, "\n---\n"); end >= 0 {
		return rest[:end+1], rest[end+len("\n---\n"):]
	}
	// A block closed at end-of-file without a trailing newline.
	if trimmed, ok := strings.CutSuffix(rest, "\r\n---"); ok {
		return trimmed + "\r\n", ""
	}
	if trimmed, ok := strings.CutSuffix(rest, "\n---"); ok {
		return trimmed + "\n", ""
	}
	return "", content
}

// fallbackTitle uses the first heading, then the file name.
func fallbackTitle(content, id string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	base := filepath.Base(id)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// isMarkdown reports whether the file name is a markdown document.
func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// matchesPrefix applies the path filter to a document ID.
func (s *Source) matchesPrefix(id string) bool {
	if len(s.opts.PathPrefixes) == 0 {
		return true
	}
	for _, p := range s.opts.PathPrefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// Exists reports whether the document's file is on disk, ignoring
// filters. Distinguishes deleted documents from filtered-out ones.
func (s *Source) Exists(id string) bool {
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(id)))
	return err == nil && !info.IsDir()
}

// Filtered reports whether the last pass saw a narrowed corpus: a path
// filter was active, or at least one draft was excluded. Such a pass
// must never prune index entries it did not examine.
func (s *Source) Filtered() bool {
	if len(s.opts.PathPrefixes) > 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.excludedDrafts > 0
}
