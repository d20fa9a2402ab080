// Package frontmatter parses and rewrites YAML front matter blocks
// while preserving the verbatim text of every field that is not being
// changed. A generic YAML re-serialization reformats scalars it does
// not need to touch (date spellings, quoting, key order); this package
// exists so a tags-only rewrite produces a tags-only diff.
package frontmatter

import (
	"fmt"
	"strings"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
)

// Field is one top-level mapping entry captured verbatim. Comment and
// blank lines are attached to the field they follow.
type Field struct {
	// Key is the mapping key, or "" for preamble lines (comments or
	// blanks before the first key).
	Key string

	// Raw is the field's verbatim source text: the key line plus any
	// continuation lines, without a trailing newline.
	Raw string
}

// Block is a parsed front matter block: an ordered list of top-level
// fields, each with its original spelling intact.
type Block struct {
	Fields []Field
}

// Parse splits a front matter block (delimiters excluded) into
// top-level fields. It is a small explicit parser, not a YAML decoder:
// values are never interpreted, only captured. Multi-line values
// (block scalars, nested maps, sequences) and quoted values spanning
// lines stay attached to their key.
//
// A non-blank, non-comment line outside any field makes the block
// malformed; callers fall back to a generic rewrite.
func Parse(block string) (*Block, error) {
	b := &Block{}
	lines := strings.Split(block, "\n")
	// A trailing newline produces one empty trailing element; drop it
	// so it does not become a phantom continuation line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var (
		current   *Field
		openQuote byte // ' or " while a quoted value is unterminated
	)
	flush := func() {
		if current != nil {
			b.Fields = append(b.Fields, *current)
			current = nil
		}
	}
	appendLine := func(line string) {
		current.Raw += "\n" + line
	}

	for _, line := range lines {
		if openQuote != 0 {
			appendLine(line)
			if strings.IndexByte(line, openQuote) >= 0 {
				openQuote = 0
			}
			continue
		}

		if key, rest, ok := splitKeyLine(line); ok {
			flush()
			current = &Field{Key: key, Raw: line}
			openQuote = unterminatedQuote(rest)
			continue
		}

		if current != nil {
			appendLine(line)
			continue
		}

		// Before the first key only comments and blanks are legal.
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			b.Fields = append(b.Fields, Field{Raw: line})
			continue
		}
		return nil, fmt.Errorf("frontmatter: %w: %q is not a mapping entry", domain.ErrInvalidInput, line)
	}
	flush()

	return b, nil
}

// splitKeyLine reports whether the line opens a new top-level field,
// returning the key and the value remainder after the colon.
func splitKeyLine(line string) (key, rest string, ok bool) {
	if line == "" {
		return "", "", false
	}
	switch line[0] {
	case ' ', '\t', '-', '#':
		return "", "", false
	}
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, line[i+1:], true
}

// unterminatedQuote returns the quote byte when the value opens a
// quoted scalar that does not close on the same line.
func unterminatedQuote(rest string) byte {
	v := strings.TrimSpace(rest)
	if len(v) < 1 {
		return 0
	}
	q := v[0]
	if q != '\'' && q != '"' {
		return 0
	}
	if len(v) >= 2 && strings.IndexByte(v[1:], q) >= 0 {
		return 0
	}
	return q
}

// Has reports whether the block declares the key.
func (b *Block) Has(key string) bool {
	for _, f := range b.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Render reassembles the block. The output always ends with a newline
// so it can sit directly above the closing delimiter.
func (b *Block) Render() string {
	if len(b.Fields) == 0 {
		return ""
	}
	raws := make([]string, len(b.Fields))
	for i, f := range b.Fields {
		raws[i] = f.Raw
	}
	return strings.Join(raws, "\n") + "\n"
}
