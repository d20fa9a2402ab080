package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// tagsKey is the only field a rewrite is allowed to reformat.
const tagsKey = "tags"

// RewriteTags returns the block with its tags field replaced by the
// given list and every other field byte-identical to the input. A
// block without a tags field gets one appended; an empty block becomes
// a tags-only block. Blocks the explicit parser rejects fall back to a
// generic YAML rewrite with timestamp quoting artifacts stripped.
func RewriteTags(block string, tags []string) (string, error) {
	if strings.TrimSpace(block) == "" {
		return serializeTags(tags), nil
	}

	b, err := Parse(block)
	if err != nil {
		return genericRewrite(block, tags)
	}

	raw := strings.TrimSuffix(serializeTags(tags), "\n")
	replaced := false
	for i, f := range b.Fields {
		if f.Key == tagsKey {
			// Blank and comment lines trailing the old value belong to
			// the block, not to the tags field; carry them over.
			if decor := trailingDecor(f.Raw); decor != "" {
				b.Fields[i] = Field{Key: tagsKey, Raw: raw + "\n" + decor}
			} else {
				b.Fields[i] = Field{Key: tagsKey, Raw: raw}
			}
			replaced = true
			break
		}
	}
	if !replaced {
		b.Fields = append(b.Fields, Field{Key: tagsKey, Raw: raw})
	}

	return b.Render(), nil
}

// trailingDecor returns the blank and comment lines at the end of a
// field's raw text, "" when the field ends with value content.
func trailingDecor(raw string) string {
	lines := strings.Split(raw, "\n")
	cut := len(lines)
	for cut > 0 {
		trimmed := strings.TrimSpace(lines[cut-1])
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
		cut--
	}
	if cut == len(lines) {
		return ""
	}
	return strings.Join(lines[cut:], "\n")
}

// serializeTags renders the tags field as a 2-space-indented YAML
// block sequence, ending with a newline.
func serializeTags(tags []string) string {
	if len(tags) == 0 {
		return "tags: []\n"
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	// Encoding a []string cannot fail.
	_ = enc.Encode(map[string][]string{tagsKey: tags})
	_ = enc.Close()
	return buf.String()
}

// genericRewrite re-serializes the whole block through the YAML
// decoder, keeping key order via the node representation, then strips
// the quoting the encoder introduces around bare timestamps. Used only
// when the block defeats the verbatim parser.
func genericRewrite(block string, tags []string) (string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return "", fmt.Errorf("frontmatter: decode block: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", fmt.Errorf("frontmatter: block is not a mapping")
	}
	mapping := doc.Content[0]

	var tagsNode yaml.Node
	if err := tagsNode.Encode(tags); err != nil {
		return "", fmt.Errorf("frontmatter: encode tags: %w", err)
	}
	if len(tags) == 0 {
		tagsNode.Style = yaml.FlowStyle
	}

	replaced := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == tagsKey {
			mapping.Content[i+1] = &tagsNode
			replaced = true
			break
		}
	}
	if !replaced {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: tagsKey},
			&tagsNode,
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return "", fmt.Errorf("frontmatter: encode block: %w", err)
	}
	_ = enc.Close()

	return unquoteTimestamps(buf.String()), nil
}

// quotedTimestamp matches a scalar field whose value is a quoted
// "YYYY-MM-DD HH:MM:SS" timestamp. The YAML encoder quotes such
// strings because bare they would parse as !!timestamp; the original
// blocks write them bare, so the quotes are an artifact.
var quotedTimestamp = regexp.MustCompile(
	`(?m)^(\s*[^\s:#][^:]*:\s*)['"](\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})['"]\s*$`)

// unquoteTimestamps strips quoting artifacts around the recognised
// timestamp shape.
func unquoteTimestamps(block string) string {
	return quotedTimestamp.ReplaceAllString(block, "$1$2")
}
