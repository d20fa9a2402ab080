package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Uncategorized is the classification for tags no category claims,
// and for every tag when no taxonomy is configured.
const Uncategorized = "uncategorized"

// TaxonomyRule matches tags into a category. A rule may carry an
// explicit allow-list, a pattern, or both; within one category the
// allow-list is checked before the pattern.
type TaxonomyRule struct {
	// Includes are exact tag matches, compared case-insensitively
	// against the normalised tag.
	Includes []string `json:"includes,omitempty"`

	// Pattern is a regular expression matched against the raw tag.
	Pattern string `json:"pattern,omitempty"`

	pattern *regexp.Regexp
	include map[string]struct{}
}

// TaxonomyCategory is a named rule. Categories are evaluated in
// declaration order; the first match wins.
type TaxonomyCategory struct {
	Name string
	Rule TaxonomyRule
}

// Taxonomy is an ordered list of categories used to classify tags for
// reporting. It is never persisted with the index.
type Taxonomy struct {
	Categories []TaxonomyCategory
}

// ParseTaxonomy decodes a taxonomy from a JSON object mapping category
// name to rule. encoding/json maps do not preserve key order, so the
// object is walked token by token to keep declaration order.
//
// A malformed pattern disables only that category's pattern check; the
// category's allow-list still applies.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse taxonomy: %w: expected JSON object", ErrInvalidInput)
	}

	tax := &Taxonomy{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse taxonomy: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parse taxonomy: %w: unexpected token %v", ErrInvalidInput, tok)
		}

		var rule TaxonomyRule
		if err := dec.Decode(&rule); err != nil {
			return nil, fmt.Errorf("parse taxonomy: category %q: %w", name, err)
		}
		rule.compile()
		tax.Categories = append(tax.Categories, TaxonomyCategory{Name: name, Rule: rule})
	}

	return tax, nil
}

// compile prepares the rule's lookup set and pattern. A pattern that
// fails to compile is dropped rather than failing the taxonomy.
func (r *TaxonomyRule) compile() {
	r.include = make(map[string]struct{}, len(r.Includes))
	for _, inc := range r.Includes {
		r.include[TagKey(inc)] = struct{}{}
	}
	if r.Pattern != "" {
		if re, err := regexp.Compile(r.Pattern); err == nil {
			r.pattern = re
		}
	}
}

// includesTag reports whether the tag is on the rule's allow-list.
func (r *TaxonomyRule) includesTag(tag string) bool {
	_, ok := r.include[TagKey(tag)]
	return ok
}

// matchesPattern reports whether the rule's pattern claims the raw tag.
func (r *TaxonomyRule) matchesPattern(tag string) bool {
	return r.pattern != nil && r.pattern.MatchString(tag)
}

// Classify assigns the tag to a category. Explicit allow-lists beat
// patterns: a tag on any category's allow-list is classified there even
// when an earlier category's pattern also matches. Within each phase
// categories are evaluated in declaration order, first match wins.
// A nil taxonomy classifies everything as Uncategorized.
func (t *Taxonomy) Classify(tag string) string {
	if t == nil {
		return Uncategorized
	}
	for _, cat := range t.Categories {
		if cat.Rule.includesTag(tag) {
			return cat.Name
		}
	}
	for _, cat := range t.Categories {
		if cat.Rule.matchesPattern(tag) {
			return cat.Name
		}
	}
	return Uncategorized
}

// ClassifyAll classifies every tag in the list.
func (t *Taxonomy) ClassifyAll(tags []string) map[string]string {
	out := make(map[string]string, len(tags))
	for _, tag := range tags {
		out[tag] = t.Classify(tag)
	}
	return out
}
