package domain

import (
	"regexp"
	"strings"
)

// tagSeparators matches runs of whitespace, underscores and slashes.
// Tags written as "machine_learning", "machine/learning" or
// "machine  learning" all normalise to "machine learning".
var tagSeparators = regexp.MustCompile(`[\s_/]+`)

// NormalizeTag collapses separator runs to single spaces and trims the
// result. Returns "" for tags that are empty after normalisation.
func NormalizeTag(tag string) string {
	return strings.TrimSpace(tagSeparators.ReplaceAllString(tag, " "))
}

// TagKey returns the case-insensitive identity of a normalised tag.
// Two tags with equal keys are the same tag; the first-seen casing wins.
func TagKey(tag string) string {
	return strings.ToLower(NormalizeTag(tag))
}

// NormalizeTags normalises every tag and drops the empty ones,
// preserving order and duplicates. Deduplication is the merge's job.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := NormalizeTag(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// TagKeySet returns the set of keys for the given tags.
func TagKeySet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if k := TagKey(t); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// EqualTags reports whether two tag sequences are positionally equal.
// Used for diffing: a reordering counts as a change.
func EqualTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
