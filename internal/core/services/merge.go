package services

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
)

// MergeOptions configures a tag merge.
type MergeOptions struct {
	// Sort replaces merge ordering with a locale-aware lexical sort.
	Sort bool

	// Locale is the BCP 47 tag used for sorting, e.g. "zh" or "en".
	// Empty falls back to the root collation.
	Locale string

	// Taxonomy classifies the final tags for reporting. Optional.
	Taxonomy *domain.Taxonomy
}

// MergeResult is the outcome of merging the three tag sources.
type MergeResult struct {
	// Tags is the final normalised, deduped tag list.
	Tags []string

	// Added holds the tags genuinely contributed by generation: final
	// tags whose key was absent from historical and own tags.
	Added []string

	// Classification maps each final tag to its taxonomy category.
	Classification map[string]string
}

// MergeTags combines historical, own and proposed tags into one
// normalised tag set. Pure function, no I/O.
//
// The union is built in source order (historical, then own, then
// proposed) and deduped case-insensitively; the first occurrence wins
// both casing and position. With opts.Sort the ordering is replaced by
// a locale-aware lexical sort.
func MergeTags(historical, own, proposed []string, opts MergeOptions) MergeResult {
	// Non-nil even when every source is empty: an empty entry must
	// serialise as [] in the index artifact, never null.
	tags := []string{}
	seen := make(map[string]struct{})

	appendUnique := func(src []string) {
		for _, raw := range src {
			tag := domain.NormalizeTag(raw)
			if tag == "" {
				continue
			}
			key := domain.TagKey(tag)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, tag)
		}
	}

	// Keys present before generation was folded in. Computed up front
	// so Added reflects generation's genuine contribution even when a
	// proposed tag merely re-cases an existing one.
	preGeneration := domain.TagKeySet(domain.NormalizeTags(historical))
	for k := range domain.TagKeySet(domain.NormalizeTags(own)) {
		preGeneration[k] = struct{}{}
	}

	appendUnique(historical)
	appendUnique(own)
	appendUnique(proposed)

	if opts.Sort {
		sortTags(tags, opts.Locale)
	}

	var added []string
	for _, tag := range tags {
		if _, ok := preGeneration[domain.TagKey(tag)]; !ok {
			added = append(added, tag)
		}
	}

	return MergeResult{
		Tags:           tags,
		Added:          added,
		Classification: opts.Taxonomy.ClassifyAll(tags),
	}
}

// sortTags sorts in place under the locale's collation.
func sortTags(tags []string, locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	c := collate.New(tag)
	sort.SliceStable(tags, func(i, j int) bool {
		return c.CompareString(tags[i], tags[j]) < 0
	})
}

// SortedTags returns a locale-sorted copy of the tag list. Used by the
// front matter synchroniser to render the index's view of a document
// under the same ordering rules as the merge.
func SortedTags(tags []string, locale string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	sortTags(out, locale)
	return out
}
