package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
)

func TestMergeTags_Ordering(t *testing.T) {
	t.Run("union keeps source order: historical, own, proposed", func(t *testing.T) {
		res := MergeTags(
			[]string{"A", "B"},
			[]string{"B", "C"},
			[]string{"C", "D"},
			MergeOptions{},
		)
		assert.Equal(t, []string{"A", "B", "C", "D"}, res.Tags)
	})

	t.Run("sorted merge is the same set in lexical order", func(t *testing.T) {
		res := MergeTags(
			[]string{"banana", "apple"},
			[]string{"cherry"},
			nil,
			MergeOptions{Sort: true},
		)
		assert.Equal(t, []string{"apple", "banana", "cherry"}, res.Tags)
	})

	t.Run("locale sort falls back to root collation on bad locale", func(t *testing.T) {
		res := MergeTags([]string{"b", "a"}, nil, nil, MergeOptions{Sort: true, Locale: "not-a-locale"})
		assert.Equal(t, []string{"a", "b"}, res.Tags)
	})
}

func TestMergeTags_Normalisation(t *testing.T) {
	t.Run("case and separator variants collapse to one tag", func(t *testing.T) {
		res := MergeTags(
			[]string{"Machine_Learning"},
			[]string{"machine learning"},
			[]string{"MACHINE/LEARNING"},
			MergeOptions{},
		)
		assert.Equal(t, []string{"Machine Learning"}, res.Tags)
	})

	t.Run("first-seen casing wins", func(t *testing.T) {
		res := MergeTags([]string{"GoLang"}, []string{"golang"}, nil, MergeOptions{})
		assert.Equal(t, []string{"GoLang"}, res.Tags)
	})

	t.Run("empty tags are dropped", func(t *testing.T) {
		res := MergeTags([]string{"", " _ "}, nil, []string{"x"}, MergeOptions{})
		assert.Equal(t, []string{"x"}, res.Tags)
	})

	t.Run("empty merge yields a non-nil empty list", func(t *testing.T) {
		res := MergeTags(nil, nil, nil, MergeOptions{})
		assert.NotNil(t, res.Tags)
		assert.Empty(t, res.Tags)
	})
}

func TestMergeTags_Added(t *testing.T) {
	t.Run("only generation's genuine contribution counts", func(t *testing.T) {
		res := MergeTags(
			[]string{"X"},
			nil,
			[]string{"X", "Y"},
			MergeOptions{},
		)
		assert.Equal(t, []string{"Y"}, res.Added)
	})

	t.Run("re-cased proposals are not new", func(t *testing.T) {
		res := MergeTags([]string{"Go"}, nil, []string{"go"}, MergeOptions{})
		assert.Empty(t, res.Added)
	})

	t.Run("own tags are not new even without history", func(t *testing.T) {
		res := MergeTags(nil, []string{"go"}, []string{"go", "web"}, MergeOptions{})
		assert.Equal(t, []string{"web"}, res.Added)
	})

	t.Run("added survives sorting", func(t *testing.T) {
		res := MergeTags([]string{"zz"}, nil, []string{"aa"}, MergeOptions{Sort: true})
		assert.Equal(t, []string{"aa", "zz"}, res.Tags)
		assert.Equal(t, []string{"aa"}, res.Added)
	})
}

func TestMergeTags_Classification(t *testing.T) {
	tax, err := domain.ParseTaxonomy([]byte(`{"langs": {"includes": ["go"]}}`))
	require.NoError(t, err)

	t.Run("final tags are classified", func(t *testing.T) {
		res := MergeTags([]string{"Go"}, nil, []string{"tea"}, MergeOptions{Taxonomy: tax})
		assert.Equal(t, map[string]string{
			"Go":  "langs",
			"tea": domain.Uncategorized,
		}, res.Classification)
	})

	t.Run("absent taxonomy classifies everything uncategorized", func(t *testing.T) {
		res := MergeTags([]string{"Go"}, nil, nil, MergeOptions{})
		assert.Equal(t, map[string]string{"Go": domain.Uncategorized}, res.Classification)
	})
}
