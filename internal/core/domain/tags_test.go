package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain tag unchanged", "golang", "golang"},
		{"underscores become spaces", "machine_learning", "machine learning"},
		{"slashes become spaces", "machine/learning", "machine learning"},
		{"whitespace runs collapse", "machine   learning", "machine learning"},
		{"mixed separator run collapses", "machine _/ learning", "machine learning"},
		{"leading and trailing trimmed", "  golang  ", "golang"},
		{"casing preserved", "Machine_Learning", "Machine Learning"},
		{"empty stays empty", "", ""},
		{"separator-only becomes empty", " _/ ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTag(tt.in))
		})
	}
}

func TestTagKey(t *testing.T) {
	t.Run("case-insensitive identity", func(t *testing.T) {
		assert.Equal(t, TagKey("Machine_Learning"), TagKey("machine learning"))
		assert.Equal(t, TagKey("GoLang"), TagKey("golang"))
	})

	t.Run("distinct tags have distinct keys", func(t *testing.T) {
		assert.NotEqual(t, TagKey("golang"), TagKey("rust"))
	})
}

func TestNormalizeTags(t *testing.T) {
	t.Run("drops empty tags, keeps order", func(t *testing.T) {
		got := NormalizeTags([]string{"a_b", "", "  ", "C"})
		assert.Equal(t, []string{"a b", "C"}, got)
	})

	t.Run("keeps duplicates for the merge to resolve", func(t *testing.T) {
		got := NormalizeTags([]string{"go", "Go"})
		assert.Equal(t, []string{"go", "Go"}, got)
	})
}

func TestEqualTags(t *testing.T) {
	t.Run("positional equality", func(t *testing.T) {
		assert.True(t, EqualTags([]string{"a", "b"}, []string{"a", "b"}))
	})

	t.Run("reordering is a difference", func(t *testing.T) {
		assert.False(t, EqualTags([]string{"a", "b"}, []string{"b", "a"}))
	})

	t.Run("length mismatch is a difference", func(t *testing.T) {
		assert.False(t, EqualTags([]string{"a"}, []string{"a", "b"}))
	})

	t.Run("nil equals empty", func(t *testing.T) {
		assert.True(t, EqualTags(nil, []string{}))
	})
}
