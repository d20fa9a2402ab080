package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show pending front matter changes",
	Long: `Compares the persisted index against each document's front
matter tags and lists what apply would change, without touching
anything.`,
	RunE: runDiff,
}

var diffDrafts bool

func init() {
	diffCmd.Flags().BoolVar(&diffDrafts, "drafts", false, "Include documents marked draft: true")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, _ []string) error {
	store := newIndexStore()
	index, err := store.Read()
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	source := newSource(nil, diffDrafts)
	docs, _, err := source.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	byID := make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pending := 0
	for _, id := range ids {
		target := domain.NormalizeTags(index[id])
		doc, ok := byID[id]
		if !ok {
			if source.Exists(id) {
				continue
			}
			cmd.Printf("- %s (file removed)\n", id)
			pending++
			continue
		}
		current := domain.NormalizeTags(doc.Tags)
		if domain.EqualTags(current, target) {
			continue
		}
		cmd.Printf("~ %s\n", id)
		cmd.Printf("    front matter: [%s]\n", strings.Join(current, ", "))
		cmd.Printf("    index:        [%s]\n", strings.Join(target, ", "))
		pending++
	}

	for _, doc := range docs {
		if _, ok := index[doc.ID]; !ok {
			cmd.Printf("+ %s (not in index)\n", doc.ID)
			pending++
		}
	}

	if pending == 0 {
		cmd.Println("Index and front matter are in sync.")
	} else {
		cmd.Printf("%d documents differ.\n", pending)
	}
	return nil
}
