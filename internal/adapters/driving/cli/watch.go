package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhangzqs/blog-tags-sync/internal/adapters/driven/source/filesystem"
	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driving"
	"github.com/zhangzqs/blog-tags-sync/internal/core/services"
	"github.com/zhangzqs/blog-tags-sync/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-tag documents as they change",
	Long: `Watches the corpus and runs a single-document tagging pass for
each changed file. Passes triggered this way are filtered, so they
never prune other index entries. Stop with Ctrl-C.`,
	RunE: runWatch,
}

var watchSort bool

func init() {
	watchCmd.Flags().BoolVar(&watchSort, "sort", false, "Sort merged tags in locale order")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	generator, err := newGenerator()
	if err != nil {
		return err
	}
	taxonomy, err := loadTaxonomy()
	if err != nil {
		return err
	}
	store := newIndexStore()

	source := newSource(nil, true)
	changes, err := source.Watch(cmd.Context())
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	root := configStore.GetString("source.root")
	if root == "" {
		root = "."
	}

	cmd.Printf("Watching %s for changes...\n", root)
	for {
		select {
		case <-cmd.Context().Done():
			cmd.Println("Watch stopped.")
			return nil
		case id, ok := <-changes:
			if !ok {
				cmd.Println("Watch stopped.")
				return nil
			}
			cmd.Printf("Change detected: %s\n", id)
			if err := syncOne(cmd.Context(), cmd, root, id, generator, store, taxonomy); err != nil {
				logger.Warn("%s: %v", id, err)
			}
		}
	}
}

// syncOne runs a tagging pass narrowed to a single document. The
// narrowed source reports Filtered, so the pass cannot prune siblings.
func syncOne(
	ctx context.Context,
	cmd *cobra.Command,
	root, id string,
	generator driven.TagGenerator,
	store driven.TagIndexStore,
	taxonomy *domain.Taxonomy,
) error {
	orchestrator := services.NewTagSyncOrchestrator(
		filesystem.New(root, filesystem.Options{
			PathPrefixes:  []string{id},
			IncludeDrafts: true,
		}),
		generator,
		store,
		services.SyncConfig{
			MaxConcurrency: 1,
			Locale:         configStore.GetString("tags.locale"),
			Taxonomy:       taxonomy,
		},
	)

	stats, err := orchestrator.Run(ctx, driving.RunOptions{Sort: watchSort})
	if err != nil {
		return err
	}
	if stats.Failed() {
		return fmt.Errorf("%s: generation degraded", id)
	}
	cmd.Printf("  %s: %d tags (%d new)\n", id, stats.TotalTags, stats.NewTags)
	return nil
}
