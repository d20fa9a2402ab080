package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driving"
	"github.com/zhangzqs/blog-tags-sync/internal/core/services"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Generate tags and update the index",
	Long: `Runs one tagging pass over the corpus.

Each document is sent to the model for tag proposals under bounded
concurrency. Proposed tags are merged with the document's historical
index entry and its own front matter tags, and the index is committed
incrementally so an interrupted run keeps its completed documents.`,
	RunE: runSync,
}

var (
	syncDryRun      bool
	syncDrafts      bool
	syncSort        bool
	syncCheck       bool
	syncFilters     []string
	syncConcurrency int
	syncRetries     int
)

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute and report without writing the index")
	syncCmd.Flags().BoolVar(&syncDrafts, "drafts", false, "Include documents marked draft: true")
	syncCmd.Flags().BoolVar(&syncSort, "sort", false, "Sort merged tags in locale order")
	syncCmd.Flags().BoolVar(&syncCheck, "check", false, "Verify model connectivity before the pass")
	syncCmd.Flags().StringSliceVarP(&syncFilters, "filter", "f", nil, "Only process documents under these path prefixes")
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 0, "Maximum in-flight generation calls")
	syncCmd.Flags().IntVar(&syncRetries, "retries", -1, "Further attempts after a failed generation call")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	generator, err := newGenerator()
	if err != nil {
		return err
	}
	taxonomy, err := loadTaxonomy()
	if err != nil {
		return err
	}

	if syncCheck {
		cmd.Printf("Checking connectivity to %s...\n", generator.ModelName())
		if err := generator.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("connectivity check failed: %w", err)
		}
	}

	concurrency := syncConcurrency
	if concurrency <= 0 {
		concurrency = configStore.GetInt("sync.concurrency")
	}
	retries := syncRetries
	if retries < 0 {
		if v, ok := configStore.Get("sync.retries"); ok {
			if n, isInt := v.(int64); isInt {
				retries = int(n)
			}
		}
	}

	orchestrator := services.NewTagSyncOrchestrator(
		newSource(syncFilters, syncDrafts),
		generator,
		newIndexStore(),
		services.SyncConfig{
			MaxConcurrency: concurrency,
			MaxRetries:     retries,
			Locale:         configStore.GetString("tags.locale"),
			Taxonomy:       taxonomy,
		},
	)

	if syncDryRun {
		cmd.Println("Dry run: the index will not be written.")
	}

	stats, err := orchestrator.Run(cmd.Context(), driving.RunOptions{
		DryRun: syncDryRun,
		Sort:   syncSort || configStore.GetBool("sync.sort"),
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printRunStats(cmd, stats)

	if stats.Failed() {
		return fmt.Errorf("%w: %d degraded, %d skipped", domain.ErrRunFailed, stats.Degraded, stats.Skipped)
	}
	return nil
}

func printRunStats(cmd *cobra.Command, stats *driving.RunStats) {
	cmd.Printf("Run %s complete.\n", stats.RunID)
	cmd.Printf("  Documents: %d processed / %d total (%d skipped)\n",
		stats.Processed, stats.Total, stats.Skipped)
	cmd.Printf("  Model calls: %d (%d failed, %d documents degraded)\n",
		stats.Calls, stats.CallFailures, stats.Degraded)
	cmd.Printf("  Tags: %d in updated entries, %d newly generated\n",
		stats.TotalTags, stats.NewTags)
}
