package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driving"
	"github.com/zhangzqs/blog-tags-sync/internal/core/services"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write index tags back into front matter",
	Long: `Rewrites the tags field of each indexed document whose front
matter tags differ from the index. Every other front matter field is
preserved byte for byte.`,
	RunE: runApply,
}

var (
	applyDryRun  bool
	applySort    bool
	applyDrafts  bool
	applyFilters []string
)

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Report changes without touching documents")
	applyCmd.Flags().BoolVar(&applySort, "sort", false, "Write tags in locale order")
	applyCmd.Flags().BoolVar(&applyDrafts, "drafts", false, "Include documents marked draft: true")
	applyCmd.Flags().StringSliceVarP(&applyFilters, "filter", "f", nil, "Only rewrite documents under these path prefixes")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	service := services.NewFrontMatterService(
		newSource(applyFilters, applyDrafts),
		newIndexStore(),
		configStore.GetString("tags.locale"),
	)

	if applyDryRun {
		cmd.Println("Dry run: documents will not be modified.")
	}

	stats, err := service.Apply(cmd.Context(), driving.ApplyOptions{
		DryRun: applyDryRun,
		Sort:   applySort || configStore.GetBool("sync.sort"),
	})
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	printApplyStats(cmd, stats)

	if len(stats.Failed) > 0 {
		return fmt.Errorf("%w: %d documents could not be rewritten", domain.ErrRunFailed, len(stats.Failed))
	}
	return nil
}

func printApplyStats(cmd *cobra.Command, stats *driving.ApplyStats) {
	cmd.Printf("Apply complete: %d updated, %d unchanged.\n",
		len(stats.Updated), len(stats.Unchanged))
	for _, id := range stats.Updated {
		cmd.Printf("  updated   %s\n", id)
	}
	for _, id := range stats.Missing {
		cmd.Printf("  missing   %s\n", id)
	}
	for _, id := range stats.FilteredOut {
		cmd.Printf("  filtered  %s\n", id)
	}
	for _, id := range stats.Failed {
		cmd.Printf("  failed    %s\n", id)
	}
}
