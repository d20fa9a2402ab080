// Package cli is the driving adapter exposing the tagging pipeline as
// a command-line tool. Commands resolve configuration, assemble driven
// adapters and call core services; no tagging logic lives here.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/zhangzqs/blog-tags-sync/internal/adapters/driven/config/file"
	"github.com/zhangzqs/blog-tags-sync/internal/adapters/driven/llm/openai"
	"github.com/zhangzqs/blog-tags-sync/internal/adapters/driven/source/filesystem"
	storagefile "github.com/zhangzqs/blog-tags-sync/internal/adapters/driven/storage/file"
	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
	"github.com/zhangzqs/blog-tags-sync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// configStore is assembled once per invocation by the root pre-run.
var configStore driven.ConfigStore

var rootCmd = &cobra.Command{
	Use:   "tagsync",
	Short: "Generate and synchronise blog tags with an LLM",
	Long: `tagsync maintains a tag index for a markdown blog corpus.

The sync command asks a chat-completion model for tags per document,
merges them with historical and front matter tags, and persists the
result as a JSON index. The apply command pushes the index back into
each document's front matter, preserving every unrelated field
verbatim.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		store, err := configfile.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		configStore = store
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Configuration directory (default ~/.tagsync)")
}

// Execute runs the CLI and returns the process exit code. Runs that
// complete but absorb per-document failures exit non-zero so CI can
// gate on them.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newSource builds the document source. Flag values win over
// configuration; an empty root means the current directory.
func newSource(filters []string, includeDrafts bool) *filesystem.Source {
	root := configStore.GetString("source.root")
	if root == "" {
		root = "."
	}
	if len(filters) == 0 {
		filters = configStore.GetStringSlice("source.filters")
	}
	if !includeDrafts {
		includeDrafts = configStore.GetBool("source.include_drafts")
	}
	return filesystem.New(root, filesystem.Options{
		PathPrefixes:  filters,
		IncludeDrafts: includeDrafts,
	})
}

// newIndexStore builds the tag index store.
func newIndexStore() *storagefile.Store {
	path := configStore.GetString("index.path")
	if path == "" {
		path = "tags.json"
	}
	return storagefile.NewStore(path)
}

// newGenerator builds the generation adapter. The API key resolves
// from TAGSYNC_API_KEY, then OPENAI_API_KEY, then configuration.
func newGenerator() (driven.TagGenerator, error) {
	apiKey := os.Getenv("TAGSYNC_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		apiKey = configStore.GetString("generation.api_key")
	}

	timeout := time.Duration(configStore.GetInt("generation.timeout_seconds")) * time.Second
	client, err := openai.NewHTTPClient(configStore.GetString("generation.proxy"), timeout)
	if err != nil {
		return nil, err
	}

	return openai.NewTagService(openai.Config{
		APIKey:            apiKey,
		BaseURL:           configStore.GetString("generation.base_url"),
		Model:             configStore.GetString("generation.model"),
		Timeout:           timeout,
		Temperature:       floatSetting("generation.temperature"),
		MaxTokens:         configStore.GetInt("generation.max_tokens"),
		Language:          configStore.GetString("generation.language"),
		ExtraHeaders:      configStore.GetStringMap("generation.extra_headers"),
		RequestsPerMinute: configStore.GetInt("generation.requests_per_minute"),
	}, client)
}

// loadTaxonomy reads the optional taxonomy file. No configured path
// means no classification.
func loadTaxonomy() (*domain.Taxonomy, error) {
	path := configStore.GetString("tags.taxonomy")
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	taxonomy, err := domain.ParseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	return taxonomy, nil
}

// floatSetting reads a numeric setting. TOML numbers decode as int64
// or float64 depending on how they are written.
func floatSetting(key string) float64 {
	val, ok := configStore.Get(key)
	if !ok {
		return 0
	}
	switch n := val.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
