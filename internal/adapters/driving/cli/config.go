package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tagsync configuration",
	Long: `View and change configuration values. Keys use dot notation,
e.g. "generation.model" or "source.root".`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(configStore.Path())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// shownKeys is the set of settings the show command reports. Unknown
// keys in the file are preserved but not displayed.
var shownKeys = []string{
	"source.root",
	"source.filters",
	"source.include_drafts",
	"index.path",
	"generation.base_url",
	"generation.model",
	"generation.language",
	"generation.proxy",
	"generation.temperature",
	"generation.max_tokens",
	"generation.timeout_seconds",
	"generation.requests_per_minute",
	"sync.concurrency",
	"sync.retries",
	"sync.sort",
	"tags.locale",
	"tags.taxonomy",
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	keys := append([]string(nil), shownKeys...)
	sort.Strings(keys)

	cmd.Printf("Configuration (%s)\n", configStore.Path())
	for _, key := range keys {
		val, ok := configStore.Get(key)
		if !ok {
			continue
		}
		cmd.Printf("  %s = %v\n", key, val)
	}
	if configStore.GetString("generation.api_key") != "" {
		cmd.Println("  generation.api_key = (set)")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	value := coerceValue(raw)
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	if key == "generation.api_key" {
		cmd.Printf("%s updated.\n", key)
	} else {
		cmd.Printf("%s = %v\n", key, value)
	}
	return nil
}

// coerceValue maps the textual argument to a typed setting. Comma
// lists become string slices.
func coerceValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return raw
}
