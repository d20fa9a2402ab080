package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify model connectivity",
	Long: `Checks that the configured endpoint is reachable with the
configured credentials, without sending any document content.`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	generator, err := newGenerator()
	if err != nil {
		return err
	}

	cmd.Printf("Pinging %s...\n", generator.ModelName())
	if err := generator.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	cmd.Println("OK.")
	return nil
}
