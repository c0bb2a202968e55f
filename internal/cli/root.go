package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X stock_sim/internal/cli.Version=..."
var Version = "dev"

// RootConfig carries the persistent flags to every subcommand
type RootConfig struct {
	ConfigPath string
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "stocksim",
		Short: "Stock market simulator with a paper trading session",
		Long: `stocksim runs a random walk stock market and a paper trading session
against it, with a read-only HTTP/websocket feed and a SQLite trade journal.

Examples:
  stocksim config init -o stocksim.yaml
  stocksim run --config stocksim.yaml
  stocksim journal --limit 20
  stocksim watch add NVDA`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (defaults when empty)")

	// Subcommands
	cmd.AddCommand(
		newRunCmd(rc),
		newConfigCmd(),
		newJournalCmd(rc),
		newWatchCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stocksim %s\n", Version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
