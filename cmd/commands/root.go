package commands

// Root command for Cobra CLI
// Registers all subcommands (bot, new-pools, trending)

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pool-sentry",
	Short: "Pool Sentry - Telegram bot for monitoring new Solana liquidity pools",
	Long: `Pool Sentry is a Go-based Telegram bot that watches Solana DEX activity,
filters freshly created pools and trending pairs, checks token safety via
RugCheck and sends deduplicated alerts to Telegram channels.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(newPoolsCmd)
	rootCmd.AddCommand(trendingCmd)
}
