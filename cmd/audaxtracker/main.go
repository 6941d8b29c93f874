// Package main is the entry point for the audaxtracker CLI.
//
// Audaxtracker is a Telegram bot that relays live checkpoint tracking
// for participants of a timed long-distance cycling event.
//
// Usage:
//
//	audaxtracker serve -c settings.yaml    # Run the bot
//	audaxtracker validate -c settings.yaml # Validate configuration
//	audaxtracker version                   # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "audaxtracker",
	Short: "Telegram bot for live audax event tracking",
	Long: `Audaxtracker is a Telegram bot that follows participants of a timed
long-distance cycling event.

It periodically pulls checkpoint checkins from the event's tracking
endpoint and notifies every subscribed chat about new ones.

Quick start:
  1. Create a config file (settings.yaml)
  2. Run: audaxtracker serve -c settings.yaml
  3. Open a chat with your bot and send /start

Example config:
  bot_token: ${BOT_TOKEN}
  admin_chat_id: 123456789
  endpoint_url: https://tracking.example.org/api
  endpoint_token: ${ENDPOINT_TOKEN}
  fetch_interval: 5m
  state_file: state.json`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this audaxtracker binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("audaxtracker %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
