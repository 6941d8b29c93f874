package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"audaxtracker/config"
)

// validateCmd validates a config file without starting the bot.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an audaxtracker configuration file without starting the bot.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  audaxtracker validate -c settings.yaml
  audaxtracker validate --config /etc/audaxtracker/settings.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	admin := "not set"
	if cfg.AdminChatID != 0 {
		admin = fmt.Sprintf("%d", cfg.AdminChatID)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Endpoint:       %s\n", cfg.EndpointURL)
	fmt.Printf("  Fetch interval: %s (first fetch after %s)\n",
		cfg.FetchInterval.Duration(), cfg.FetchInitialDelay.Duration())
	fmt.Printf("  State file:     %s\n", cfg.StateFile)
	fmt.Printf("  Admin chat:     %s\n", admin)
	fmt.Printf("  Languages:      %s (default %s)\n",
		strings.Join(cfg.SupportedLanguages, ", "), cfg.DefaultLanguage)
	fmt.Printf("  Time zone:      %s\n", cfg.TimeZone)

	return nil
}
