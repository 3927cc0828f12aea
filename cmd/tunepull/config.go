package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tunepull/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without starting the server.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := "config.toml"
	if len(args) > 0 {
		path = args[0]
	}

	fmt.Printf("Validating %s...\n\n", path)

	cfg, err := config.Check(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(cfg)
	fmt.Println("\nConfiguration valid!")
	return nil
}

func printConfigErrors(e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
		fmt.Println()
	}

	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.Config) {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Server:    %s:%d (log: %s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.LogLevel)
	fmt.Printf("  Downloads: %d workers, %s output\n", cfg.Downloads.Workers, cfg.Downloads.OutputFormat)

	spotify := "scrape fallback only (no credentials)"
	if cfg.Spotify.ClientID != "" {
		spotify = "API credentials configured"
	}
	fmt.Printf("  Spotify:   %s\n", spotify)

	if cfg.Downloads.CookiesFile != "" {
		fmt.Printf("  Cookies:   %s\n", cfg.Downloads.CookiesFile)
	} else if cfg.Downloads.CookiesBase64 != "" {
		fmt.Println("  Cookies:   inline (base64)")
	}
}
