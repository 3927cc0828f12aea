package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "tunepull",
	Short: "CLI client for the tunepull audio downloader",
	Long: `tunepull - CLI client for the tunepull audio downloader

Resolves Spotify links, YouTube links, or free text into audio
downloads served by a tunepulld server.

Run 'tunepulld' to start the server daemon.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8484", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("tunepull {{.Version}}\n")
}
