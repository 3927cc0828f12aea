package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tunepull/internal/config"
)

var (
	formatFlag string
	outputDir  string
	waitFlag   bool
	forceInit  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <input>",
	Short: "Preview what an input resolves to without downloading",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		resp, err := NewClient(serverURL).Resolve(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printResolveHuman(resp)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <input>",
	Short: "Download one track from a Spotify link, YouTube link, or search text",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path, err := NewClient(serverURL).Download(args[0], formatFlag, outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Manage playlist download jobs",
}

var playlistStartCmd = &cobra.Command{
	Use:   "start <spotify-playlist-url>",
	Short: "Start a playlist download job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		resp, err := client.PlaylistStart(args[0], formatFlag)
		if err != nil {
			return err
		}
		if !waitFlag {
			if jsonOutput {
				printJSON(resp)
			} else {
				fmt.Printf("Job %s started (%s)\n", resp.JobID, resp.Status)
				fmt.Printf("Check progress with: tunepull playlist status %s\n", resp.JobID)
			}
			return nil
		}

		status, err := waitForJob(client, resp.JobID)
		if err != nil {
			return err
		}
		if status.Status == "failed" {
			return fmt.Errorf("job failed: %s", status.Error)
		}
		path, err := client.PlaylistArchive(resp.JobID, outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

var playlistStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a playlist job's progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		resp, err := NewClient(serverURL).PlaylistStatus(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printStatusHuman(resp)
		return nil
	},
}

var playlistFetchCmd = &cobra.Command{
	Use:   "fetch <job-id>",
	Short: "Download a finished playlist job's zip",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path, err := NewClient(serverURL).PlaylistArchive(args[0], outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the server is reachable",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := NewClient(serverURL).Health(); err != nil {
			return err
		}
		fmt.Printf("Server %s is healthy\n", serverURL)
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.toml",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		path := "config.toml"
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

// waitForJob polls until the job reaches a terminal state, printing
// progress along the way.
func waitForJob(client *Client, jobID string) (*PlaylistStatusResponse, error) {
	var lastLine string
	for {
		status, err := client.PlaylistStatus(jobID)
		if err != nil {
			return nil, err
		}
		line := fmt.Sprintf("%s: %d/%d done, %d failed", status.Status, status.Done, status.Total, status.Failed)
		if line != lastLine {
			fmt.Println(line)
			lastLine = line
		}
		if status.Status == "done" || status.Status == "failed" {
			return status, nil
		}
		time.Sleep(2 * time.Second)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printResolveHuman(r *ResolveResponse) {
	fmt.Printf("Source:   %s\n", r.Source)
	fmt.Printf("Title:    %s\n", r.Title)
	if r.Artist != "" {
		fmt.Printf("Artist:   %s\n", r.Artist)
	}
	if r.Album != "" {
		fmt.Printf("Album:    %s\n", r.Album)
	}
	if r.DurationSeconds > 0 {
		fmt.Printf("Duration: %dm%02ds\n", r.DurationSeconds/60, r.DurationSeconds%60)
	}
	if r.VideoURL != "" {
		fmt.Printf("Video:    %s\n", r.VideoURL)
		if r.MatchConfidence != "" {
			fmt.Printf("Match:    %s (%.2f)\n", r.MatchConfidence, r.MatchScore)
		}
	}
	fmt.Printf("Query:    %s\n", r.Query)
}

func printStatusHuman(s *PlaylistStatusResponse) {
	title := s.PlaylistTitle
	if title == "" {
		title = s.ID
	}
	fmt.Printf("Playlist: %s\n", title)
	fmt.Printf("Status:   %s", s.Status)
	if s.Current != "" {
		fmt.Printf(" (%s)", s.Current)
	}
	fmt.Println()
	fmt.Printf("Progress: %d/%d done, %d failed\n", s.Done, s.Total, s.Failed)
	if s.Error != "" {
		fmt.Printf("Error:    %s\n", s.Error)
	}
	if len(s.Files) > 0 {
		fmt.Println()
		for _, f := range s.Files {
			fmt.Printf("  %s\n", f.Filename)
		}
	}
	if s.Ready {
		fmt.Println()
		fmt.Printf("Fetch the zip with: tunepull playlist fetch %s\n", s.ID)
	}
}

func init() {
	for _, cmd := range []*cobra.Command{downloadCmd, playlistStartCmd} {
		cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: mp3, m4a, opus, best (server default when empty)")
	}
	for _, cmd := range []*cobra.Command{downloadCmd, playlistStartCmd, playlistFetchCmd} {
		cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to save into")
	}
	playlistStartCmd.Flags().BoolVar(&waitFlag, "wait", false, "Wait for the job and fetch the zip")
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite existing config.toml")

	playlistCmd.AddCommand(playlistStartCmd, playlistStatusCmd, playlistFetchCmd)
	rootCmd.AddCommand(resolveCmd, downloadCmd, playlistCmd, healthCmd, initCmd)
}
