// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Spotify   SpotifyConfig   `toml:"spotify"`
	Downloads DownloadsConfig `toml:"downloads"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type DownloadsConfig struct {
	// Workers bounds the playlist pool; the orchestrator clamps it to
	// [1, 8].
	Workers       int    `toml:"workers"`
	OutputFormat  string `toml:"output_format"`
	YTDLPPath     string `toml:"ytdlp_path"`
	CookiesFile   string `toml:"cookies_file"`
	CookiesBase64 string `toml:"cookies_base64"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnvOverrides layers the process environment over the file. These
// variables predate the config file and keep old deployments working.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("PLAYLIST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Downloads.Workers = n
		}
	}
	if v := os.Getenv("YTDLP_COOKIES"); v != "" {
		c.Downloads.CookiesFile = v
	}
	if v := os.Getenv("YTDLP_COOKIES_B64"); v != "" {
		c.Downloads.CookiesBase64 = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8484
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Downloads.Workers == 0 {
		c.Downloads.Workers = 3
	}
	if c.Downloads.OutputFormat == "" {
		c.Downloads.OutputFormat = "mp3"
	}
	if c.Downloads.YTDLPPath == "" {
		c.Downloads.YTDLPPath = "yt-dlp"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
