package config

import (
	"fmt"
	"os"

	"tunepull/internal/media"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Downloads.Workers < 0 {
		errs = append(errs, fmt.Sprintf("downloads.workers: must not be negative, got %d", c.Downloads.Workers))
	}
	if _, err := media.ParseFormat(c.Downloads.OutputFormat); err != nil {
		errs = append(errs, fmt.Sprintf("downloads.output_format: must be one of mp3, m4a, opus, best; got %q", c.Downloads.OutputFormat))
	}

	// Credentials come as a pair; half a pair is a deployment mistake.
	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		errs = append(errs, "spotify: client_id and client_secret must be set together")
	}

	// Cookie file warning (non-fatal at load time, the cache re-checks)
	if c.Downloads.CookiesFile != "" {
		if _, err := os.Stat(c.Downloads.CookiesFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("downloads.cookies_file: warning: file %q does not exist", c.Downloads.CookiesFile))
		}
	}

	return errs
}
