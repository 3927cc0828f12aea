package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tunepull/internal/api"
	"tunepull/internal/catalog"
	"tunepull/internal/config"
	"tunepull/internal/job"
	"tunepull/internal/media"
	"tunepull/internal/pipeline"
	"tunepull/internal/resolver"
	"tunepull/internal/spotify"
	"tunepull/internal/tagger"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	for _, msg := range cfg.Validate() {
		logger.Warn("config issue", "issue", msg)
	}

	defaultFormat, err := media.ParseFormat(cfg.Downloads.OutputFormat)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// === Catalog extractor ===
	cookies := catalog.NewCookieCache(cfg.Downloads.CookiesFile, cfg.Downloads.CookiesBase64)
	extractor := catalog.NewYTDLP(
		catalog.WithBinary(cfg.Downloads.YTDLPPath),
		catalog.WithCookies(cookies),
		catalog.WithLogger(logger),
	)

	// === Spotify ===
	tokens := spotify.NewTokenSource(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	spotifyClient := spotify.New(tokens, spotify.WithLogger(logger))

	// === Services ===
	httpClient := &http.Client{Timeout: 30 * time.Second}
	res := resolver.New(spotifyClient, extractor, httpClient, logger)
	pipe := pipeline.New(extractor, res, logger)
	tags := tagger.New(httpClient, logger)

	registry := job.NewRegistry()
	jobs := job.NewOrchestrator(registry, spotifyClient, pipe, tags, cfg.Downloads.Workers, logger)

	// === HTTP Setup ===
	mux := http.NewServeMux()
	apiServer := api.New(res, pipe, tags, jobs, registry, defaultFormat, logger)
	apiServer.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"spotify_api", tokens.Configured(),
		"workers", cfg.Downloads.Workers,
		"output_format", cfg.Downloads.OutputFormat,
		"log_level", cfg.Server.LogLevel,
	)

	srv := &http.Server{Addr: addr, Handler: logRequests(mux, logger)}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	// Graceful HTTP shutdown with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
