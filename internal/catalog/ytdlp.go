package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"tunepull/internal/media"
)

// YTDLP implements Extractor by shelling out to the yt-dlp binary.
type YTDLP struct {
	binary  string
	cookies *CookieCache
	log     *slog.Logger
	run     runFunc
}

// runFunc executes a command and returns its stdout and stderr. Swapped
// out in tests.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// YTDLPOption configures a YTDLP extractor.
type YTDLPOption func(*YTDLP)

// WithBinary overrides the yt-dlp binary name or path.
func WithBinary(path string) YTDLPOption {
	return func(y *YTDLP) { y.binary = path }
}

// WithCookies sets the cookie cache consulted before every invocation.
func WithCookies(c *CookieCache) YTDLPOption {
	return func(y *YTDLP) { y.cookies = c }
}

// WithLogger sets a logger for command diagnostics.
func WithLogger(log *slog.Logger) YTDLPOption {
	return func(y *YTDLP) { y.log = log.With("component", "catalog") }
}

func withRunner(run runFunc) YTDLPOption {
	return func(y *YTDLP) { y.run = run }
}

// NewYTDLP creates a yt-dlp backed extractor.
func NewYTDLP(opts ...YTDLPOption) *YTDLP {
	y := &YTDLP{
		binary: "yt-dlp",
		log:    slog.Default().With("component", "catalog"),
		run:    runCommand,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// baseArgs are shared by every invocation. Player clients are broadened
// because some videos only expose usable audio manifests to mobile
// clients.
func (y *YTDLP) baseArgs() []string {
	args := []string{
		"--no-warnings",
		"--no-playlist",
		"--retries", "5",
		"--fragment-retries", "5",
		"--extractor-retries", "5",
		"--socket-timeout", "15",
		"--geo-bypass",
		"--no-check-certificates",
		"--extractor-args", "youtube:player_client=android,ios,web",
	}
	if file := y.cookies.File(); file != "" {
		args = append(args, "--cookies", file)
	}
	return args
}

func (y *YTDLP) Info(ctx context.Context, target string) (*Entry, error) {
	args := append(y.baseArgs(), "-J", target)

	stdout, stderr, err := y.run(ctx, y.binary, args...)
	if err != nil {
		return nil, commandError("extract info", stderr, err)
	}

	entry, err := decodeEntry(stdout)
	if err != nil {
		return nil, fmt.Errorf("extract info: %w", err)
	}
	return flattenSearchResult(entry)
}

func (y *YTDLP) Search(ctx context.Context, query string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	target := "ytsearch" + strconv.Itoa(limit) + ":" + query
	args := append(y.baseArgs(), "-J", target)

	stdout, stderr, err := y.run(ctx, y.binary, args...)
	if err != nil {
		return nil, commandError("search", stderr, err)
	}

	entry, err := decodeEntry(stdout)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(entry.Entries) == 0 {
		return nil, ErrNoMatch
	}
	return entry.Entries, nil
}

func (y *YTDLP) Download(ctx context.Context, target string, opts DownloadOptions) (*Entry, error) {
	selector := opts.Selector
	if selector == "" {
		// yt-dlp's default bestvideo+bestaudio selection wastes the
		// video stream for audio workflows.
		selector = "bestaudio/best"
	}

	args := append(y.baseArgs(),
		"--no-progress",
		"--print-json",
		"-f", selector,
		"-o", filepath.Join(opts.Workdir, "%(id)s.%(ext)s"),
	)
	switch opts.OutputFormat {
	case media.FormatMP3:
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", "0")
	case media.FormatOpus:
		args = append(args, "-x", "--audio-format", "opus", "--audio-quality", "0")
	}
	args = append(args, target)

	stdout, stderr, err := y.run(ctx, y.binary, args...)
	if err != nil {
		if bytes.Contains(stderr, []byte("Requested format is not available")) {
			return nil, fmt.Errorf("%w: %s", ErrFormatUnavailable, target)
		}
		return nil, commandError("download", stderr, err)
	}

	// --print-json emits one info line per downloaded item; the first is
	// enough for file location. A decode failure is tolerated because the
	// file may still be locatable by directory scan.
	entry := firstJSONLine(stdout)
	if entry == nil {
		y.log.Debug("download produced no parsable info line", "target", target)
		entry = &Entry{}
	}
	return entry, nil
}

func commandError(op string, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return fmt.Errorf("%s: %w: %s", op, err, msg)
}

func decodeEntry(stdout []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(stdout, &entry); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return &entry, nil
}

// flattenSearchResult unwraps playlist-shaped results (ytsearch targets)
// to their first child.
func flattenSearchResult(entry *Entry) (*Entry, error) {
	if entry.Type != "playlist" && len(entry.Entries) == 0 {
		return entry, nil
	}
	if len(entry.Entries) == 0 {
		return nil, ErrNoMatch
	}
	return entry.Entries[0], nil
}

func firstJSONLine(stdout []byte) *Entry {
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err == nil {
			return &entry
		}
	}
	return nil
}
