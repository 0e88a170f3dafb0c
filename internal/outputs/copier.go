package outputs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"overdub/internal/config"
	"overdub/internal/fileutil"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/services"
)

const downloadTimeout = 10 * time.Minute

// Result lists where each artifact landed in the library.
type Result struct {
	VideoPath          string
	SourceSubtitlePath string
	TargetSubtitlePath string
}

// Copier downloads iteration artifacts into the library directory.
type Copier struct {
	libraryDir string
	http       *http.Client
	logger     *slog.Logger
}

// Option customizes a Copier.
type Option func(*Copier)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Copier) {
		if client != nil {
			c.http = client
		}
	}
}

// NewCopier constructs a Copier rooted at the configured library directory.
func NewCopier(cfg *config.Config, logger *slog.Logger, opts ...Option) *Copier {
	if logger == nil {
		logger = logging.NewNop()
	}
	copier := &Copier{
		libraryDir: cfg.Paths.LibraryDir,
		http:       &http.Client{Timeout: downloadTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(copier)
	}
	return copier
}

// Copy fetches the job's video and subtitle artifacts into a per-job library
// folder. All three artifacts must land for the copy to count as successful;
// a partial copy is removed so the job falls back to external URLs cleanly.
func (c *Copier) Copy(ctx context.Context, job *jobs.Job) (Result, error) {
	if job == nil {
		return Result{}, services.Wrap(services.ErrValidation, "outputs", "copy", "Job is nil", nil)
	}
	if strings.TrimSpace(job.OutputVideoURL) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "outputs", "copy", "Job has no output video URL", nil)
	}

	jobDir := filepath.Join(c.libraryDir, job.JobKey)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return Result{}, services.Wrap(nil, "outputs", "copy", "Creating library folder failed", err)
	}

	var result Result
	artifacts := []struct {
		source string
		dest   *string
		name   string
	}{
		{job.OutputVideoURL, &result.VideoPath, "video"},
		{job.SourceSubtitleURL, &result.SourceSubtitlePath, "source subtitles"},
		{job.TargetSubtitleURL, &result.TargetSubtitlePath, "target subtitles"},
	}

	for _, artifact := range artifacts {
		if strings.TrimSpace(artifact.source) == "" {
			continue
		}
		dest := filepath.Join(jobDir, artifactFileName(artifact.source, artifact.name))
		if err := c.fetchArtifact(ctx, artifact.source, dest); err != nil {
			c.logger.Warn("artifact copy failed",
				logging.String("artifact", artifact.name),
				logging.String("source", artifact.source),
				logging.Error(err),
			)
			c.cleanup(jobDir)
			return Result{}, fmt.Errorf("copy %s: %w", artifact.name, err)
		}
		*artifact.dest = dest
	}
	return result, nil
}

func (c *Copier) fetchArtifact(ctx context.Context, source, dest string) error {
	tmp := dest + ".partial"
	defer os.Remove(tmp)

	if !strings.Contains(source, "://") {
		if err := fileutil.CopyFileVerified(source, tmp); err != nil {
			return err
		}
		return os.Rename(tmp, dest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: status %d", resp.StatusCode)
	}

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("write artifact: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close artifact: %w", closeErr)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return fmt.Errorf("short download: got %d of %d bytes", written, resp.ContentLength)
	}
	return os.Rename(tmp, dest)
}

func (c *Copier) cleanup(jobDir string) {
	if err := os.RemoveAll(jobDir); err != nil {
		c.logger.Warn("partial library folder cleanup failed",
			logging.String("path", jobDir),
			logging.Error(err),
		)
	}
}

func artifactFileName(source, kind string) string {
	base := ""
	if parsed, err := url.Parse(source); err == nil {
		base = path.Base(parsed.Path)
	} else {
		base = filepath.Base(source)
	}
	if base == "" || base == "." || base == "/" {
		base = strings.ReplaceAll(kind, " ", "-")
	}
	return base
}
