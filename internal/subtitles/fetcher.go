package subtitles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"overdub/internal/services"
)

const (
	fetchTimeout = 2 * time.Minute
	// maxDocumentBytes bounds how much subtitle content is read from the
	// network regardless of what the remote service reports.
	maxDocumentBytes = 8 << 20
)

// Fetcher retrieves subtitle documents referenced by job artifacts.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher downloads subtitle documents over HTTP.
type HTTPFetcher struct {
	http *http.Client
}

// FetcherOption customizes an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.http = client
		}
	}
}

// NewHTTPFetcher constructs a fetcher with sane timeouts.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	fetcher := &HTTPFetcher{
		http: &http.Client{Timeout: fetchTimeout},
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads the subtitle document at the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", services.Wrap(services.ErrValidation, "subtitles", "fetch", "Subtitle URL is empty", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "subtitles", "fetch", "Invalid subtitle URL", err)
	}
	req.Header.Set("Accept", "text/plain, application/x-subrip, */*")

	resp, err := f.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "subtitles", "fetch", "Subtitle download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", services.Wrap(services.ErrTransient, "subtitles", "fetch",
			fmt.Sprintf("Subtitle server returned status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternal, "subtitles", "fetch",
			fmt.Sprintf("Subtitle download returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "subtitles", "fetch", "Reading subtitle body failed", err)
	}
	return string(body), nil
}
