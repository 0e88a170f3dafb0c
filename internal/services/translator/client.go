package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"overdub/internal/config"
	"overdub/internal/services"
)

const (
	defaultTimeout = 2 * time.Minute
	headerAPIKey   = "Authorization"
)

// Client is the surface the workflow needs from the translation service.
type Client interface {
	CreateTranslation(ctx context.Context, req TranslationRequest) (Translation, error)
	TranslationStatus(ctx context.Context, translationID string) (TranslationState, error)
	CreateIteration(ctx context.Context, req IterationRequest) (Iteration, error)
	IterationStatus(ctx context.Context, translationID, iterationID string) (IterationState, error)
}

// TranslationRequest carries the parameters for a new translation resource.
// ExternalID is deterministic per job so retried submissions deduplicate
// server-side.
type TranslationRequest struct {
	ExternalID   string `json:"external_id"`
	SourceLocale string `json:"source_locale"`
	TargetLocale string `json:"target_locale"`
	MediaURL     string `json:"media_url,omitempty"`
	MediaPath    string `json:"media_path,omitempty"`
	VoiceMode    string `json:"voice_mode,omitempty"`
	SpeakerCount int    `json:"speaker_count,omitempty"`
}

// Translation is the service's record of an accepted translation request.
type Translation struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// TranslationState reports where a translation is in its own lifecycle.
type TranslationState struct {
	Status    string `json:"status"`
	Terminal  bool   `json:"terminal"`
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message,omitempty"`
}

// IterationRequest carries the parameters for a new iteration of a
// translation. ExternalID is deterministic per job and iteration number.
type IterationRequest struct {
	TranslationID string `json:"-"`
	ExternalID    string `json:"external_id"`
	Number        int    `json:"number"`
}

// Iteration is the service's record of an accepted iteration request.
type Iteration struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// IterationOutputs lists the artifact URLs a finished iteration produced.
type IterationOutputs struct {
	VideoURL          string `json:"video_url"`
	SourceSubtitleURL string `json:"source_subtitle_url"`
	TargetSubtitleURL string `json:"target_subtitle_url"`
}

// IterationState reports where an iteration is in its lifecycle, including
// output artifact locations once it succeeds.
type IterationState struct {
	Status    string           `json:"status"`
	Terminal  bool             `json:"terminal"`
	Succeeded bool             `json:"succeeded"`
	Message   string           `json:"message,omitempty"`
	Outputs   IterationOutputs `json:"outputs"`
}

// HTTPClient talks to the translation service's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.http = client
		}
	}
}

// NewClient constructs a translator client from configuration.
func NewClient(cfg *config.Config, opts ...Option) *HTTPClient {
	timeout := defaultTimeout
	if cfg.Translator.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Translator.TimeoutSeconds) * time.Second
	}
	client := &HTTPClient{
		baseURL: strings.TrimRight(cfg.Translator.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.Translator.APIKey),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// CreateTranslation registers a new translation resource with the service.
func (c *HTTPClient) CreateTranslation(ctx context.Context, req TranslationRequest) (Translation, error) {
	var created Translation
	if strings.TrimSpace(req.ExternalID) == "" {
		return created, services.Wrap(services.ErrValidation, "translator", "create translation", "External id is required", nil)
	}
	err := c.do(ctx, http.MethodPost, "/v1/translations", req, &created, "create translation")
	if err != nil {
		return Translation{}, err
	}
	if created.ID == "" {
		return Translation{}, services.Wrap(services.ErrExternal, "translator", "create translation", "Service accepted the request but returned no id", nil)
	}
	return created, nil
}

// TranslationStatus fetches the current state of a translation.
func (c *HTTPClient) TranslationStatus(ctx context.Context, translationID string) (TranslationState, error) {
	var state TranslationState
	path := "/v1/translations/" + strings.TrimSpace(translationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &state, "translation status"); err != nil {
		return TranslationState{}, err
	}
	return state, nil
}

// CreateIteration registers a new iteration under an existing translation.
func (c *HTTPClient) CreateIteration(ctx context.Context, req IterationRequest) (Iteration, error) {
	var created Iteration
	translationID := strings.TrimSpace(req.TranslationID)
	if translationID == "" {
		return created, services.Wrap(services.ErrValidation, "translator", "create iteration", "Translation id is required", nil)
	}
	if strings.TrimSpace(req.ExternalID) == "" {
		return created, services.Wrap(services.ErrValidation, "translator", "create iteration", "External id is required", nil)
	}
	path := "/v1/translations/" + translationID + "/iterations"
	if err := c.do(ctx, http.MethodPost, path, req, &created, "create iteration"); err != nil {
		return Iteration{}, err
	}
	if created.ID == "" {
		return Iteration{}, services.Wrap(services.ErrExternal, "translator", "create iteration", "Service accepted the request but returned no id", nil)
	}
	return created, nil
}

// IterationStatus fetches the current state of an iteration, including output
// artifact URLs once the iteration completed.
func (c *HTTPClient) IterationStatus(ctx context.Context, translationID, iterationID string) (IterationState, error) {
	var state IterationState
	path := "/v1/translations/" + strings.TrimSpace(translationID) + "/iterations/" + strings.TrimSpace(iterationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &state, "iteration status"); err != nil {
		return IterationState{}, err
	}
	return state, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return services.Wrap(services.ErrValidation, "translator", operation, "Encoding request failed", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translator", operation, "Building request failed", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "translator", operation, "Request cancelled or timed out", err)
		}
		return services.Wrap(services.ErrTransient, "translator", operation, "Translation service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "translator", operation, "Reading response failed", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return services.Wrap(services.ErrExternal, "translator", operation, "Decoding response failed", err)
		}
		return nil
	}

	message := serviceMessage(raw)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "translator", operation,
			fmt.Sprintf("Translation service returned status %d: %s", resp.StatusCode, message), nil)
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "translator", operation,
			fmt.Sprintf("Resource not found: %s", message), nil)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return services.Wrap(services.ErrValidation, "translator", operation,
			fmt.Sprintf("Translation service rejected the request: %s", message), nil)
	default:
		return services.Wrap(services.ErrExternal, "translator", operation,
			fmt.Sprintf("Translation service returned status %d: %s", resp.StatusCode, message), nil)
	}
}

func serviceMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	if trimmed == "" {
		return "no detail provided"
	}
	return trimmed
}
