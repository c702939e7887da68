// Package analysis talks to an OpenAI compatible chat completion API to interpret
// dreams, answer chat messages and classify mood.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/metrics"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var (
	// ErrUpstream is returned for every failure of the analysis service.
	ErrUpstream = errors.New("analysis service error")
	// ErrNotConfigured is returned when no API key is configured.
	ErrNotConfigured = fmt.Errorf("%w: no API key configured", ErrUpstream)
)

// Interpreter is the analysis collaborator used by the engine.
type Interpreter interface {
	InterpretDream(ctx context.Context, dreamText string) (*DreamInterpretation, error)
	Respond(ctx context.Context, history []Turn, message string) (string, error)
	AnalyzeMood(ctx context.Context, text string) (*Mood, error)
}

var _ Interpreter = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// Client is an Interpreter backed by a chat completion API.
type Client struct {
	httpClient *resty.Client
	model      string
	limiter    *rate.Limiter
	configured bool
}

// New creates a client. A missing API key is not an error here, every call then fails with ErrNotConfigured.
func New(cfg *config.AnalysisConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == 429 || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		httpClient: httpClient,
		model:      cfg.Model,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), max(1, perMinute/6)),
		configured: cfg.APIKey != "",
	}
}

// complete sends messages and returns the content of the first choice.
func (c *Client) complete(ctx context.Context, operation string, messages []chatMessage, jsonMode bool) (content string, err error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	start := time.Now()
	defer func() {
		metrics.ObserveAnalysisCall(operation, err, time.Since(start))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit: %w", ErrUpstream, err)
	}

	req := completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		log.Error("analysis request failed", "operation", operation, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	body := resp.Body()
	if resp.IsError() {
		msg := gjson.GetBytes(body, "error.message").String()
		log.Error("analysis service returned an error", "operation", operation, "status", resp.StatusCode(), "message", msg)
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode(), msg)
	}

	result := gjson.GetBytes(body, "choices.0.message.content")
	if !result.Exists() || result.String() == "" {
		log.Error("analysis response has no content", "operation", operation)
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	return result.String(), nil
}
