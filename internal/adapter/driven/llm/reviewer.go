// Package llm implements the Reviewer port against OpenAI-compatible chat
// completions endpoints (OpenAI and DeepSeek).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
	"github.com/ericfisherdev/dualreview/internal/domain/port/driven"
)

const (
	DefaultOpenAIURL     = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel   = "gpt-4o"
	DefaultDeepSeekURL   = "https://api.deepseek.com/v1/chat/completions"
	DefaultDeepSeekModel = "deepseek-coder"

	defaultMaxTokens  = 500
	defaultMaxRetries = 3
)

// Compile-time interface satisfaction check.
var _ driven.Reviewer = (*ChatReviewer)(nil)

// Options configures a ChatReviewer. Zero values select the provider defaults.
type Options struct {
	APIKey       string
	BaseURL      string // Full chat completions endpoint.
	Model        string
	MaxTokens    int
	MaxDiffBytes int // Zero disables truncation.
	Timeout      time.Duration
	MaxRetries   int
	HTTPClient   *http.Client
}

// ChatReviewer sends a diff to a chat completions API and returns the reply.
type ChatReviewer struct {
	provider     model.Provider
	apiKey       string
	baseURL      string
	model        string
	temperature  float64
	maxTokens    int
	maxDiffBytes int
	timeout      time.Duration
	maxRetries   uint64
	client       *http.Client

	newBackOff func() backoff.BackOff
}

// NewOpenAI creates a reviewer for OpenAI (gpt-4o, temperature 0.2 by default).
func NewOpenAI(opts Options) *ChatReviewer {
	return newChatReviewer(model.ProviderOpenAI, DefaultOpenAIURL, DefaultOpenAIModel, 0.2, opts)
}

// NewDeepSeek creates a reviewer for DeepSeek (deepseek-coder, temperature 0.3 by default).
func NewDeepSeek(opts Options) *ChatReviewer {
	return newChatReviewer(model.ProviderDeepSeek, DefaultDeepSeekURL, DefaultDeepSeekModel, 0.3, opts)
}

func newChatReviewer(p model.Provider, url, mdl string, temperature float64, opts Options) *ChatReviewer {
	r := &ChatReviewer{
		provider:     p,
		apiKey:       opts.APIKey,
		baseURL:      opts.BaseURL,
		model:        opts.Model,
		temperature:  temperature,
		maxTokens:    opts.MaxTokens,
		maxDiffBytes: opts.MaxDiffBytes,
		timeout:      opts.Timeout,
		maxRetries:   defaultMaxRetries,
		client:       opts.HTTPClient,
		newBackOff:   defaultBackOff,
	}
	if r.baseURL == "" {
		r.baseURL = url
	}
	if r.model == "" {
		r.model = mdl
	}
	if r.maxTokens <= 0 {
		r.maxTokens = defaultMaxTokens
	}
	if opts.MaxRetries > 0 {
		r.maxRetries = uint64(opts.MaxRetries)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: 120 * time.Second}
	}
	return r
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func (r *ChatReviewer) Provider() model.Provider { return r.provider }

// Review asks the provider for a review of req.Diff. Rate limits and 5xx
// responses are retried with exponential backoff; failures map to the
// driven sentinel errors.
func (r *ChatReviewer) Review(ctx context.Context, req model.ReviewRequest) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("%w: %s API key not set", driven.ErrReviewerAuth, r.provider)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	digest := digestDiff(req.Diff, r.maxDiffBytes)
	body := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req.Focus, req.Strictness, r.maxTokens)},
			{Role: "user", Content: userPrompt(digest)},
		},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var content string
	op := func() error {
		text, err := r.send(ctx, payload)
		if err != nil {
			return err
		}
		content = text
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("%s review: %w", r.provider, err)
	}

	return content, nil
}

// send performs one request. Errors that must not be retried are wrapped in
// backoff.Permanent.
func (r *ChatReviewer) send(ctx context.Context, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	httpResp, err := r.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", backoff.Permanent(ctxErr)
		}
		return "", fmt.Errorf("%w: %v", driven.ErrReviewerUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", driven.ErrReviewerUnavailable, err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return "", driven.ErrReviewerRateLimited
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return "", backoff.Permanent(fmt.Errorf("%w: %s", driven.ErrReviewerAuth, apiMessage(respBody)))
	case httpResp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", driven.ErrReviewerUnavailable, httpResp.StatusCode)
	case httpResp.StatusCode != http.StatusOK:
		return "", backoff.Permanent(fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, apiMessage(respBody)))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", backoff.Permanent(fmt.Errorf("parsing response: %w", err))
	}

	if len(result.Choices) == 0 {
		return "", backoff.Permanent(driven.ErrEmptyReview)
	}
	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", backoff.Permanent(driven.ErrEmptyReview)
	}

	return text, nil
}

// apiMessage extracts the provider's error message, falling back to the raw body.
func apiMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}
