// Package openrouter implements the AI client against the OpenRouter
// chat-completions API (OpenAI-compatible wire format).
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"log/slog"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/config"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

const provider = "openrouter"

// Client implements domain.AIClient using a single configured chat model.
// Every call is bounded by cfg.RequestTimeout, retries included; the deadline
// comes from the call context, not from the http.Client.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs an OpenRouter client with a traced transport.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

var _ domain.AIClient = (*Client)(nil)

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatJSON calls the chat-completions endpoint and returns the raw message
// content. Retryable conditions (429, 5xx, transport errors) are retried with
// exponential backoff until cfg.RequestTimeout runs out; other 4xx responses
// abort immediately. Errors are mapped onto the domain upstream sentinels so
// callers can decide what counts as a circuit breaker failure.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxReplyTokens
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	body := map[string]any{
		"model":           c.cfg.ChatModel,
		"temperature":     0.2,
		"max_tokens":      maxTokens,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	slog.Info("calling upstream chat model",
		slog.String("provider", provider),
		slog.String("model", c.cfg.ChatModel),
		slog.Int("max_tokens", maxTokens))

	// The deadline can fire while backoff is sleeping, in which case Retry
	// reports the context error instead of the attempt error. lastErr keeps
	// the real cause for classification.
	var (
		out     chatResponse
		lastErr error
	)
	op := func() error {
		start := time.Now()
		// Recreate the request each attempt; a consumed body cannot be reused.
		r, _ := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(b))
		c.setHeaders(r)

		resp, err := c.hc.Do(r)
		if err != nil {
			observability.ObserveAIRequest(provider, "chat", "transport_error", time.Since(start))
			lastErr = err
			return lastErr
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			observability.ObserveAIRequest(provider, "chat", "transport_error", time.Since(start))
			lastErr = err
			return lastErr
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			observability.ObserveAIRequest(provider, "chat", "rate_limited", time.Since(start))
			slog.Warn("upstream rate limited",
				slog.String("provider", provider),
				slog.Int("status", resp.StatusCode),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			lastErr = fmt.Errorf("%w: status 429", domain.ErrUpstreamRateLimit)
			return lastErr
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			observability.ObserveAIRequest(provider, "chat", "http_4xx", time.Since(start))
			slog.Warn("upstream 4xx",
				slog.String("provider", provider),
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.ChatModel),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
				slog.String("body", snippet(bodyBytes)))
			lastErr = fmt.Errorf("%w: chat status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
			return backoff.Permanent(lastErr)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			observability.ObserveAIRequest(provider, "chat", "http_5xx", time.Since(start))
			slog.Error("upstream non-2xx",
				slog.String("provider", provider),
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.ChatModel),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
				slog.String("body", snippet(bodyBytes)))
			lastErr = fmt.Errorf("%w: chat status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
			return lastErr
		}

		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			observability.ObserveAIRequest(provider, "chat", "decode_error", time.Since(start))
			slog.Error("upstream decode error", slog.String("provider", provider), slog.Any("error", err))
			lastErr = err
			return lastErr
		}
		observability.ObserveAIRequest(provider, "chat", "ok", time.Since(start))
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime, expo.InitialInterval, expo.MaxInterval, expo.Multiplier = c.cfg.GetAIBackoffConfig()

	if err := backoff.Retry(op, backoff.WithContext(expo, callCtx)); err != nil {
		if lastErr != nil {
			err = lastErr
		}
		err = c.classify(ctx, callCtx, err)
		slog.Error("upstream chat failed",
			slog.String("provider", provider),
			slog.String("model", c.cfg.ChatModel),
			slog.Any("error", err))
		return "", err
	}

	if out.Usage != nil {
		observability.ObserveTokenUsage(&domain.TokenUsage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		})
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		slog.Error("upstream returned no content", slog.String("provider", provider), slog.String("model", out.Model))
		return "", fmt.Errorf("%w: empty choices", domain.ErrSchemaInvalid)
	}

	if out.Model != "" && out.Model != c.cfg.ChatModel {
		slog.Warn("model substitution detected",
			slog.String("requested_model", c.cfg.ChatModel),
			slog.String("actual_model", out.Model))
	}

	slog.Info("upstream chat ok",
		slog.String("provider", provider),
		slog.String("model", c.cfg.ChatModel),
		slog.Int("content_length", len(out.Choices[0].Message.Content)))
	return out.Choices[0].Message.Content, nil
}

// Ping checks that the API is reachable and the key is accepted. Used by the
// readiness probe; not retried.
func (c *Client) Ping(ctx domain.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r, err := http.NewRequestWithContext(pingCtx, http.MethodGet, c.cfg.OpenRouterBaseURL+"/models", nil)
	if err != nil {
		return err
	}
	c.setHeaders(r)

	resp, err := c.hc.Do(r)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, &io.LimitedReader{R: resp.Body, N: 4096})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: models status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
	r.Header.Set("Content-Type", "application/json")
	// OpenRouter attribution headers; optional but recommended by the API docs.
	if c.cfg.OpenRouterReferer != "" {
		r.Header.Set("HTTP-Referer", c.cfg.OpenRouterReferer)
	}
	if c.cfg.OpenRouterTitle != "" {
		r.Header.Set("X-Title", c.cfg.OpenRouterTitle)
	}
}

// classify maps a retry-loop error onto the domain upstream sentinels. The
// parent context is consulted so a caller cancellation is not misreported as
// an upstream timeout.
func (c *Client) classify(parent, callCtx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUpstreamRateLimit),
		errors.Is(err, domain.ErrUpstreamUnavailable):
		return err
	case parent.Err() != nil:
		return parent.Err()
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: no reply within %s", domain.ErrUpstreamTimeout, c.cfg.RequestTimeout)
	default:
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
