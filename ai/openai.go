package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailsmith/config"
)

// OpenAI talks to chat completions endpoint.
type OpenAI struct {
	client      *http.Client
	endpoint    string
	model       string
	apiKey      config.SecretString
	retries     int
	maxTokens   int
	temperature float64
	// base delay for exponential backoff
	retryDelay time.Duration
	log        *zap.Logger
}

func NewOpenAI(cfg *config.AIConfig, log *zap.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is not configured", ErrUnauthorized)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenAI{
		client:      &http.Client{Timeout: cfg.Timeout},
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		retries:     cfg.Retries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		retryDelay:  time.Second,
		log:         log.Named("ai"),
	}, nil
}

// responses above this are truncated and fail to decode
const maxResponseSize = 8 << 20

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *OpenAI) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to marshal request: %w", err)
	}

	start := time.Now()
	resp, err := p.executeWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	res := &Result{
		Model: resp.Model,
		Usage: Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}
	res.HTML, res.CSS = ParseResponse(resp.Choices[0].Message.Content)
	p.log.Info("Template generated",
		zap.String("mode", string(req.Mode)), zap.String("model", res.Model), zap.Duration("elapsed", time.Since(start)),
		zap.Int("input_tokens", res.Usage.InputTokens), zap.Int("output_tokens", res.Usage.OutputTokens))
	return res, nil
}

// executeWithRetry sends request retrying transient failures with
// exponential backoff.
func (p *OpenAI) executeWithRetry(ctx context.Context, body []byte) (*chatResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(1<<(attempt-1))
			p.log.Info("Retrying AI request", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(lastErr))
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			}
		}

		resp, err := p.executeRequest(ctx, body)
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (p *OpenAI) executeRequest(ctx context.Context, body []byte) (*chatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+string(p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// network errors are typically transient
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, data)
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}
	return &out, nil
}

func mapHTTPError(status int, body []byte) error {
	var e apiErrorResponse
	_ = json.Unmarshal(body, &e)
	msg := e.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case http.StatusRequestTimeout, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	return fmt.Errorf("ai request failed (status %d): %s", status, msg)
}
