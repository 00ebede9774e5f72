package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mailsmith/config"
)

const okAnswer = `{
  "model": "test-model",
  "choices": [{"message": {"role": "assistant", "content": "---HTML---\n<p>Hi {{name}}</p>\n---CSS---\np{margin:0}\n---END---"}}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 45}
}`

func newTestProvider(t *testing.T, url string, retries int) *OpenAI {
	t.Helper()
	p, err := NewOpenAI(&config.AIConfig{
		Endpoint:    url,
		Model:       "test-model",
		APIKey:      "sk-test",
		Timeout:     5 * time.Second,
		Retries:     retries,
		MaxTokens:   1000,
		Temperature: 0.7,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	p.retryDelay = time.Millisecond
	return p
}

func TestNewOpenAI_NoKey(t *testing.T) {
	_, err := NewOpenAI(&config.AIConfig{Endpoint: "http://localhost", Model: "m"}, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || req.MaxTokens != 1000 {
			t.Errorf("unexpected request %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okAnswer))
	}))
	defer srv.Close()

	res, err := newTestProvider(t, srv.URL, 0).Generate(context.Background(), Request{Prompt: "welcome", Mode: ModeCreate})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.HTML != "<p>Hi {{name}}</p>" || res.CSS != "p{margin:0}" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Model != "test-model" || res.Usage.InputTokens != 120 || res.Usage.OutputTokens != 45 {
		t.Errorf("unexpected metadata %+v", res)
	}
}

func TestOpenAI_RetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_, _ = w.Write([]byte(okAnswer))
	}))
	defer srv.Close()

	if _, err := newTestProvider(t, srv.URL, 2).Generate(context.Background(), Request{Prompt: "x", Mode: ModeCreate}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retries   int
		wantErr   error
		wantCalls int32
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, 2, ErrUnauthorized, 1},
		{"unavailable exhausted", http.StatusServiceUnavailable, ``, 2, ErrUnavailable, 3},
		{"rate limit no retries", http.StatusTooManyRequests, ``, 0, ErrRateLimit, 1},
		{"empty choices", http.StatusOK, `{"model":"m","choices":[]}`, 2, ErrEmptyResponse, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestProvider(t, srv.URL, tt.retries).Generate(context.Background(), Request{Prompt: "x", Mode: ModeCreate})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestOpenAI_InvalidRequest(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:0", 0)
	if _, err := p.Generate(context.Background(), Request{Mode: ModeCreate}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestOpenAI_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 5)
	p.retryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if _, err := p.Generate(ctx, Request{Prompt: "x", Mode: ModeCreate}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOpenAI_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"content":"`))
		chunk := bytes.Repeat([]byte("x"), 1<<20)
		for range maxResponseSize/len(chunk) + 1 {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
		_, _ = w.Write([]byte(`"}}]}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv.URL, 0).Generate(context.Background(), Request{Prompt: "x", Mode: ModeCreate})
	if err == nil || !strings.Contains(err.Error(), "unable to decode response") {
		t.Fatalf("expected decode error for truncated response, got %v", err)
	}
}
