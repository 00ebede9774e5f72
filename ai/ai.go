// Package ai generates and edits email templates with language model help.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Generator produces template from user request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Mode of generation request
type Mode string

const (
	ModeCreate Mode = "create" // new template from scratch
	ModeEdit   Mode = "edit"   // change supplied template
)

// Valid checks if the mode is known
func (m Mode) Valid() bool {
	switch m {
	case ModeCreate, ModeEdit:
		return true
	default:
		return false
	}
}

// Request describes what should be generated. CurrentHTML and CurrentCSS are
// used in edit mode only.
type Request struct {
	Prompt      string
	Mode        Mode
	CurrentHTML string
	CurrentCSS  string
}

func (r *Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, r.Mode)
	}
	if r.Mode == ModeEdit && strings.TrimSpace(r.CurrentHTML) == "" {
		return fmt.Errorf("%w: nothing to edit", ErrInvalidRequest)
	}
	return nil
}

// Result is generated template.
type Result struct {
	HTML  string
	CSS   string
	Model string
	Usage Usage
}

// Usage reports tokens spent by request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

var (
	ErrInvalidRequest = errors.New("invalid generation request")
	ErrRateLimit      = errors.New("ai provider rate limit exceeded")
	ErrUnavailable    = errors.New("ai service temporarily unavailable")
	ErrUnauthorized   = errors.New("ai provider authentication failed")
	ErrEmptyResponse  = errors.New("ai provider returned empty response")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}
