// Package mailer delivers personalized email messages.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

var (
	// ErrInvalidMessage is returned when message or campaign lacks required
	// parts.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrMissingSMTP is returned when SMTP settings are incomplete.
	ErrMissingSMTP = errors.New("missing SMTP settings")
)

// Sender delivers single message and returns its message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Message is a single outgoing email. Text is optional plain text
// alternative of HTML.
type Message struct {
	FromName    string
	From        string
	ToName      string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Validate checks that message could be sent.
func (m *Message) Validate() error {
	var missing []string
	if strings.TrimSpace(m.From) == "" {
		missing = append(missing, "from")
	}
	if strings.TrimSpace(m.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(m.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(m.HTML) == "" {
		missing = append(missing, "html")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidMessage, strings.Join(missing, ", "))
	}
	for _, addr := range []string{m.From, m.To} {
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("%w: bad address %q: %v", ErrInvalidMessage, addr, err)
		}
	}
	return nil
}

// domain returns domain part of sender address, used for message ids.
func (m *Message) domain() string {
	if i := strings.LastIndexByte(m.From, '@'); i >= 0 && i < len(m.From)-1 {
		return strings.TrimRight(m.From[i+1:], ">")
	}
	return "localhost"
}

// Attachment is a file sent with every message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewAttachment detects content type of data, unknown data is sent as
// application/octet-stream.
func NewAttachment(name string, data []byte) Attachment {
	a := Attachment{Name: name, ContentType: "application/octet-stream", Data: data}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		a.ContentType = kind.MIME.Value
	}
	return a
}

// LoadAttachment reads attachment from file.
func LoadAttachment(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("unable to read attachment: %w", err)
	}
	return NewAttachment(filepath.Base(path), data), nil
}
