package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mailsmith/config"
)

func TestCheckSMTP(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SMTPConfig
		want string
	}{
		{"complete", config.SMTPConfig{Host: "smtp.example.com", User: "u", Password: "p"}, ""},
		{"nothing", config.SMTPConfig{}, "host, user, password"},
		{"no password", config.SMTPConfig{Host: "smtp.example.com", User: "u"}, "password"},
		{"blank host", config.SMTPConfig{Host: "  ", User: "u", Password: "p"}, "host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSMTP(&tt.cfg)
			if tt.want == "" {
				if err != nil {
					t.Errorf("CheckSMTP() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrMissingSMTP) || !strings.HasSuffix(err.Error(), tt.want) {
				t.Errorf("CheckSMTP() error = %v, want missing %q", err, tt.want)
			}
		})
	}
}

func TestNewSMTPSender(t *testing.T) {
	base := config.SMTPConfig{Host: " smtp.example.com ", User: " user ", Password: "secret", Timeout: time.Second}

	tests := []struct {
		name    string
		port    int
		secure  bool
		wantSSL bool
		want    int
	}{
		{"default port", 0, false, false, 587},
		{"submission", 587, false, false, 587},
		{"implicit tls port", 465, false, true, 465},
		{"secure flag", 2525, true, true, 2525},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Port, cfg.Secure = tt.port, tt.secure
			s, err := NewSMTPSender(&cfg, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("NewSMTPSender() error = %v", err)
			}
			d := s.dialer
			if d.SSL != tt.wantSSL || d.Port != tt.want || d.Host != "smtp.example.com" || d.Username != "user" || d.Password != "secret" {
				t.Errorf("dialer = %+v", d)
			}
			if d.TLSConfig.ServerName != "smtp.example.com" || d.Timeout != time.Second {
				t.Errorf("dialer TLS/timeout = %+v / %v", d.TLSConfig, d.Timeout)
			}
		})
	}

	if _, err := NewSMTPSender(&config.SMTPConfig{}, nil); !errors.Is(err, ErrMissingSMTP) {
		t.Errorf("NewSMTPSender() error = %v, want ErrMissingSMTP", err)
	}
}

func TestSMTPSender_Compose(t *testing.T) {
	s, err := NewSMTPSender(&config.SMTPConfig{Host: "smtp.example.com", User: "u", Password: "p"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	msg := Message{
		FromName: "Newsletter", From: "news@example.com",
		ToName: "Ann", To: "ann@example.com",
		Subject: "Spring sale", HTML: "<p>Hello</p>", Text: "Hello",
		Attachments: []Attachment{{Name: "terms.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}},
	}
	buf := new(strings.Builder)
	if _, err := s.compose(msg, "<id@example.com>").WriteTo(buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	got := buf.String()
	for _, want := range []string{
		`From: "Newsletter" <news@example.com>`,
		`To: "Ann" <ann@example.com>`,
		"Subject: Spring sale",
		"Message-ID: <id@example.com>",
		"Date: Fri, 01 May 2026 12:00:00 +0000",
		"multipart/alternative",
		"text/plain",
		"text/html",
		"application/pdf",
		`filename="terms.pdf"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("composed message does not contain %q:\n%s", want, got)
		}
	}
}

func TestSMTPSender_Cancelled(t *testing.T) {
	s, _ := NewSMTPSender(&config.SMTPConfig{Host: "smtp.example.com", User: "u", Password: "p"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Send(ctx, Message{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
	if err := s.Verify(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Verify() error = %v, want context.Canceled", err)
	}
	if _, err := s.Send(context.Background(), Message{To: "x@example.com"}); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Send() error = %v, want ErrInvalidMessage", err)
	}
}
