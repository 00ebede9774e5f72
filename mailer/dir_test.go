package mailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	yaml "gopkg.in/yaml.v3"
)

func TestDirSender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	s := NewDirSender(dir, zaptest.NewLogger(t))
	s.now = func() time.Time { return time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC) }

	msg := Message{
		FromName: "News", From: "news@example.com",
		To: "ann@example.com", Subject: "Spring", HTML: "<p>Hi Ann</p>", Text: "Hi Ann",
		Attachments: []Attachment{{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("1234")}},
	}

	id, err := s.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !strings.HasSuffix(id, "@example.com>") {
		t.Errorf("Send() id = %q", id)
	}
	// second message at the same moment must not overwrite the first
	msg.Text = ""
	if _, err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	base := filepath.Join(dir, "2026_05_01_123000_0001_ann-at-example-com")
	if data, err := os.ReadFile(base + ".html"); err != nil || string(data) != msg.HTML {
		t.Errorf("html = %q, %v", data, err)
	}
	if data, err := os.ReadFile(base + ".txt"); err != nil || string(data) != "Hi Ann" {
		t.Errorf("text = %q, %v", data, err)
	}

	data, err := os.ReadFile(base + ".yaml")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	var info messageInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if info.ID != id || info.From != `"News" <news@example.com>` || info.To != "ann@example.com" ||
		len(info.Attachments) != 1 || info.Attachments[0].Size != 4 {
		t.Errorf("metadata = %+v", info)
	}

	second := filepath.Join(dir, "2026_05_01_123000_0002_ann-at-example-com")
	if _, err := os.Stat(second + ".html"); err != nil {
		t.Errorf("second message: %v", err)
	}
	if _, err := os.Stat(second + ".txt"); !os.IsNotExist(err) {
		t.Errorf("second message must not have text part, stat error = %v", err)
	}
}

func TestDirSender_Invalid(t *testing.T) {
	s := NewDirSender(t.TempDir(), nil)
	if _, err := s.Send(context.Background(), Message{To: "ann@example.com"}); err == nil {
		t.Error("Send() expected error for incomplete message")
	}
}
