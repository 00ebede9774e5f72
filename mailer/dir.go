package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// DirSender saves messages into directory instead of sending them: html body,
// plain text alternative (if any) and YAML file with the rest of the message.
type DirSender struct {
	dir string
	seq atomic.Int64
	log *zap.Logger
	now func() time.Time
}

func NewDirSender(dir string, log *zap.Logger) *DirSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirSender{dir: dir, log: log.Named("mailer"), now: time.Now}
}

type attachmentInfo struct {
	Name        string `yaml:"name"`
	ContentType string `yaml:"content_type"`
	Size        int    `yaml:"size"`
}

type messageInfo struct {
	ID          string           `yaml:"id"`
	Timestamp   string           `yaml:"timestamp"`
	From        string           `yaml:"from"`
	To          string           `yaml:"to"`
	Subject     string           `yaml:"subject"`
	Attachments []attachmentInfo `yaml:"attachments,omitempty"`
}

func (d *DirSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("unable to create directory: %w", err)
	}

	now := d.now()
	base := filepath.Join(d.dir, fmt.Sprintf("%s_%04d_%s", now.Format("2006_01_02_150405"), d.seq.Add(1), slug.Make(msg.To)))
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), msg.domain())

	info := messageInfo{
		ID:        id,
		Timestamp: now.Format(time.RFC3339),
		From:      formatAddress(msg.From, msg.FromName),
		To:        formatAddress(msg.To, msg.ToName),
		Subject:   msg.Subject,
	}
	for _, a := range msg.Attachments {
		info.Attachments = append(info.Attachments, attachmentInfo{Name: a.Name, ContentType: a.ContentType, Size: len(a.Data)})
	}
	meta, err := yaml.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("unable to marshal message info: %w", err)
	}

	files := map[string][]byte{".html": []byte(msg.HTML), ".yaml": meta}
	if msg.Text != "" {
		files[".txt"] = []byte(msg.Text)
	}
	for ext, data := range files {
		if err := os.WriteFile(base+ext, data, 0644); err != nil {
			return "", fmt.Errorf("unable to write message: %w", err)
		}
	}
	d.log.Debug("Message saved", zap.String("to", msg.To), zap.String("file", base+".html"))
	return id, nil
}

func formatAddress(addr, name string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%q <%s>", name, addr)
}
