package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"

	"mailsmith/config"
)

// port on which servers expect implicit TLS
const smtpsPort = 465

// SMTPSender sends messages through SMTP server. It dials for every message.
type SMTPSender struct {
	dialer *gomail.Dialer
	log    *zap.Logger
	now    func() time.Time
}

// CheckSMTP reports which of the required SMTP settings are missing.
func CheckSMTP(cfg *config.SMTPConfig) error {
	var missing []string
	if strings.TrimSpace(cfg.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(cfg.User) == "" {
		missing = append(missing, "user")
	}
	if cfg.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSMTP, strings.Join(missing, ", "))
	}
	return nil
}

// NewSMTPSender creates sender for configured server, required settings are
// checked with CheckSMTP.
func NewSMTPSender(cfg *config.SMTPConfig, log *zap.Logger) (*SMTPSender, error) {
	if err := CheckSMTP(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}
	host := strings.TrimSpace(cfg.Host)

	d := gomail.NewDialer(host, port, strings.TrimSpace(cfg.User), string(cfg.Password))
	d.SSL = cfg.Secure || port == smtpsPort
	d.Timeout = cfg.Timeout
	d.TLSConfig = &tls.Config{ServerName: host, InsecureSkipVerify: cfg.InsecureSkipVerify}
	if !d.SSL {
		d.StartTLSPolicy = gomail.OpportunisticStartTLS
	}

	return &SMTPSender{
		dialer: d,
		log:    log.Named("mailer").With(zap.String("host", host), zap.Int("port", port), zap.Bool("ssl", d.SSL)),
		now:    time.Now,
	}, nil
}

// Verify connects and authenticates without sending anything.
func (s *SMTPSender) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := s.dialer.Dial()
	if err != nil {
		return fmt.Errorf("unable to connect to SMTP server: %w", err)
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("unable to close SMTP connection: %w", err)
	}
	s.log.Debug("SMTP connection verified")
	return nil
}

// Send delivers message and returns its generated Message-ID.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), msg.domain())
	if err := s.dialer.DialAndSend(s.compose(msg, id)); err != nil {
		return "", fmt.Errorf("unable to send message to %s: %w", msg.To, err)
	}
	s.log.Debug("Message sent", zap.String("to", msg.To), zap.String("id", id))
	return id, nil
}

func (s *SMTPSender) compose(msg Message, id string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.From, msg.FromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetDateHeader("Date", s.now())

	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}
	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Name,
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}))
	}
	return m
}
