package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mailsmith/inliner"
	"mailsmith/store"
	"mailsmith/text"
)

// Campaign sends the same template to a list of recipients replacing
// {{name}}, {{email}}, {{site_url}} and {{unsubscribe}} for each of them.
// Delay is a pause between two consecutive messages.
type Campaign struct {
	FromName    string
	From        string
	Subject     string
	HTML        string
	Domain      string
	Delay       time.Duration
	TextPart    bool
	Attachments []Attachment
}

// Result is an outcome of sending to a single recipient.
type Result struct {
	Email     string `yaml:"email"`
	Success   bool   `yaml:"success"`
	Error     string `yaml:"error,omitempty"`
	MessageID string `yaml:"message_id,omitempty"`
}

// Summary is an outcome of the whole campaign.
type Summary struct {
	Total      int      `yaml:"total"`
	Successful int      `yaml:"successful"`
	Failed     int      `yaml:"failed"`
	Results    []Result `yaml:"results"`
}

// Variables returns values available to template for recipient. Site domain,
// when set, takes precedence over recipient unsubscribe link.
func Variables(r store.Recipient, domain string) map[string]string {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")

	siteURL := r.SiteURL
	if siteURL == "" {
		siteURL = domain
	}
	if siteURL == "" {
		siteURL = "#"
	}

	unsubscribe := r.Unsubscribe
	if domain != "" {
		unsubscribe = domain + "/unsubscribe?email=" + url.QueryEscape(r.Email)
	}
	if unsubscribe == "" {
		unsubscribe = "#"
	}

	return map[string]string{
		"name":        r.Name,
		"email":       r.Email,
		"site_url":    siteURL,
		"unsubscribe": unsubscribe,
	}
}

// Validate checks campaign before anything is sent.
func (c *Campaign) Validate(recipients []store.Recipient) error {
	var missing []string
	if strings.TrimSpace(c.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(c.HTML) == "" {
		missing = append(missing, "html")
	}
	if len(recipients) == 0 {
		missing = append(missing, "recipients")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidMessage, strings.Join(missing, ", "))
	}
	return nil
}

// Message returns personalized message for recipient.
func (c *Campaign) Message(r store.Recipient) Message {
	vars := Variables(r, c.Domain)
	msg := Message{
		FromName:    c.FromName,
		From:        c.From,
		ToName:      r.Name,
		To:          r.Email,
		Subject:     inliner.ReplaceVariables(c.Subject, vars),
		HTML:        inliner.ReplaceVariables(c.HTML, vars),
		Attachments: c.Attachments,
	}
	if c.TextPart {
		msg.Text = text.FromHTML(msg.HTML)
	}
	return msg
}

// Run sends campaign one message at a time. Failure to deliver to one
// recipient does not stop the rest, all failures are combined in returned
// error. Cancelling context stops sending, recipients not reached are not
// part of the summary.
func (c *Campaign) Run(ctx context.Context, sender Sender, recipients []store.Recipient, log *zap.Logger) (Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := c.Validate(recipients); err != nil {
		return Summary{}, err
	}

	var (
		sum  = Summary{Total: len(recipients)}
		errs error
	)
	for i, r := range recipients {
		if i > 0 && c.Delay > 0 {
			t := time.NewTimer(c.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return sum, multierr.Append(errs, ctx.Err())
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return sum, multierr.Append(errs, err)
		}

		res := Result{Email: r.Email}
		id, err := sender.Send(ctx, c.Message(r))
		if err != nil {
			res.Error = err.Error()
			sum.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Email, err))
			log.Warn("Unable to send message", zap.String("to", r.Email), zap.Error(err))
		} else {
			res.Success, res.MessageID = true, id
			sum.Successful++
			log.Info("Message sent", zap.String("to", r.Email), zap.String("id", id))
		}
		sum.Results = append(sum.Results, res)
	}
	return sum, errs
}
