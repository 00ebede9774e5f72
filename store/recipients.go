package store

import (
	"fmt"
	"io"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Recipient is a single campaign recipient. Optional SiteURL and Unsubscribe
// override values derived from site domain.
type Recipient struct {
	Email       string `yaml:"email"`
	Name        string `yaml:"name,omitempty"`
	SiteURL     string `yaml:"site_url,omitempty"`
	Unsubscribe string `yaml:"unsubscribe,omitempty"`
}

// Normalize validates email address and returns recipient with lower case
// bare address. Display name from address is used when Name is empty.
func (r Recipient) Normalize() (Recipient, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(r.Email))
	if err != nil {
		return Recipient{}, fmt.Errorf("bad recipient address %q: %w", r.Email, err)
	}
	r.Email = strings.ToLower(addr.Address)
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = addr.Name
	}
	r.SiteURL = strings.TrimSpace(r.SiteURL)
	r.Unsubscribe = strings.TrimSpace(r.Unsubscribe)
	return r, nil
}

// ReadRecipients decodes YAML list of recipients.
func ReadRecipients(r io.Reader) ([]Recipient, error) {
	var list []Recipient
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&list); err != nil && err != io.EOF {
		return nil, fmt.Errorf("unable to decode recipients: %w", err)
	}
	for i := range list {
		n, err := list[i].Normalize()
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i+1, err)
		}
		list[i] = n
	}
	return list, nil
}

// AddRecipients inserts recipients replacing details of already known ones.
// It returns number of stored recipients.
func (s *Store) AddRecipients(list []Recipient) (n int, err error) {
	normalized := make([]Recipient, 0, len(list))
	for _, r := range list {
		nr, err := r.Normalize()
		if err != nil {
			return 0, err
		}
		normalized = append(normalized, nr)
	}
	now := s.now().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	defer sqlitex.Save(s.conn)(&err)

	for _, r := range normalized {
		err = sqlitex.Execute(s.conn, `
INSERT INTO recipients (email, name, site_url, unsubscribe, added) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(email) DO UPDATE SET
	name = excluded.name, site_url = excluded.site_url, unsubscribe = excluded.unsubscribe`,
			&sqlitex.ExecOptions{Args: []any{r.Email, r.Name, r.SiteURL, r.Unsubscribe, now}})
		if err != nil {
			return 0, fmt.Errorf("unable to store recipient %s: %w", r.Email, err)
		}
		n++
	}
	s.log.Debug("Recipients stored", zap.Int("count", n))
	return n, nil
}

// Recipients returns all recipients ordered by email.
func (s *Store) Recipients() ([]Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Recipient
	err := sqlitex.Execute(s.conn, `SELECT email, name, site_url, unsubscribe FROM recipients ORDER BY email`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			list = append(list, Recipient{
				Email:       stmt.ColumnText(0),
				Name:        stmt.ColumnText(1),
				SiteURL:     stmt.ColumnText(2),
				Unsubscribe: stmt.ColumnText(3),
			})
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("unable to list recipients: %w", err)
	}
	return list, nil
}

// RemoveRecipient deletes recipient by email (case insensitive).
func (s *Store) RemoveRecipient(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sqlitex.Execute(s.conn, `DELETE FROM recipients WHERE email = ?`,
		&sqlitex.ExecOptions{Args: []any{email}}); err != nil {
		return fmt.Errorf("unable to remove recipient %s: %w", email, err)
	}
	if s.conn.Changes() == 0 {
		return fmt.Errorf("recipient %s: %w", email, ErrNotFound)
	}
	return nil
}
