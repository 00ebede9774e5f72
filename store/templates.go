package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Template is a stored email template.
type Template struct {
	ID      string
	Slug    string
	Name    string
	Subject string
	HTML    string
	CSS     string
	Created time.Time
	Updated time.Time
}

const templateColumns = `id, slug, name, subject, html, css, created, updated`

func scanTemplate(stmt *sqlite.Stmt) Template {
	return Template{
		ID:      stmt.ColumnText(0),
		Slug:    stmt.ColumnText(1),
		Name:    stmt.ColumnText(2),
		Subject: stmt.ColumnText(3),
		HTML:    stmt.ColumnText(4),
		CSS:     stmt.ColumnText(5),
		Created: toTime(stmt.ColumnInt64(6)),
		Updated: toTime(stmt.ColumnInt64(7)),
	}
}

// SaveTemplate inserts template or replaces content of the template with the
// same slug. When slug is empty it is derived from name. Saved template is
// returned.
func (s *Store) SaveTemplate(t Template) (saved Template, err error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Template{}, fmt.Errorf("template name is required")
	}
	if t.Slug == "" {
		t.Slug = slug.Make(t.Name)
	}
	if !slug.IsSlug(t.Slug) {
		return Template{}, fmt.Errorf("unable to derive template slug from %q", t.Name)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Template{}, fmt.Errorf("unable to generate template id: %w", err)
	}
	now := s.now().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	defer sqlitex.Save(s.conn)(&err)

	err = sqlitex.Execute(s.conn, `
INSERT INTO templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
	name = excluded.name, subject = excluded.subject, html = excluded.html,
	css = excluded.css, updated = excluded.updated`,
		&sqlitex.ExecOptions{Args: []any{id.String(), t.Slug, t.Name, t.Subject, t.HTML, t.CSS, now, now}})
	if err != nil {
		return Template{}, fmt.Errorf("unable to save template %s: %w", t.Slug, err)
	}
	saved, err = s.template(t.Slug)
	if err != nil {
		return Template{}, err
	}
	s.log.Debug("Template saved", zap.String("slug", saved.Slug), zap.String("id", saved.ID))
	return saved, nil
}

// Template returns template by slug.
func (s *Store) Template(slug string) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template(slug)
}

func (s *Store) template(slug string) (Template, error) {
	var (
		t     Template
		found bool
	)
	err := sqlitex.Execute(s.conn, `SELECT `+templateColumns+` FROM templates WHERE slug = ?`,
		&sqlitex.ExecOptions{
			Args: []any{slug},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				t, found = scanTemplate(stmt), true
				return nil
			}})
	if err != nil {
		return Template{}, fmt.Errorf("unable to read template %s: %w", slug, err)
	}
	if !found {
		return Template{}, fmt.Errorf("template %s: %w", slug, ErrNotFound)
	}
	return t, nil
}

// Templates returns all templates ordered by name, numbers in names are
// compared by value ("Issue 9" goes before "Issue 10").
func (s *Store) Templates() ([]Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Template
	err := sqlitex.Execute(s.conn, `SELECT `+templateColumns+` FROM templates`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			list = append(list, scanTemplate(stmt))
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("unable to list templates: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return natural.Less(list[i].Name, list[j].Name)
	})
	return list, nil
}

// DeleteTemplate removes template by slug.
func (s *Store) DeleteTemplate(slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sqlitex.Execute(s.conn, `DELETE FROM templates WHERE slug = ?`,
		&sqlitex.ExecOptions{Args: []any{slug}}); err != nil {
		return fmt.Errorf("unable to delete template %s: %w", slug, err)
	}
	if s.conn.Changes() == 0 {
		return fmt.Errorf("template %s: %w", slug, ErrNotFound)
	}
	return nil
}
