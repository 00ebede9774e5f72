package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTemplates(t *testing.T) {
	s := openTestStore(t)

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first, err := s.SaveTemplate(Template{Name: "Spring Sale", Subject: "Hi {{name}}", HTML: "<p>a</p>", CSS: "p{}"})
	if err != nil {
		t.Fatalf("SaveTemplate() error = %v", err)
	}
	if first.Slug != "spring-sale" || first.ID == "" || !first.Created.Equal(clock) {
		t.Errorf("SaveTemplate() = %+v", first)
	}

	clock = clock.Add(time.Hour)
	second, err := s.SaveTemplate(Template{Name: "Spring Sale", HTML: "<p>b</p>"})
	if err != nil {
		t.Fatalf("SaveTemplate() update error = %v", err)
	}
	if second.ID != first.ID || !second.Created.Equal(first.Created) || !second.Updated.Equal(clock) {
		t.Errorf("update must keep identity: %+v vs %+v", second, first)
	}
	if second.HTML != "<p>b</p>" || second.Subject != "" {
		t.Errorf("update did not replace content: %+v", second)
	}

	for _, name := range []string{"Issue 10", "Issue 9", "Alpha"} {
		if _, err := s.SaveTemplate(Template{Name: name}); err != nil {
			t.Fatalf("SaveTemplate(%s) error = %v", name, err)
		}
	}
	list, err := s.Templates()
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	var names []string
	for _, tmpl := range list {
		names = append(names, tmpl.Name)
	}
	if got := strings.Join(names, ","); got != "Alpha,Issue 9,Issue 10,Spring Sale" {
		t.Errorf("Templates() order = %s", got)
	}

	got, err := s.Template("issue-9")
	if err != nil || got.Name != "Issue 9" {
		t.Errorf("Template(issue-9) = %+v, %v", got, err)
	}

	if err := s.DeleteTemplate("issue-9"); err != nil {
		t.Errorf("DeleteTemplate() error = %v", err)
	}
	if _, err := s.Template("issue-9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Template() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTemplate("issue-9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTemplate() twice error = %v, want ErrNotFound", err)
	}
}

func TestSaveTemplate_Invalid(t *testing.T) {
	s := openTestStore(t)

	for _, tmpl := range []Template{{Name: "  "}, {Name: "x", Slug: "Not A Slug"}} {
		if _, err := s.SaveTemplate(tmpl); err == nil {
			t.Errorf("SaveTemplate(%+v) expected error", tmpl)
		}
	}
}

func TestRecipients(t *testing.T) {
	s := openTestStore(t)

	n, err := s.AddRecipients([]Recipient{
		{Email: "Ann <ANN@example.com>"},
		{Email: "bob@example.com", Name: "Bob", SiteURL: "https://bob.example.com"},
	})
	if err != nil || n != 2 {
		t.Fatalf("AddRecipients() = %d, %v", n, err)
	}
	// update existing
	if _, err := s.AddRecipients([]Recipient{{Email: "ann@example.com", Name: "Anna"}}); err != nil {
		t.Fatalf("AddRecipients() update error = %v", err)
	}
	if _, err := s.AddRecipients([]Recipient{{Email: "ok@example.com"}, {Email: "broken"}}); err == nil {
		t.Error("AddRecipients() expected error for bad address")
	}

	list, err := s.Recipients()
	if err != nil {
		t.Fatalf("Recipients() error = %v", err)
	}
	want := []Recipient{
		{Email: "ann@example.com", Name: "Anna"},
		{Email: "bob@example.com", Name: "Bob", SiteURL: "https://bob.example.com"},
	}
	if len(list) != len(want) {
		t.Fatalf("Recipients() = %+v, want %+v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("Recipients()[%d] = %+v, want %+v", i, list[i], want[i])
		}
	}

	if err := s.RemoveRecipient("BOB@example.com"); err != nil {
		t.Errorf("RemoveRecipient() error = %v", err)
	}
	if err := s.RemoveRecipient("bob@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveRecipient() twice error = %v, want ErrNotFound", err)
	}
}

func TestReadRecipients(t *testing.T) {
	list, err := ReadRecipients(strings.NewReader(`
- email: Ann@Example.com
  name: Ann
- email: "Bob <bob@example.com>"
  unsubscribe: https://example.com/u/bob
`))
	if err != nil {
		t.Fatalf("ReadRecipients() error = %v", err)
	}
	if len(list) != 2 || list[0].Email != "ann@example.com" || list[1].Name != "Bob" || list[1].Unsubscribe == "" {
		t.Errorf("ReadRecipients() = %+v", list)
	}

	if list, err := ReadRecipients(strings.NewReader("")); err != nil || len(list) != 0 {
		t.Errorf("ReadRecipients(empty) = %+v, %v", list, err)
	}

	for _, bad := range []string{"- email: nope", "- mail: a@b.c", "email: a@b.c"} {
		if _, err := ReadRecipients(strings.NewReader(bad)); err == nil {
			t.Errorf("ReadRecipients(%q) expected error", bad)
		}
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.SaveTemplate(Template{Name: "x"}); err != nil {
		t.Errorf("SaveTemplate() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
