package inliner

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestGenerateEmailHTML(t *testing.T) {
	page := GenerateEmailHTML("<p>hi</p>", "")

	for _, tag := range []string{"<!DOCTYPE html>", "<head>", "<body"} {
		if n := strings.Count(page, tag); n != 1 {
			t.Errorf("GenerateEmailHTML() contains %d %s, want 1", n, tag)
		}
	}
	for _, want := range []string{
		`<meta charset="utf-8">`,
		`<meta name="viewport" content="width=device-width, initial-scale=1.0">`,
		`<body style="margin:0;padding:0;background:#0b0b0b;">`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("GenerateEmailHTML() missing %s", want)
		}
	}
	body := page[strings.Index(page, "<body"):strings.Index(page, "</body>")]
	if !strings.Contains(body, "<p>hi</p>") {
		t.Errorf("content is not inside body: %s", page)
	}
	if strings.Contains(page, "<title>") {
		t.Error("title must be omitted when not set")
	}
}

func TestGenerate_ShellOptions(t *testing.T) {
	log := zaptest.NewLogger(t)

	i := New(log, WithShell(ShellOptions{
		Format:     ShellHTML5,
		Background: "#ffffff",
		Title:      "News & views",
		Preheader:  "Don't miss <this>",
	}))
	page := i.Generate(`<p class="x">hi</p>`, `.x{color:red}`)
	for _, want := range []string{
		`background:#ffffff;`,
		`<title>News &amp; views</title>`,
		`Don&#39;t miss &lt;this&gt;</div>`,
		`<p style="color:red">hi</p>`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("Generate() missing %s in %s", want, page)
		}
	}
}

func TestGenerate_DerivedPreheader(t *testing.T) {
	i := New(zaptest.NewLogger(t), WithShell(ShellOptions{PreheaderLength: 30}))
	page := i.Generate(`<h1>Spring sale.</h1><p>Everything is half off today. Hurry.</p>`, "")
	if !strings.Contains(page, `mso-hide:all;">Spring sale.</div>`) {
		t.Errorf("Generate() preheader not derived: %s", page)
	}
	// empty background falls back to default one
	if !strings.Contains(page, "background:#0b0b0b;") {
		t.Errorf("Generate() default background missing: %s", page)
	}
}

func TestGenerate_XHTML(t *testing.T) {
	i := New(zaptest.NewLogger(t), WithShell(ShellOptions{Format: ShellXHTML}))
	page := i.Generate(`<p>a<br>b</p><img src="x.png">`, "p{margin:0}")
	for _, want := range []string{
		`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN"`,
		`<html xmlns="http://www.w3.org/1999/xhtml">`,
		`<p style="margin:0">a<br/>b</p>`,
		`<img src="x.png"/>`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("Generate() missing %s in %s", want, page)
		}
	}
}

func TestGenerate_CustomTemplate(t *testing.T) {
	log := zaptest.NewLogger(t)

	i := New(log, WithShell(ShellOptions{Template: `<html><body>{{ .Title | default "untitled" | upper }}|{{ .Content }}</body></html>`}))
	if page := i.Generate("<p>x</p>", ""); page != `<html><body>UNTITLED|<p>x</p></body></html>` {
		t.Errorf("Generate() = %s", page)
	}

	// broken template falls back to built-in shell
	i = New(log, WithShell(ShellOptions{Template: `{{ .Content `}))
	page := i.Generate("<p>x</p>", "")
	if !strings.HasPrefix(page, "<!DOCTYPE html>") || !strings.Contains(page, "<p>x</p>") {
		t.Errorf("Generate() fallback = %s", page)
	}
}
