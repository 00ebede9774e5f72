package convert

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestHTMLMatcher(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"doctype", []byte("<!DOCTYPE html><html></html>"), true},
		{"fragment", []byte("\n\t  <table></table>"), true},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "<p>x</p>"...), true},
		{"utf-16 bom", []byte{0xFF, 0xFE, '<', 0}, true},
		{"text", []byte("hello <b>world</b>"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlMatcher(tt.data); got != tt.want {
				t.Errorf("htmlMatcher() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasTemplateExt(t *testing.T) {
	for name, want := range map[string]bool{
		"a.html":           true,
		"A.HTM":            true,
		"dir/b.xhtml":      true,
		"a.email.html":     false,
		"a.EMAIL.HTML":     false,
		"a.txt":            false,
		"html":             false,
		"archive.html.zip": false,
	} {
		if got := hasTemplateExt(name); got != want {
			t.Errorf("hasTemplateExt(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsArchiveFile(t *testing.T) {
	dir := t.TempDir()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	fw, _ := w.Create("a.html")
	fw.Write([]byte("<p>x</p>"))
	w.Close()

	files := map[string][]byte{
		"real.zip":     buf.Bytes(),
		"fake.zip":     []byte("not a real zip file"),
		"real.bin":     buf.Bytes(),
		"template.zip": []byte("<html></html>"),
	}
	want := map[string]bool{"real.zip": true}

	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		got, err := isArchiveFile(path)
		if err != nil {
			t.Errorf("isArchiveFile(%s) error = %v", name, err)
		}
		if got != want[name] {
			t.Errorf("isArchiveFile(%s) = %v, want %v", name, got, want[name])
		}
	}

	if _, err := isArchiveFile(filepath.Join(dir, "missing.zip")); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestIsTemplateFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"good.html":       "<html></html>",
		"text.html":       "just text",
		"good.txt":        "<html></html>",
		"done.email.html": "<html></html>",
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		os.WriteFile(path, []byte(data), 0644)
		got, err := isTemplateFile(path)
		if err != nil {
			t.Errorf("isTemplateFile(%s) error = %v", name, err)
		}
		if want := name == "good.html"; got != want {
			t.Errorf("isTemplateFile(%s) = %v, want %v", name, got, want)
		}
	}
	if _, err := isTemplateFile(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("expected error for non-existent file")
	}
}
