package convert

import (
	"testing"

	"mailsmith/config"
)

func TestNewValues(t *testing.T) {
	v := newValues(config.OutputNameTemplateFieldName, "promo/Spring.Sale.html",
		"<html><head><title>\n  Spring\tSale </title></head><body><title>second</title></body></html>", "xhtml")

	want := Values{
		Context:    "output_name_template",
		Title:      "Spring Sale",
		Format:     "xhtml",
		SourceFile: "Spring.Sale",
	}
	if v != want {
		t.Errorf("newValues() = %+v, want %+v", v, want)
	}

	if v := newValues(config.OutputNameTemplateFieldName, "x.html", "<p>no title</p>", ""); v.Title != "" {
		t.Errorf("newValues() title = %q, want empty", v.Title)
	}
}

func TestExpandTemplate(t *testing.T) {
	values := Values{Context: "ctx", Title: "Spring Sale", Format: "html5", SourceFile: "spring"}

	tests := []struct {
		name    string
		field   string
		want    string
		wantErr bool
	}{
		{"plain text", "static", "static", false},
		{"fields", "{{ .Context }}-{{ .SourceFile }}-{{ .Format }}", "ctx-spring-html5", false},
		{"sprig functions", `{{ .Title | lower | replace " " "_" }}`, "spring_sale", false},
		{"conditional", `{{ if eq .Format "html5" }}web{{ else }}legacy{{ end }}`, "web", false},
		{"parse error", "{{ .Title", "", true},
		{"unknown field", "{{ .BookID }}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(config.OutputNameTemplateFieldName, tt.field, values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandTemplate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}
