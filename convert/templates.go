package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/PuerkitoBio/goquery"
	sprig "github.com/go-task/slim-sprig/v3"

	"mailsmith/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Format     string
	SourceFile string
}

func newValues(name config.TemplateFieldName, src, markup, format string) Values {
	return Values{
		Context:    string(name),
		Title:      documentTitle(markup),
		Format:     format,
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
	}
}

// documentTitle returns text of the first <title> element, if any.
func documentTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
