package inliner

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/zap"

	"mailsmith/dom"
	"mailsmith/text"
)

// ShellFormat selects markup flavour of generated document.
type ShellFormat string

const (
	ShellHTML5 ShellFormat = "html5"
	ShellXHTML ShellFormat = "xhtml"
)

// DefaultBackground is body background of generated document.
const DefaultBackground = "#0b0b0b"

// ShellOptions controls document produced around inlined content.
type ShellOptions struct {
	Format     ShellFormat
	Background string
	Title      string
	// Preheader is hidden text most clients show in message list. When
	// empty and PreheaderLength is positive it is derived from content.
	Preheader       string
	PreheaderLength int
	// Template replaces built-in shell, see ShellValues for available fields.
	Template string
}

// DefaultShellOptions returns HTML5 shell with default background.
func DefaultShellOptions() ShellOptions {
	return ShellOptions{Format: ShellHTML5, Background: DefaultBackground}
}

// ShellValues is available for shell template expansion.
type ShellValues struct {
	Title      string
	Background string
	Preheader  string
	Content    string
}

const html5Shell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta http-equiv="X-UA-Compatible" content="IE=edge">
{{- with .Title }}
<title>{{ html . }}</title>
{{- end }}
</head>
<body style="margin:0;padding:0;background:{{ .Background | default "` + DefaultBackground + `" | html }};">
{{- with .Preheader }}
<div style="display:none;max-height:0;overflow:hidden;mso-hide:all;">{{ html . }}</div>
{{- end }}
{{ .Content }}
</body>
</html>
`

const xhtmlShell = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<meta http-equiv="X-UA-Compatible" content="IE=edge" />
{{- with .Title }}
<title>{{ html . }}</title>
{{- end }}
</head>
<body style="margin:0;padding:0;background:{{ .Background | default "` + DefaultBackground + `" | html }};">
{{- with .Preheader }}
<div style="display:none;max-height:0;overflow:hidden;mso-hide:all;">{{ html . }}</div>
{{- end }}
{{ .Content }}
</body>
</html>
`

// wrap places content into document shell. Problems with custom template or
// XHTML conversion are logged and built-in HTML5 shell is used instead.
func (i *Inliner) wrap(content string) string {
	values := ShellValues{
		Title:      i.shell.Title,
		Background: i.shell.Background,
		Preheader:  i.shell.Preheader,
		Content:    content,
	}
	if values.Preheader == "" && i.shell.PreheaderLength > 0 {
		values.Preheader = text.Preheader(text.FromHTML(content), i.shell.PreheaderLength)
	}

	shell := html5Shell
	if i.shell.Format == ShellXHTML {
		shell = xhtmlShell
		x, err := dom.FragmentToXHTML(content)
		if err == nil {
			values.Content = x
		} else {
			i.log.Warn("Unable to convert content to XHTML, using HTML5 shell", zap.Error(err))
			shell = html5Shell
		}
	}
	if i.shell.Template != "" {
		shell = i.shell.Template
	}

	page, err := expandShell(shell, values)
	if err == nil {
		return page
	}
	i.log.Warn("Unable to expand shell template, using built-in one", zap.Error(err))

	values.Content = content
	if page, err = expandShell(html5Shell, values); err != nil {
		// built-in template and plain strings, should never happen
		i.log.Error("Unable to expand built-in shell", zap.Error(err))
		return content
	}
	return page
}

func expandShell(shell string, values ShellValues) (string, error) {
	tmpl, err := template.New("shell").Funcs(sprig.FuncMap()).Parse(shell)
	if err != nil {
		return "", fmt.Errorf("unable to parse shell template: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand shell template: %w", err)
	}
	return buf.String(), nil
}
