// Package inliner converts stylesheet based HTML into markup with inline
// styles which is what email clients expect.
package inliner

import (
	"fmt"

	"go.uber.org/zap"

	"mailsmith/css"
	"mailsmith/dom"
)

// Inliner keeps inlining configuration. It holds no per call state and could
// be used concurrently.
type Inliner struct {
	log      *zap.Logger
	parser   dom.Parser
	rules    *css.Parser
	embedded bool
	shell    ShellOptions
}

// Option configures Inliner.
type Option func(*Inliner)

// WithParser replaces default HTML parser.
func WithParser(p dom.Parser) Option {
	return func(i *Inliner) {
		if p != nil {
			i.parser = p
		}
	}
}

// WithEmbeddedStyles makes inliner use content of <style> elements found in
// the document in addition to supplied stylesheet. Embedded rules go first.
func WithEmbeddedStyles(on bool) Option {
	return func(i *Inliner) {
		i.embedded = on
	}
}

// WithShell sets options for full document generation.
func WithShell(opts ShellOptions) Option {
	return func(i *Inliner) {
		i.shell = opts
	}
}

// New creates inliner, nil logger disables logging.
func New(log *zap.Logger, opts ...Option) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	i := &Inliner{
		log:    log.Named("inliner"),
		parser: dom.HTMLParser{},
		shell:  DefaultShellOptions(),
	}
	i.rules = css.NewParser(i.log)
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inline parses markup, applies stylesheet rules to matching elements, drops
// <style> elements and class attributes and returns resulting content of
// document body.
func (i *Inliner) Inline(markup, stylesheet string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = "", fmt.Errorf("inlining panic: %v", r)
		}
	}()

	doc, err := i.parser.Parse(markup)
	if err != nil {
		return "", err
	}

	if i.embedded {
		if embedded := doc.StyleText(); embedded != "" {
			stylesheet = embedded + "\n" + stylesheet
		}
	}

	i.ApplyRules(doc, i.rules.ExtractRules(stylesheet))
	Cleanup(doc)

	result, err = doc.BodyHTML()
	if err != nil {
		return "", fmt.Errorf("unable to serialize body: %w", err)
	}
	return result, nil
}

// Generate produces complete email document. It never fails: when inlining is
// not possible original markup becomes the document content.
func (i *Inliner) Generate(markup, stylesheet string) string {
	content, err := i.Inline(markup, stylesheet)
	if err != nil {
		i.log.Warn("Unable to inline styles, using original markup", zap.Error(err))
		content = markup
	}
	return i.wrap(content)
}

// InlineCSS is Inline with default settings.
func InlineCSS(markup, stylesheet string) (string, error) {
	return New(nil).Inline(markup, stylesheet)
}

// GenerateEmailHTML is Generate with default settings.
func GenerateEmailHTML(markup, stylesheet string) string {
	return New(nil).Generate(markup, stylesheet)
}
