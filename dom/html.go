package dom

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// HTMLParser parses markup with HTML5 tree construction algorithm, which is
// maximally lenient: missing html/head/body elements are implied and unclosed
// tags are closed automatically.
type HTMLParser struct{}

// Parse implements Parser.
func (HTMLParser) Parse(markup string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	return &htmlDocument{doc: doc}, nil
}

var _ Parser = HTMLParser{}

// ReadHTML reads markup converting it to UTF-8. Encoding is determined from
// contentType (may be empty), BOM or <meta> charset declaration in the first
// 1024 bytes.
func ReadHTML(r io.Reader, contentType string) (string, error) {
	cr, err := charset.NewReader(r, contentType)
	if err != nil {
		return "", fmt.Errorf("unable to detect html encoding: %w", err)
	}
	data, err := io.ReadAll(cr)
	if err != nil {
		return "", fmt.Errorf("unable to read html: %w", err)
	}
	return string(data), nil
}

type htmlDocument struct {
	doc *goquery.Document
}

func (d *htmlDocument) Elements() []Element {
	all := d.doc.Find("*")
	elements := make([]Element, 0, all.Length())
	for _, n := range all.Nodes {
		elements = append(elements, &htmlElement{n: n})
	}
	return elements
}

func (d *htmlDocument) Query(selector string) ([]Element, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("unsupported selector %q: %w", selector, err)
	}
	found := d.doc.FindMatcher(matcher)
	elements := make([]Element, 0, found.Length())
	for _, n := range found.Nodes {
		elements = append(elements, &htmlElement{n: n})
	}
	return elements, nil
}

func (d *htmlDocument) RemoveElements(tag string) int {
	sel := d.doc.FindMatcher(tagMatcher(strings.ToLower(tag)))
	count := sel.Length()
	sel.Remove()
	return count
}

func (d *htmlDocument) StyleText() string {
	var b strings.Builder
	d.doc.FindMatcher(tagMatcher("style")).Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteByte('\n')
	})
	return b.String()
}

func (d *htmlDocument) BodyHTML() (string, error) {
	body := d.doc.FindMatcher(tagMatcher("body"))
	if body.Length() == 0 {
		return "", nil
	}
	return body.Html()
}

// tagMatcher avoids selector compilation for plain element names.
func tagMatcher(tag string) cascadia.Selector {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

type htmlElement struct {
	n *html.Node
}

func (e *htmlElement) Tag() string {
	return e.n.Data
}

func (e *htmlElement) ID() string {
	id, _ := e.Attr("id")
	return id
}

func (e *htmlElement) HasClass(name string) bool {
	classes, ok := e.Attr("class")
	if !ok || name == "" {
		return false
	}
	return slices.Contains(strings.FieldsFunc(classes, isASCIISpace), name)
}

// isASCIISpace matches separators of class list, other Unicode spaces are
// part of class names.
func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func (e *htmlElement) Match(selector string) (bool, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return false, fmt.Errorf("unsupported selector %q: %w", selector, err)
	}
	return matcher.Match(e.n), nil
}

func (e *htmlElement) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *htmlElement) SetAttr(name, value string) {
	for i := range e.n.Attr {
		if e.n.Attr[i].Namespace == "" && e.n.Attr[i].Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

func (e *htmlElement) RemoveAttr(name string) {
	e.n.Attr = slices.DeleteFunc(e.n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
}
