// Package text produces plain text renditions of email markup: text/plain
// alternative part and preheader summary.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// number of line breaks emitted around block elements
var blockBreaks = map[atom.Atom]int{
	atom.P: 2, atom.H1: 2, atom.H2: 2, atom.H3: 2, atom.H4: 2, atom.H5: 2, atom.H6: 2,
	atom.Blockquote: 2, atom.Table: 2, atom.Ul: 2, atom.Ol: 2, atom.Pre: 2,
	atom.Div: 1, atom.Section: 1, atom.Article: 1, atom.Header: 1, atom.Footer: 1,
	atom.Tr: 1, atom.Li: 1, atom.Hr: 1, atom.Center: 1,
}

// FromHTML returns visible text of HTML markup. Block elements start new
// lines, white space is collapsed, links are rendered as "text (url)" and
// hidden elements are skipped.
func FromHTML(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	w := &plainWriter{}
	for _, n := range doc.Find("body").Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
	}
	return w.b.String()
}

type plainWriter struct {
	b      strings.Builder
	space  bool
	breaks int
}

func (w *plainWriter) word(s string) {
	if w.b.Len() > 0 {
		switch {
		case w.breaks > 0:
			w.b.WriteString(strings.Repeat("\n", w.breaks))
		case w.space:
			w.b.WriteByte(' ')
		}
	}
	w.space, w.breaks = false, 0
	w.b.WriteString(s)
}

func (w *plainWriter) text(s string) {
	if s == "" {
		return
	}
	if r, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(r) {
		w.space = true
	}
	first := true
	for f := range strings.FieldsSeq(s) {
		if !first {
			w.space = true
		}
		w.word(f)
		first = false
	}
	if r, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(r) {
		w.space = true
	}
}

func (w *plainWriter) lineBreak(n int) {
	w.breaks = max(w.breaks, n)
}

func (w *plainWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Title, atom.Template:
		return
	case atom.Br:
		w.lineBreak(1)
		return
	case atom.Img:
		if alt := attr(n, "alt"); alt != "" {
			w.text(" " + alt + " ")
		}
		return
	case atom.Td, atom.Th:
		w.space = true
	}
	if hidden(n) {
		return
	}

	breaks := blockBreaks[n.DataAtom]
	w.lineBreak(breaks)
	if n.DataAtom == atom.Li {
		w.word("-")
		w.space = true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	if n.DataAtom == atom.A {
		href := strings.TrimSpace(attr(n, "href"))
		if href != "" && !strings.HasPrefix(href, "#") && !strings.Contains(textOf(n), href) {
			w.space = true
			w.word("(" + href + ")")
		}
	}
	w.lineBreak(breaks)
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hidden(n *html.Node) bool {
	if _, ok := goquery.NewDocumentFromNode(n).Attr("hidden"); ok {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none")
}

func textOf(n *html.Node) string {
	return goquery.NewDocumentFromNode(n).Text()
}
