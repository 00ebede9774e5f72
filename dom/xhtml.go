package dom

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// void elements are the only ones which may be written self-closed, some email
// clients mangle "<td/>" and friends.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// FragmentToXHTML re-serializes HTML body fragment as well-formed XHTML.
func FragmentToXHTML(fragment string) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return "", fmt.Errorf("unable to parse html fragment: %w", err)
	}

	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	for _, n := range nodes {
		appendNode(&doc.Element, n)
	}
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("unable to write xhtml: %w", err)
	}
	return out, nil
}

func appendNode(parent *etree.Element, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		parent.CreateText(n.Data)
	case html.CommentNode:
		parent.CreateComment(n.Data)
	case html.ElementNode:
		el := parent.CreateElement(n.Data)
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			el.CreateAttr(key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendNode(el, c)
		}
		if len(el.Child) == 0 && !voidElements[n.Data] {
			// forces explicit end tag
			el.CreateText("")
		}
	}
}
