/*
Package dom decouples style inlining from a concrete HTML toolkit.

Inlining needs very little from a document: enumerate elements, resolve CSS
selectors, read and write attributes, drop elements and serialize body
content. Document and Element capture exactly that. HTMLParser provides the
implementation on top of golang.org/x/net/html, with goquery for tree
manipulation and cascadia as the selector engine.

Every Parse call produces a fresh tree owned by the caller, documents are never
shared or cached.
*/
package dom

// Element is a single element node of a parsed document.
type Element interface {
	Tag() string // lower case tag name
	ID() string
	HasClass(name string) bool
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	// Match checks element against CSS selector with general selector
	// engine. Selector which cannot be compiled returns an error.
	Match(selector string) (bool, error)
}

// Document is a parsed HTML document.
type Document interface {
	// Elements returns all element nodes in document order.
	Elements() []Element
	// Query resolves CSS selector with general selector engine. Selector
	// which cannot be compiled returns an error and no elements.
	Query(selector string) ([]Element, error)
	// RemoveElements drops all elements with given tag name and returns
	// number of removed elements.
	RemoveElements(tag string) int
	// StyleText returns concatenated content of all <style> elements.
	StyleText() string
	// BodyHTML serializes content of <body> element (without the element
	// itself).
	BodyHTML() (string, error)
}

// Parser builds documents from markup.
type Parser interface {
	Parse(markup string) (Document, error)
}
