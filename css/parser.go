// Package css extracts flat style rules from stylesheet text and handles
// inline style attribute declarations.
//
// This is deliberately not a general CSS parser: only single level
// "selectors { declarations }" blocks are recognized, which is what hand
// written email stylesheets use.
package css

import (
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// header and body of a block may not contain braces.
var blockRe = regexp.MustCompile(`([^{}]+)\{([^{}]*)\}`)

// Parser extracts style rules from CSS text.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new rules parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// ExtractRules parses CSS text into ordered list of rules using parser with
// no logging.
func ExtractRules(text string) []StyleRule {
	return NewParser(nil).ExtractRules(text)
}

// ExtractRules parses CSS text into ordered list of rules. Comments are removed
// first, blocks which do not follow "header{body}" pattern are ignored,
// malformed declarations are skipped and blocks without any valid declaration
// do not produce rules. Rules are returned in source order.
func (p *Parser) ExtractRules(text string) []StyleRule {
	clean := StripComments(text)

	var rules []StyleRule
	for _, m := range blockRe.FindAllStringSubmatch(clean, -1) {
		selector := strings.TrimSpace(m[1])
		props := ParseDeclarations(m[2])
		if props.Len() == 0 {
			p.log.Debug("Dropping rule without declarations", zap.String("selector", selector))
			continue
		}
		if selector == "" {
			// "[^{}]+" may capture whitespace only
			p.log.Debug("Dropping rule without selector", zap.String("body", strings.TrimSpace(m[2])))
			continue
		}
		rules = append(rules, StyleRule{SelectorGroup: selector, Properties: props})
	}
	p.log.Debug("Extracted rules", zap.Int("bytes", len(text)), zap.Int("rules", len(rules)))
	return rules
}

// StripComments removes all "/* ... */" spans from CSS text. The first "*/"
// closes a comment, comment without end swallows the rest of the text.
// Comment markers inside quoted strings are not comments and are kept, unless
// the quote is never closed: from unterminated string on spans are removed
// literally.
func StripComments(text string) string {
	if !strings.Contains(text, "/*") {
		return text
	}

	var (
		b      strings.Builder
		offset int
	)
	b.Grow(len(text))

	lexer := css.NewLexer(parse.NewInputString(text))
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken || tt == css.BadStringToken ||
			tt == css.StringToken && unterminated(data) {
			break
		}
		offset += len(data)
		if tt == css.CommentToken {
			continue
		}
		b.Write(data)
	}
	// lexer stops on NUL bytes and bad strings
	if offset < len(text) {
		b.WriteString(stripSpans(text[offset:]))
	}
	return b.String()
}

// unterminated reports string token ended by end of input rather than by
// its closing quote.
func unterminated(str []byte) bool {
	n := len(str)
	if n < 2 || str[n-1] != str[0] {
		return true
	}
	escapes := 0
	for i := n - 2; i > 0 && str[i] == '\\'; i-- {
		escapes++
	}
	return escapes%2 == 1
}

func stripSpans(text string) string {
	var b strings.Builder
	for {
		start := strings.Index(text, "/*")
		if start < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:start])
		end := strings.Index(text[start+2:], "*/")
		if end < 0 {
			return b.String()
		}
		text = text[start+2+end+2:]
	}
}

// ParseDeclarations parses declaration list ("a:b; c:d") splitting on ';' and
// on the first ':' of every segment. Segments without colon, with empty
// property or empty value are silently dropped. Later duplicates overwrite
// values of earlier ones.
func ParseDeclarations(text string) *Declarations {
	decl := NewDeclarations()
	for segment := range strings.SplitSeq(text, ";") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		key, value, found := strings.Cut(segment, ":")
		if !found {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		decl.Set(key, value)
	}
	return decl
}
