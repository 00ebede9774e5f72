package inliner

import (
	"regexp"
	"strings"

	"mailsmith/dom"
)

var (
	tagRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
	// a single name after "." or "#" - anything fancier goes to selector engine
	simpleNameRe = regexp.MustCompile(`^[^\s.#\[\]:>+~,()*|="'\\]+$`)
)

// fastMatcher returns predicate for selectors which do not need selector
// engine: bare tag name, single class and single id. It returns nil for any
// other selector.
func fastMatcher(selector string) func(dom.Element) bool {
	switch {
	case tagRe.MatchString(selector):
		return func(el dom.Element) bool {
			return strings.EqualFold(el.Tag(), selector)
		}
	case strings.HasPrefix(selector, ".") && simpleNameRe.MatchString(selector[1:]):
		name := selector[1:]
		return func(el dom.Element) bool {
			return el.HasClass(name)
		}
	case strings.HasPrefix(selector, "#") && simpleNameRe.MatchString(selector[1:]):
		id := selector[1:]
		return func(el dom.Element) bool {
			return el.ID() == id
		}
	}
	return nil
}

// Matches reports whether element matches single (already trimmed) selector.
// It is the per element form of the matching done by ApplyRules, for callers
// holding individual elements.
// Tag, class and id selectors are checked directly, everything else is
// delegated to document selector engine. Selectors the engine cannot handle
// match nothing.
func Matches(el dom.Element, selector string) (matched bool) {
	if m := fastMatcher(selector); m != nil {
		return m(el)
	}
	defer func() {
		if r := recover(); r != nil {
			matched = false
		}
	}()
	ok, err := el.Match(selector)
	if err != nil {
		return false
	}
	return ok
}
