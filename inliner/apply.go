package inliner

import (
	"fmt"

	"go.uber.org/zap"

	"mailsmith/css"
	"mailsmith/dom"
)

// Stats describes single inlining pass.
type Stats struct {
	Rules     int // rules applied
	Selectors int // individual selectors resolved
	Skipped   int // selectors which could not be resolved
	Matches   int // element updates
}

// ApplyRules merges declarations of every rule into style attribute of
// matching elements using no logging. See (*Inliner).ApplyRules.
func ApplyRules(doc dom.Document, rules []css.StyleRule) {
	New(nil).ApplyRules(doc, rules)
}

// ApplyRules merges declarations of every rule into style attribute of
// matching elements. Whatever element style attribute holds at the moment a
// rule is applied wins over the rule, so author written inline styles are
// never overwritten and for the same property the first matching rule in
// source order wins. Selectors which cannot be resolved are skipped.
func (i *Inliner) ApplyRules(doc dom.Document, rules []css.StyleRule) Stats {
	var (
		stats    Stats
		elements = doc.Elements()
	)

	for _, rule := range rules {
		stats.Rules++
		for _, selector := range rule.Selectors() {
			stats.Selectors++

			matched, err := resolve(doc, elements, selector)
			if err != nil {
				stats.Skipped++
				i.log.Debug("Skipping selector", zap.String("selector", selector), zap.Error(err))
				continue
			}

			for _, el := range matched {
				merged := rule.Properties.Overlay(inlineStyle(el))
				if merged.Len() == 0 {
					continue
				}
				el.SetAttr("style", merged.String())
				stats.Matches++
			}
		}
	}
	i.log.Debug("Rules applied",
		zap.Int("rules", stats.Rules), zap.Int("selectors", stats.Selectors),
		zap.Int("skipped", stats.Skipped), zap.Int("matches", stats.Matches))
	return stats
}

// resolve finds elements matching single selector. Selector engine failures,
// including panics, are returned as errors.
func resolve(doc dom.Document, elements []dom.Element, selector string) (matched []dom.Element, err error) {
	if m := fastMatcher(selector); m != nil {
		for _, el := range elements {
			if m(el) {
				matched = append(matched, el)
			}
		}
		return matched, nil
	}

	defer func() {
		if r := recover(); r != nil {
			matched, err = nil, fmt.Errorf("selector engine panic: %v", r)
		}
	}()
	return doc.Query(selector)
}

func inlineStyle(el dom.Element) *css.Declarations {
	style, ok := el.Attr("style")
	if !ok {
		return css.NewDeclarations()
	}
	return css.ParseDeclarations(style)
}

// Cleanup removes all <style> elements and class attributes. It must only be
// called after rules were applied - class based selectors need the classes.
func Cleanup(doc dom.Document) {
	doc.RemoveElements("style")
	for _, el := range doc.Elements() {
		if _, ok := el.Attr("class"); ok {
			el.RemoveAttr("class")
		}
	}
}
