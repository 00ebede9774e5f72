package css

import (
	"strings"
)

// Declarations is an ordered set of CSS property declarations. Setting an
// existing property replaces its value but keeps its original position, so
// serialization is deterministic and follows the order properties were first
// seen.
type Declarations struct {
	keys   []string
	values map[string]string
}

// NewDeclarations returns empty declarations.
func NewDeclarations() *Declarations {
	return &Declarations{values: make(map[string]string)}
}

// Set adds or replaces property value.
func (d *Declarations) Set(key, value string) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns property value.
func (d *Declarations) Get(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.values[key]
	return v, ok
}

// Len returns number of distinct properties.
func (d *Declarations) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns property names in declaration order.
func (d *Declarations) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Clone returns independent copy.
func (d *Declarations) Clone() *Declarations {
	c := NewDeclarations()
	if d == nil {
		return c
	}
	c.keys = append(c.keys, d.keys...)
	for k, v := range d.values {
		c.values[k] = v
	}
	return c
}

// Overlay returns a copy of d with every property of top set on it. Values
// from top win on collision.
func (d *Declarations) Overlay(top *Declarations) *Declarations {
	merged := d.Clone()
	if top == nil {
		return merged
	}
	for _, k := range top.keys {
		merged.Set(k, top.values[k])
	}
	return merged
}

// String serializes declarations in a form suitable for style attribute:
// "prop:value;prop:value".
func (d *Declarations) String() string {
	if d.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range d.keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(d.values[k])
	}
	return b.String()
}

// StyleRule is a single flat CSS rule block: the selector group as written
// (e.g. ".btn, #cta") and its declarations.
type StyleRule struct {
	SelectorGroup string
	Properties    *Declarations
}

// Selectors splits selector group into individual trimmed selectors. Empty
// members are skipped.
//
// NOTE: commas inside attribute selector brackets (e.g. [data-x="a,b"]) are
// split as well.
func (r StyleRule) Selectors() []string {
	var selectors []string
	for s := range strings.SplitSeq(r.SelectorGroup, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}
