// Package debug formats indented text dumps put into debug report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates indented lines. Zero value is ready to use.
type TreeWriter struct {
	b strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (tw *TreeWriter) String() string {
	return tw.b.String()
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.b.WriteString(strings.Repeat(indent, max(depth, 0)))
	fmt.Fprintf(&tw.b, format, args...)
	tw.b.WriteByte('\n')
}

// Field writes "label: value" line. Values with surrounding or control
// whitespace and empty values are quoted so they stay visible.
func (tw *TreeWriter) Field(depth int, label, value string) {
	tw.Line(depth, "%s: %s", label, quoteIfNeeded(value))
}

func quoteIfNeeded(s string) string {
	if s == "" || s != strings.TrimSpace(s) || strings.ContainsAny(s, "\n\r\t") {
		return strconv.Quote(s)
	}
	return s
}
