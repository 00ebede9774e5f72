package ai

import (
	"regexp"
	"strings"
)

const (
	markerHTML = "---HTML---"
	markerCSS  = "---CSS---"
	markerEnd  = "---END---"
)

// markdown code fence with optional language
var fenceRe = regexp.MustCompile("(?m)^[ \t]*```[a-zA-Z]*[ \t]*$\n?")

// ParseResponse splits model answer into html and css parts. When markers are
// missing whole answer is treated as html. Markdown code fences are dropped.
func ParseResponse(answer string) (html, css string) {
	answer = fenceRe.ReplaceAllString(answer, "")

	start := strings.Index(answer, markerHTML)
	if start < 0 {
		return strings.TrimSpace(answer), ""
	}
	rest := answer[start+len(markerHTML):]

	if end := strings.Index(rest, markerEnd); end >= 0 {
		rest = rest[:end]
	}
	html, css, _ = strings.Cut(rest, markerCSS)
	return strings.TrimSpace(html), strings.TrimSpace(css)
}
