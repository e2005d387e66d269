// Package htmlsanitize strips dangerous HTML from user-supplied text.
// Task descriptions and completion notes may contain rich text from older
// clients; scripts, event handlers, and javascript: URLs are removed.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

// buildPolicy starts from bluemonday's UGC policy (paragraphs, emphasis,
// lists, tables, safe links) and additionally permits inline style on table
// elements, which rich-text clients emit for column widths and alignment.
func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("table", "thead", "tbody", "tr", "th", "td")
	return p
}

// Sanitize returns its input with unsafe HTML removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(s))
}
