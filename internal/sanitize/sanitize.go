// Package sanitize cleans user supplied HTML down to structural and formatting markup.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips scripts, styles and event handlers while keeping basic formatting.
type Sanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// New builds the helpdesk allow-list policy.
func New() *Sanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "hr", "strong", "em", "u")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("ol", "ul", "li")
	p.AllowElements("blockquote", "code", "pre")

	p.AllowElements("table", "thead", "tbody", "tr", "td", "th")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("table")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("title").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)

	return &Sanitizer{policy: p, strict: bluemonday.StrictPolicy()}
}

// HTML returns content with every disallowed tag and attribute removed.
func (s *Sanitizer) HTML(content string) string {
	return strings.TrimSpace(s.policy.Sanitize(content))
}

// Text strips all markup, for plain fields such as category descriptions. The result is
// unescaped plain text, so quotes and ampersands survive as typed.
func (s *Sanitizer) Text(content string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(content)))
}
