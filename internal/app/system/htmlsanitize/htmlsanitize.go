// Package htmlsanitize cleans admin-authored rich text (announcements and
// company descriptions) before it is stored.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
	strict *bluemonday.Policy
)

func policies() {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "th", "td", "span", "p", "div")
		p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p

		strict = bluemonday.StrictPolicy()
	})
}

// Sanitize keeps formatting, lists, tables and http(s)/mailto links and
// removes scripts, event handlers and javascript: URLs.
func Sanitize(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	policies()
	return strings.TrimSpace(policy.Sanitize(html))
}

// PlainText strips every tag. Used for text that is fed into LLM prompts.
func PlainText(html string) string {
	policies()
	return strings.TrimSpace(strict.Sanitize(html))
}
