// Package sanitizer strips user-supplied markup down to a small allow-list of
// formatting elements before text is stored or displayed.
package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// basicPolicy allows simple text formatting and plain links. Everything else,
// including images, is removed; script and style content is dropped entirely.
func basicPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"b", "blockquote", "br", "cite", "code", "dd", "dl", "dt", "em", "i",
		"li", "ol", "p", "pre", "q", "small", "span", "strike", "strong",
		"sub", "sup", "u", "ul",
	)
	p.AllowAttrs("cite").OnElements("blockquote", "q")

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "ftp", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)

	return p
}

// Sanitize returns raw with all markup outside the allow-list removed. It never
// fails: malformed markup is treated as text. Sanitize is idempotent.
func Sanitize(raw string) string {
	policyOnce.Do(func() {
		policy = basicPolicy()
	})
	return policy.Sanitize(raw)
}
