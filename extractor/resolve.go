package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resolveValue turns a path-absolute value ("/foo") into an absolute URL
// against base. Anything else is returned verbatim, protocol-relative
// values ("//cdn.test/x") included.
func resolveValue(value string, base *url.URL) string {
	if base == nil || !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") {
		return value
	}
	ref, err := url.Parse(value)
	if err != nil {
		return value
	}
	return base.ResolveReference(ref).String()
}

// elementValue reads the value of a sub-element: a hyperlink's href when
// present and non-empty, otherwise its visible text.
func elementValue(s *goquery.Selection) string {
	if goquery.NodeName(s) == "a" {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href)
		}
	}
	return collapseText(s.Text())
}

// collapseText trims and squeezes runs of whitespace to single spaces.
func collapseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
