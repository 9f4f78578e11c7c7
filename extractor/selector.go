package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// CompileSelector parses a CSS selector group. goquery silently matches
// nothing for a malformed selector, so every caller-supplied selector goes
// through here first.
func CompileSelector(selector string) (goquery.Matcher, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("selector is empty")
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return m, nil
}

// SelectAll parses markup and returns every element matching m, in
// document order. Zero matches is an empty slice, not an error.
func SelectAll(markup string, m goquery.Matcher) ([]*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	matches := doc.FindMatcher(m)
	cards := make([]*goquery.Selection, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, s)
	})
	return cards, nil
}
