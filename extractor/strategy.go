package extractor

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Strategy decides how the fields of one card are found. It is chosen once
// per request by NewStrategy and shared by every card.
type Strategy interface {
	// Kind names the strategy for logs ("explicit", "heuristic").
	Kind() string

	apply(card *goquery.Selection, base *url.URL, rec *recordBuilder)
}

// NewStrategy returns an ExplicitFieldStrategy when field selectors are
// supplied and a HeuristicStrategy otherwise.
func NewStrategy(fieldSelectors map[string]string) Strategy {
	if len(fieldSelectors) == 0 {
		return HeuristicStrategy{}
	}
	return NewExplicitFieldStrategy(fieldSelectors)
}

// ---------------------------------------------------------------------------
// Explicit field selectors
// ---------------------------------------------------------------------------

type fieldRule struct {
	name     string
	selector string
	matcher  goquery.Matcher // nil when the sub-selector does not compile
	typed    TypedField
}

// ExplicitFieldStrategy extracts one value per caller-named field from the
// first element each sub-selector matches inside the card.
type ExplicitFieldStrategy struct {
	rules []fieldRule
}

// NewExplicitFieldStrategy compiles every sub-selector once. An invalid
// sub-selector is kept as a rule that always yields null.
func NewExplicitFieldStrategy(fieldSelectors map[string]string) *ExplicitFieldStrategy {
	names := make([]string, 0, len(fieldSelectors))
	for name := range fieldSelectors {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make([]fieldRule, 0, len(names))
	for _, name := range names {
		rule := fieldRule{
			name:     name,
			selector: fieldSelectors[name],
			typed:    TypedFieldFor(name),
		}
		m, err := CompileSelector(rule.selector)
		if err != nil {
			slog.Warn("field selector invalid, field will be null",
				"field", name, "selector", rule.selector, "error", err)
		} else {
			rule.matcher = m
		}
		rules = append(rules, rule)
	}
	return &ExplicitFieldStrategy{rules: rules}
}

func (s *ExplicitFieldStrategy) Kind() string { return "explicit" }

// Fields returns the requested field names in application order.
func (s *ExplicitFieldStrategy) Fields() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.name
	}
	return names
}

func (s *ExplicitFieldStrategy) apply(card *goquery.Selection, base *url.URL, rec *recordBuilder) {
	for _, rule := range s.rules {
		if rule.matcher == nil {
			rec.setField(rule.name, nil)
			continue
		}

		match := card.FindMatcher(rule.matcher).First()
		if match.Length() == 0 {
			slog.Debug("field selector matched nothing",
				"field", rule.name, "selector", rule.selector, "card", rec.id)
			rec.setField(rule.name, nil)
			continue
		}

		value := resolveValue(elementValue(match), base)
		rec.setField(rule.name, &value)
		rec.setTyped(rule.typed, value)
	}
}

// ---------------------------------------------------------------------------
// Heuristic mode
// ---------------------------------------------------------------------------

// headingTags are searched in priority order, not document order.
var headingTags = []string{"h1", "h2", "h3", "h4"}

var (
	nameFallback = cascadia.MustCompile(`.name, [data-testid*="name"], [id*="name"]`)
	linkMatcher  = cascadia.MustCompile(`a[href]`)
)

// HeuristicStrategy guesses name and url from common listing markup: the
// most prominent heading and the first real link.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Kind() string { return "heuristic" }

func (HeuristicStrategy) apply(card *goquery.Selection, base *url.URL, rec *recordBuilder) {
	if name, ok := heuristicName(card); ok {
		rec.setField(FieldName.String(), &name)
		rec.setTyped(FieldName, name)
	}
	if link, ok := heuristicLink(card); ok {
		resolved := resolveValue(link, base)
		rec.setField(FieldURL.String(), &resolved)
		rec.setTyped(FieldURL, resolved)
	}
}

func heuristicName(card *goquery.Selection) (string, bool) {
	for _, tag := range headingTags {
		var text string
		card.Find(tag).EachWithBreak(func(_ int, h *goquery.Selection) bool {
			text = collapseText(h.Text())
			return text == ""
		})
		if text != "" {
			return text, true
		}
	}

	fallback := card.FindMatcher(nameFallback).First()
	if fallback.Length() == 0 {
		return "", false
	}
	text := collapseText(fallback.Text())
	return text, text != ""
}

func heuristicLink(card *goquery.Selection) (string, bool) {
	var href string
	card.FindMatcher(linkMatcher).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href = strings.TrimSpace(a.AttrOr("href", ""))
		return href == ""
	})
	return href, href != ""
}
