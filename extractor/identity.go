package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// identifierAttributes lists, in priority order, the attributes treated as
// a stable per-card key. The first non-empty one replaces the positional id.
var identifierAttributes = []string{
	"data-testid",
}

// TypedField is a typed attribute of ExtractedRecord that caller field
// names can map onto.
type TypedField int

const (
	FieldNone TypedField = iota
	FieldName
	FieldURL
	FieldState
)

func (f TypedField) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldURL:
		return "url"
	case FieldState:
		return "state"
	default:
		return ""
	}
}

// fieldSynonyms maps lower-cased field names onto typed attributes.
var fieldSynonyms = map[string]TypedField{
	"name":  FieldName,
	"title": FieldName,
	"url":   FieldURL,
	"link":  FieldURL,
	"href":  FieldURL,
	"state": FieldState,
}

// TypedFieldFor returns the typed attribute a field name maps to, matching
// case-insensitively. Unknown names return FieldNone.
func TypedFieldFor(fieldName string) TypedField {
	return fieldSynonyms[strings.ToLower(strings.TrimSpace(fieldName))]
}

// stableIdentifier returns the first non-empty identifier attribute on the
// card itself.
func stableIdentifier(card *goquery.Selection) (attr, value string, ok bool) {
	for _, attr := range identifierAttributes {
		if v, exists := card.Attr(attr); exists && strings.TrimSpace(v) != "" {
			return attr, v, true
		}
	}
	return "", "", false
}
