package extractor

import (
	"context"
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/cardscrape/models"
)

var searchURL, _ = url.Parse("https://example.com/search")

func selectCards(t *testing.T, markup, selector string) []*goquery.Selection {
	t.Helper()
	m, err := CompileSelector(selector)
	require.NoError(t, err)
	cards, err := SelectAll(markup, m)
	require.NoError(t, err)
	return cards
}

func extractAll(t *testing.T, markup, selector string, fields map[string]string) []models.ExtractedRecord {
	t.Helper()
	records, err := New(4).ExtractAll(context.Background(), selectCards(t, markup, selector), searchURL, NewStrategy(fields))
	require.NoError(t, err)
	return records
}

func strPtr(s string) *string { return &s }

func TestSelectAll_ZeroMatches(t *testing.T) {
	cards := selectCards(t, `<div><p>nothing</p></div>`, ".card")
	assert.NotNil(t, cards)
	assert.Empty(t, cards)

	records := extractAll(t, `<div><p>nothing</p></div>`, ".card", nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSelectAll_DocumentOrder(t *testing.T) {
	markup := `<section><div class="card">a</div><div><div class="card">b</div></div></section><div class="card">c</div>`
	cards := selectCards(t, markup, ".card")
	require.Len(t, cards, 3)
	assert.Equal(t, "a", cards[0].Text())
	assert.Equal(t, "b", cards[1].Text())
	assert.Equal(t, "c", cards[2].Text())
}

func TestCompileSelector_Malformed(t *testing.T) {
	for _, sel := range []string{"", "   ", "div[", "..card", "a >"} {
		_, err := CompileSelector(sel)
		assert.Error(t, err, "selector %q", sel)
	}
}

func TestExtractRecord_PositionalAndStableIDs(t *testing.T) {
	markup := `
		<div class="card"><h2>First</h2></div>
		<div class="card" data-testid="course-42"><h2>Second</h2></div>
		<div class="card" data-testid=""><h2>Third</h2></div>`

	records := extractAll(t, markup, ".card", nil)
	require.Len(t, records, 3)

	assert.Equal(t, "0", records[0].ID)
	assert.NotContains(t, records[0].ExtractedFields, "data-testid")

	assert.Equal(t, "course-42", records[1].ID)
	assert.Equal(t, strPtr("course-42"), records[1].ExtractedFields["data-testid"])

	assert.Equal(t, "2", records[2].ID)
}

func TestExplicit_HyperlinkPrefersHref(t *testing.T) {
	markup := `
		<div class="card"><a href="https://other.test/a">Link text</a></div>
		<div class="card"><a>Only text</a></div>
		<div class="card"><a href="">Empty href</a></div>`

	records := extractAll(t, markup, ".card", map[string]string{"link": "a"})
	require.Len(t, records, 3)

	assert.Equal(t, strPtr("https://other.test/a"), records[0].ExtractedFields["link"])
	assert.Equal(t, strPtr("Only text"), records[1].ExtractedFields["link"])
	assert.Equal(t, strPtr("Empty href"), records[2].ExtractedFields["link"])
	assert.Equal(t, strPtr("https://other.test/a"), records[0].URL)
}

func TestExplicit_ResolvesPathAbsoluteValues(t *testing.T) {
	markup := `<div class="card"><a href="/foo">x</a><span class="path">/bar?x=1</span><span class="rel">baz</span></div>`

	records := extractAll(t, markup, ".card", map[string]string{
		"url":  "a",
		"path": ".path",
		"rel":  ".rel",
	})
	require.Len(t, records, 1)

	assert.Equal(t, strPtr("https://example.com/foo"), records[0].ExtractedFields["url"])
	assert.Equal(t, strPtr("https://example.com/foo"), records[0].URL)
	assert.Equal(t, strPtr("https://example.com/bar?x=1"), records[0].ExtractedFields["path"])
	assert.Equal(t, strPtr("baz"), records[0].ExtractedFields["rel"])
}

func TestResolveValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/foo", "https://example.com/foo"},
		{"/a/b?c=d", "https://example.com/a/b?c=d"},
		{"foo", "foo"},
		{"https://x.test/y", "https://x.test/y"},
		{"", ""},
		{"//cdn.test/x", "//cdn.test/x"},
		{"//", "//"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveValue(tt.in, searchURL), "input %q", tt.in)
	}
	assert.Equal(t, "/foo", resolveValue("/foo", nil))
}

func TestExplicit_SynonymsAreCaseInsensitive(t *testing.T) {
	markup := `<div class="card"><h3>Pebble Beach</h3><span class="st">CA</span></div>`

	for _, field := range []string{"Name", "TITLE", "name"} {
		t.Run(field, func(t *testing.T) {
			records := extractAll(t, markup, ".card", map[string]string{field: "h3", "STATE": ".st"})
			require.Len(t, records, 1)

			assert.Equal(t, strPtr("Pebble Beach"), records[0].ExtractedFields[field])
			assert.Equal(t, strPtr("Pebble Beach"), records[0].Name)
			assert.Equal(t, strPtr("CA"), records[0].State)
		})
	}
}

func TestExplicit_UnknownFieldOnlyInExtractedFields(t *testing.T) {
	records := extractAll(t, `<div class="card"><b>$45</b></div>`, ".card", map[string]string{"price": "b"})
	require.Len(t, records, 1)

	assert.Equal(t, strPtr("$45"), records[0].ExtractedFields["price"])
	assert.Nil(t, records[0].Name)
	assert.Nil(t, records[0].URL)
	assert.Nil(t, records[0].State)
}

func TestExplicit_FailedFieldDoesNotAffectSiblings(t *testing.T) {
	markup := `
		<div class="card"><h2>One</h2><a href="/one">go</a></div>
		<div class="card"><h2>Two</h2></div>`

	records := extractAll(t, markup, ".card", map[string]string{
		"name":    "h2",
		"url":     "a",
		"broken":  "div[",
		"missing": ".nope",
	})
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, strPtr("One"), first.ExtractedFields["name"])
	assert.Equal(t, strPtr("https://example.com/one"), first.ExtractedFields["url"])
	assert.Contains(t, first.ExtractedFields, "broken")
	assert.Nil(t, first.ExtractedFields["broken"])
	assert.Contains(t, first.ExtractedFields, "missing")
	assert.Nil(t, first.ExtractedFields["missing"])

	second := records[1]
	assert.Equal(t, strPtr("Two"), second.ExtractedFields["name"])
	assert.Contains(t, second.ExtractedFields, "url")
	assert.Nil(t, second.ExtractedFields["url"])
	assert.Nil(t, second.URL)
}

func TestExplicit_TextIsWhitespaceCollapsed(t *testing.T) {
	records := extractAll(t, "<div class=\"card\"><h2>\n  Torrey \n\t Pines  </h2></div>", ".card", map[string]string{"name": "h2"})
	require.Len(t, records, 1)
	assert.Equal(t, strPtr("Torrey Pines"), records[0].Name)
}

func TestHeuristic_HeadingPriority(t *testing.T) {
	markup := `<div class="card"><h3>Minor</h3><h1>Major</h1><a href="">empty</a><a href="/course/7">Book</a></div>`

	records := extractAll(t, markup, ".card", nil)
	require.Len(t, records, 1)

	assert.Equal(t, strPtr("Major"), records[0].Name)
	assert.Equal(t, strPtr("https://example.com/course/7"), records[0].URL)
	assert.Equal(t, strPtr("Major"), records[0].ExtractedFields["name"])
	assert.Equal(t, strPtr("https://example.com/course/7"), records[0].ExtractedFields["url"])
}

func TestHeuristic_NameFallback(t *testing.T) {
	tests := map[string]string{
		"class":  `<div class="card"><span class="name">By class</span></div>`,
		"id":     `<div class="card"><span id="course-name-1">By id</span></div>`,
		"testid": `<div class="card"><span data-testid="facility-name">By testid</span></div>`,
	}
	want := map[string]string{"class": "By class", "id": "By id", "testid": "By testid"}

	for name, markup := range tests {
		t.Run(name, func(t *testing.T) {
			records := extractAll(t, markup, ".card", nil)
			require.Len(t, records, 1)
			assert.Equal(t, strPtr(want[name]), records[0].Name)
		})
	}
}

func TestHeuristic_NothingFound(t *testing.T) {
	records := extractAll(t, `<div class="card"><p>plain</p></div>`, ".card", nil)
	require.Len(t, records, 1)

	assert.Equal(t, "0", records[0].ID)
	assert.Nil(t, records[0].Name)
	assert.Nil(t, records[0].URL)
	assert.NotNil(t, records[0].ExtractedFields)
	assert.Empty(t, records[0].ExtractedFields)
}

func TestExtractRecord_RawMarkupIsOuterHTML(t *testing.T) {
	records := extractAll(t, `<ul><li class="card" data-x="1"><b>Hi</b></li></ul>`, ".card", map[string]string{"x": ".nope"})
	require.Len(t, records, 1)
	assert.Equal(t, `<li class="card" data-x="1"><b>Hi</b></li>`, records[0].RawMarkup)
}

func TestExtractAll_CanceledContext(t *testing.T) {
	cards := selectCards(t, `<div class="card"></div><div class="card"></div>`, ".card")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(1).ExtractAll(ctx, cards, searchURL, HeuristicStrategy{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFacilityCards(t *testing.T) {
	markup := `<html><body>
		<div data-testid="facility-card-101"><h2>Pine Hills</h2><a href="/facility/101">View</a></div>
		<div data-testid="facility-card-202"><h2>Oak Ridge</h2><a href="/facility/202">View</a></div>
		<div data-testid="promo"><h2>Ad</h2></div>
	</body></html>`

	records := extractAll(t, markup, `[data-testid^='facility-card-']`, map[string]string{"name": "h2", "url": "a"})
	require.Len(t, records, 2)

	assert.Equal(t, "facility-card-101", records[0].ID)
	assert.Equal(t, strPtr("Pine Hills"), records[0].Name)
	assert.Equal(t, strPtr("https://example.com/facility/101"), records[0].URL)

	assert.Equal(t, "facility-card-202", records[1].ID)
	assert.Equal(t, strPtr("Oak Ridge"), records[1].Name)
	assert.Equal(t, strPtr("https://example.com/facility/202"), records[1].URL)
	assert.Equal(t, strPtr("facility-card-202"), records[1].ExtractedFields["data-testid"])
}

func TestTypedFieldFor(t *testing.T) {
	assert.Equal(t, FieldName, TypedFieldFor("Title"))
	assert.Equal(t, FieldURL, TypedFieldFor("HREF"))
	assert.Equal(t, FieldURL, TypedFieldFor("Link"))
	assert.Equal(t, FieldState, TypedFieldFor("state"))
	assert.Equal(t, FieldNone, TypedFieldFor("price"))
}
