// Package extractor turns matched card elements into ExtractedRecords.
package extractor

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/cardscrape/models"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel per-card extraction.
const DefaultConcurrency = 8

// Extractor runs a Strategy over every matched card.
type Extractor struct {
	concurrency int
}

// New creates an Extractor. concurrency < 1 uses DefaultConcurrency.
func New(concurrency int) *Extractor {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Extractor{concurrency: concurrency}
}

// ExtractAll extracts one record per card. Cards are independent and run in
// parallel; records come back in the order of cards. The only error is
// context cancellation.
func (e *Extractor) ExtractAll(ctx context.Context, cards []*goquery.Selection, base *url.URL, strategy Strategy) ([]models.ExtractedRecord, error) {
	records := make([]models.ExtractedRecord, len(cards))
	if len(cards) == 0 {
		return records, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, card := range cards {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = ExtractRecord(card, i, base, strategy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// ExtractRecord builds the record for the card at position index. It has no
// side effects besides debug logging.
func ExtractRecord(card *goquery.Selection, index int, base *url.URL, strategy Strategy) models.ExtractedRecord {
	rec := &recordBuilder{
		id:     strconv.Itoa(index),
		fields: make(map[string]*string),
	}

	strategy.apply(card, base, rec)

	if attr, value, ok := stableIdentifier(card); ok {
		rec.id = value
		v := value
		rec.setField(attr, &v)
	}

	return models.ExtractedRecord{
		ID:              rec.id,
		Name:            rec.name,
		URL:             rec.url,
		State:           rec.state,
		RawMarkup:       outerHTML(card),
		ExtractedFields: rec.fields,
	}
}

// recordBuilder accumulates one record while a Strategy runs.
type recordBuilder struct {
	id     string
	name   *string
	url    *string
	state  *string
	fields map[string]*string
}

func (r *recordBuilder) setField(name string, value *string) {
	r.fields[name] = value
}

func (r *recordBuilder) setTyped(f TypedField, value string) {
	v := value
	switch f {
	case FieldName:
		r.name = &v
	case FieldURL:
		r.url = &v
	case FieldState:
		r.state = &v
	}
}

// outerHTML renders the card element itself, tags included.
func outerHTML(card *goquery.Selection) string {
	if card.Length() == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, card.Get(0)); err != nil {
		slog.Debug("failed to render card markup", "error", err)
		return ""
	}
	return buf.String()
}
