package crawler

import (
	"context"
	"net/url"
	"time"

	"sjsage522/wuweimonitor/pkg/errors"
)

// Assembler builds one ProductRecord per product URL
type Assembler struct {
	Fetcher   PageFetcher
	Extractor *Extractor
	Location  *time.Location
	Now       func() time.Time
}

// NewAssembler creates an assembler using the default extraction patterns
func NewAssembler(fetcher PageFetcher, loc *time.Location) *Assembler {
	return &Assembler{
		Fetcher:   fetcher,
		Extractor: DefaultExtractor(),
		Location:  loc,
		Now:       time.Now,
	}
}

// Assemble fetches the product page and derives the record from it.
// Missing fields fall back to their defaults; an error means the product
// could not be processed at all and must be left out of the batch.
func (a *Assembler) Assemble(ctx context.Context, productURL string) (ProductRecord, error) {
	u, err := url.Parse(productURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ProductRecord{}, errors.NewValidation(productURL, "not an absolute http(s) URL")
	}

	text, err := a.Fetcher.FetchText(ctx, productURL)
	if err != nil {
		return ProductRecord{}, err
	}

	extractor := a.Extractor
	if extractor == nil {
		extractor = DefaultExtractor()
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}

	price := extractor.ExtractPrice(text)
	points := extractor.ExtractPoints(text)
	discount := CalculateDiscount(price, points)

	return ProductRecord{
		URL:         productURL,
		Price:       price,
		WuweiPoints: points,
		PublishTime: DecodePublishTime(productURL, loc),
		Discount:    discount,
		IsTarget:    IsTarget(price, discount),
		FetchedAt:   now().In(loc),
	}, nil
}
