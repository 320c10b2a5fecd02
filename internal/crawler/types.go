package crawler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TimeLayout is the layout used for publish and fetch timestamps
const TimeLayout = "2006-01-02 15:04:05"

// ProductRecord is the result of processing one product detail page.
// Records are values and are never modified after assembly.
type ProductRecord struct {
	URL         string    `json:"url"`
	Price       float64   `json:"price"`
	WuweiPoints int       `json:"wuwei_points"`
	PublishTime string    `json:"publish_time"`
	Discount    float64   `json:"discount"`
	IsTarget    bool      `json:"is_target"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// MarshalJSON formats FetchedAt the same way as PublishTime
func (r ProductRecord) MarshalJSON() ([]byte, error) {
	type record ProductRecord
	return json.Marshal(struct {
		record
		FetchedAt string `json:"fetched_at"`
	}{
		record:    record(r),
		FetchedAt: r.FetchedAt.Format(TimeLayout),
	})
}

// PageFetcher returns the text content of a product detail page
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// DocumentFetcher returns a parsed HTML document
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// URLSource lists the product URLs processed by one refresh
type URLSource interface {
	ProductURLs(ctx context.Context) ([]string, error)
}

// RecordAssembler turns one product URL into a record
type RecordAssembler interface {
	Assemble(ctx context.Context, url string) (ProductRecord, error)
}
