package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/wuweimonitor/helpers"
	"sjsage522/wuweimonitor/pkg/errors"
	"sjsage522/wuweimonitor/services/cache"
)

// HTTPFetcher fetches pages from the source site. After the site answers
// with a rate limiting status it refuses to send requests for BlockTime or
// the site's Retry-After, whichever is longer, remembering the block under
// CacheKey in CacheSvc. A non-positive BlockTime disables the block.
type HTTPFetcher struct {
	Client    *http.Client
	Referer   string
	CacheSvc  cache.CacheService
	CacheKey  string
	BlockTime time.Duration

	fetch func(ctx context.Context, url string) (io.Reader, error)
}

// NewHTTPFetcher creates a fetcher sending the listing URL as Referer
func NewHTTPFetcher(client *http.Client, referer string, cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	f := &HTTPFetcher{
		Client:    client,
		Referer:   referer,
		CacheSvc:  cacheSvc,
		CacheKey:  "jiaoyimao_rate_limited",
		BlockTime: blockTime,
	}
	f.fetch = f.fetchWithRandomHeaders
	return f
}

func (f *HTTPFetcher) fetchWithRandomHeaders(ctx context.Context, url string) (io.Reader, error) {
	return helpers.FetchWithRandomHeaders(ctx, f.Client, url, f.Referer)
}

// fetchWithCache fetches a URL unless the site is currently blocking us
func (f *HTTPFetcher) fetchWithCache(ctx context.Context, url string) (io.Reader, error) {
	blocking := f.CacheSvc != nil && f.CacheKey != "" && f.BlockTime > 0

	if blocking {
		if _, err := f.CacheSvc.Get(f.CacheKey); err == nil {
			return nil, errors.NewRateLimit(f.CacheKey, f.BlockTime)
		}
	}

	body, err := f.fetch(ctx, url)
	if err != nil {
		var rateLimited *errors.MonitorError
		if blocking && stderrors.As(err, &rateLimited) && rateLimited.Type == errors.ErrorTypeRateLimit {
			block := max(f.BlockTime, rateLimited.RetryAfter)
			blockSeconds := fmt.Sprintf("%d", int(block/time.Second))
			if setErr := f.CacheSvc.Set(f.CacheKey, []byte(blockSeconds), block); setErr != nil {
				return nil, stderrors.Join(err, errors.NewCache(f.CacheKey, "failed to store rate limit block", setErr))
			}
		}
		return nil, err
	}

	return body, nil
}

// FetchDocument fetches and parses an HTML page
func (f *HTTPFetcher) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.fetchWithCache(ctx, url)
	if err != nil {
		return nil, err
	}
	return createDocument(url, body)
}

// nonTextElements hold markup or code rather than page text
const nonTextElements = "script, style, template"

// FetchText fetches a page and returns its visible text content
func (f *HTTPFetcher) FetchText(ctx context.Context, url string) (string, error) {
	doc, err := f.FetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	// Clone so the fetched document is left untouched
	clone := doc.Selection.Clone()
	clone.Find(nonTextElements).Remove()
	return clone.Text(), nil
}

// createDocument creates a goquery document from a reader
func createDocument(url string, reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, errors.NewParsing(url, "failed to parse HTML", err)
	}
	return doc, nil
}
