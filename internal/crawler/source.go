package crawler

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/wuweimonitor/helpers"
	"sjsage522/wuweimonitor/pkg/errors"
)

// productPagePattern matches product detail page names, e.g. 1754308923230271.html
var productPagePattern = regexp.MustCompile(`^\d{10,}\.html$`)

// StaticSource is a fixed list of product URLs
type StaticSource []string

// ProductURLs returns a copy of the list
func (s StaticSource) ProductURLs(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// ListingSource discovers product URLs on the listing page. Only links to
// detail pages directly below the listing path are kept, in page order,
// without duplicates and at most Limit of them.
type ListingSource struct {
	ListingURL string
	Documents  DocumentFetcher
	Limit      int
}

// ProductURLs fetches the listing page and collects product links
func (s *ListingSource) ProductURLs(ctx context.Context) ([]string, error) {
	base, err := url.Parse(s.ListingURL)
	if err != nil {
		return nil, errors.NewValidation(s.ListingURL, "invalid listing URL")
	}

	doc, err := s.Documents.FetchDocument(ctx, s.ListingURL)
	if err != nil {
		return nil, err
	}

	urls := productLinks(doc, base, s.Limit)
	if len(urls) == 0 {
		return nil, errors.NewParsing(s.ListingURL, "no product links found on listing page", nil)
	}
	return urls, nil
}

func productLinks(doc *goquery.Document, base *url.URL, limit int) []string {
	listingDir := strings.TrimSuffix(base.Path, "/")
	seen := make(map[string]struct{})
	var urls []string

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		link, err := helpers.ResolveURL(base, href)
		if err != nil || link.Host != base.Host {
			return true
		}
		if path.Dir(link.Path) != listingDir || !productPagePattern.MatchString(path.Base(link.Path)) {
			return true
		}

		link.RawQuery = ""
		link.Fragment = ""
		key := link.String()
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		urls = append(urls, key)

		return limit <= 0 || len(urls) < limit
	})

	return urls
}
