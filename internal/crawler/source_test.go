package crawler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body>
<div class="goods-list">
	<a href="/jg2000595-5/1754308923230271.html">账号A</a>
	<a href="https://www.jiaoyimao.com/jg2000595-5/1754303127616003.html?from=list">账号B</a>
	<a href="1754310977123456.html">账号C</a>
	<a href="/jg2000595-5/1754308923230271.html#comments">账号A 评论</a>
	<a href="/jg2000595-5/help.html">帮助</a>
	<a href="/jg2000595-6/1754308000000000.html">其他区服</a>
	<a href="https://evil.example.com/jg2000595-5/1754308923230271.html">外链</a>
	<a href="/jg2000595-5/?page=2">下一页</a>
</div>
</body></html>`

type mockDocumentFetcher struct {
	html string
	err  error
	url  string
}

func (m *mockDocumentFetcher) FetchDocument(_ context.Context, url string) (*goquery.Document, error) {
	m.url = url
	if m.err != nil {
		return nil, m.err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(m.html))
}

func TestStaticSource(t *testing.T) {
	source := StaticSource{targetURL, expensiveURL}

	urls, err := source.ProductURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{targetURL, expensiveURL}, urls)

	// Callers cannot modify the source through the result
	urls[0] = "changed"
	assert.Equal(t, targetURL, source[0])
}

func TestListingSource(t *testing.T) {
	docs := &mockDocumentFetcher{html: listingHTML}
	source := &ListingSource{
		ListingURL: "https://www.jiaoyimao.com/jg2000595-5/",
		Documents:  docs,
	}

	urls, err := source.ProductURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://www.jiaoyimao.com/jg2000595-5/", docs.url)
	assert.Equal(t, []string{
		"https://www.jiaoyimao.com/jg2000595-5/1754308923230271.html",
		"https://www.jiaoyimao.com/jg2000595-5/1754303127616003.html",
		"https://www.jiaoyimao.com/jg2000595-5/1754310977123456.html",
	}, urls)
}

func TestListingSourceLimit(t *testing.T) {
	source := &ListingSource{
		ListingURL: "https://www.jiaoyimao.com/jg2000595-5/",
		Documents:  &mockDocumentFetcher{html: listingHTML},
		Limit:      2,
	}

	urls, err := source.ProductURLs(context.Background())
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestListingSourceErrors(t *testing.T) {
	source := &ListingSource{
		ListingURL: "https://www.jiaoyimao.com/jg2000595-5/",
		Documents:  &mockDocumentFetcher{err: errors.New("timeout")},
	}
	_, err := source.ProductURLs(context.Background())
	assert.ErrorContains(t, err, "timeout")

	source.Documents = &mockDocumentFetcher{html: "<html><body>维护中</body></html>"}
	_, err = source.ProductURLs(context.Background())
	assert.ErrorContains(t, err, "no product links")
}
