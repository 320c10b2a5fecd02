package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	targetURL    = "https://www.jiaoyimao.com/jg2000595-5/1754308923230271.html"
	expensiveURL = "https://www.jiaoyimao.com/jg2000595-5/1754303127616003.html"
	brokenURL    = "https://www.jiaoyimao.com/jg2000595-5/1754310977123456.html"
)

var fixedNow = time.Date(2025, 8, 5, 9, 30, 0, 0, time.UTC)

func newTestAssembler(fetcher PageFetcher) *Assembler {
	a := NewAssembler(fetcher, time.UTC)
	a.Now = func() time.Time { return fixedNow }
	return a
}

func TestAssembleTargetProduct(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.pages[targetURL] = "商品详情 价格: 800元 已用无畏点: 1,500 其他 999元"

	record, err := newTestAssembler(fetcher).Assemble(context.Background(), targetURL)
	require.NoError(t, err)

	assert.Equal(t, targetURL, record.URL)
	assert.Equal(t, 800.0, record.Price)
	assert.Equal(t, 1500, record.WuweiPoints)
	assert.Equal(t, "2025-08-04 12:02:03", record.PublishTime)
	assert.Equal(t, 800/(1500.0/10), record.Discount)
	assert.InDelta(t, 5.333, record.Discount, 0.001)
	assert.True(t, record.IsTarget)
	assert.Equal(t, fixedNow, record.FetchedAt)
}

func TestAssembleExpensiveProduct(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.pages[expensiveURL] = "价格: 1200元 无畏点: 2,000"

	record, err := newTestAssembler(fetcher).Assemble(context.Background(), expensiveURL)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, record.Price)
	assert.Equal(t, 2000, record.WuweiPoints)
	assert.Equal(t, 6.0, record.Discount)
	assert.False(t, record.IsTarget)
}

func TestAssembleMissingFieldsUseDefaults(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.pages[targetURL] = "商品已下架"

	record, err := newTestAssembler(fetcher).Assemble(context.Background(), targetURL)
	require.NoError(t, err)

	assert.Equal(t, 0.0, record.Price)
	assert.Equal(t, 0, record.WuweiPoints)
	assert.Equal(t, 0.0, record.Discount)
	assert.False(t, record.IsTarget)
}

func TestAssembleFetchFailure(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.errs[brokenURL] = errors.New("connection reset")

	_, err := newTestAssembler(fetcher).Assemble(context.Background(), brokenURL)
	assert.ErrorContains(t, err, "connection reset")
}

func TestAssembleRejectsRelativeURL(t *testing.T) {
	fetcher := NewMockFetcher()

	_, err := newTestAssembler(fetcher).Assemble(context.Background(), "/jg2000595-5/1754308923230271.html")
	assert.ErrorContains(t, err, "absolute")
	assert.Empty(t, fetcher.calls)
}

func TestProductRecordJSON(t *testing.T) {
	record := ProductRecord{
		URL:         targetURL,
		Price:       800,
		WuweiPoints: 1500,
		PublishTime: "2025-08-04 12:02:03",
		Discount:    5.5,
		IsTarget:    true,
		FetchedAt:   fixedNow,
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, targetURL, decoded["url"])
	assert.Equal(t, 800.0, decoded["price"])
	assert.Equal(t, 1500.0, decoded["wuwei_points"])
	assert.Equal(t, true, decoded["is_target"])
	assert.Equal(t, "2025-08-05 09:30:00", decoded["fetched_at"])
	assert.Len(t, decoded, 7)
}
