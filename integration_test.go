package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/wuweimonitor/config"
	"sjsage522/wuweimonitor/internal/monitor"
	"sjsage522/wuweimonitor/internal/server"
	"sjsage522/wuweimonitor/services/cache"
	"sjsage522/wuweimonitor/services/notifier"
)

// listingHTML mimics a jiaoyimao listing page
const listingHTML = `
<!DOCTYPE html>
<html>
<body>
    <ul class="list">
        <li><a href="/g4514/1754450023648719.html">号1</a></li>
        <li><a href="1754308923940550.html?from=list">号2</a></li>
        <li><a href="/g4514/1753586595662958.html">号3</a></li>
        <li><a href="/help/1754450023648719.html">帮助</a></li>
    </ul>
</body>
</html>
`

var productPages = map[string]string{
	"/g4514/1754450023648719.html": `<html><body><div class="price">价格：500元</div><div>已用无畏点：1,000</div></body></html>`,
	"/g4514/1754308923940550.html": `<html><body><div class="price">价格：800元</div><div>无畏点：15000</div></body></html>`,
}

// MockPublisher collects published messages
type MockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (m *MockPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *MockPublisher) TrimStreams(context.Context) error { return nil }

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func newSourceSite(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/g4514/" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, listingHTML)
			return
		}
		page, ok := productPages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	}))
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Products []struct {
			URL         string  `json:"url"`
			Price       float64 `json:"price"`
			WuweiPoints int     `json:"wuwei_points"`
			Discount    float64 `json:"discount"`
			IsTarget    bool    `json:"is_target"`
			PublishTime string  `json:"publish_time"`
		} `json:"products"`
		TotalCount  int    `json:"total_count"`
		TargetCount int    `json:"target_count"`
		LastUpdate  string `json:"last_update"`
	} `json:"data"`
}

func getJSON(t *testing.T, url string) apiResponse {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// TestIntegration runs discovery, assembly, caching and the HTTP API together
func TestIntegration(t *testing.T) {
	var hits atomic.Int32
	site := newSourceSite(t, &hits)
	defer site.Close()

	t.Setenv("LISTING_URL", site.URL+"/g4514/")
	t.Setenv("DISCOVER_PRODUCTS", "true")
	t.Setenv("REQUEST_DELAY_MILLIS", "5")
	cfg := config.LoadConfig()
	require.NoError(t, cfg.Validate())

	cacheSvc := cache.NewMemoryService()
	pub := &MockPublisher{}
	n := notifier.New(pub, cacheSvc, time.Hour)

	mon := monitor.New(newCollector(cfg, cacheSvc), cfg.FreshnessWindow, monitor.WithHooks(n.HandleRefresh))
	api := httptest.NewServer(server.New(mon, cfg.Location(), cfg.PollInterval, nil).Routes())
	defer api.Close()

	body := getJSON(t, api.URL+"/api/products")
	require.True(t, body.Success)
	require.Len(t, body.Data.Products, 2)
	assert.Equal(t, 2, body.Data.TotalCount)
	assert.Equal(t, 1, body.Data.TargetCount)
	assert.NotEqual(t, server.NotUpdated, body.Data.LastUpdate)

	target := body.Data.Products[0]
	assert.Equal(t, site.URL+"/g4514/1754450023648719.html", target.URL)
	assert.Equal(t, 500.0, target.Price)
	assert.Equal(t, 1000, target.WuweiPoints)
	assert.Equal(t, 5.0, target.Discount)
	assert.True(t, target.IsTarget)
	assert.Equal(t, "2025-08-06 11:13:43", target.PublishTime)

	other := body.Data.Products[1]
	assert.Equal(t, site.URL+"/g4514/1754308923940550.html", other.URL)
	assert.False(t, other.IsTarget)
	assert.InDelta(t, 0.533, other.Discount, 0.001)

	// listing + three product pages
	assert.Equal(t, int32(4), hits.Load())
	assert.Equal(t, 1, pub.Count())

	// A second read inside the window is served from the cache
	body = getJSON(t, api.URL+"/api/products?only_targets=true")
	require.True(t, body.Success)
	require.Len(t, body.Data.Products, 1)
	assert.Equal(t, int32(4), hits.Load())

	// A manual refresh goes back to the site, the target is not announced twice
	body = getJSON(t, api.URL+"/api/refresh")
	require.True(t, body.Success)
	assert.Equal(t, "数据刷新成功", body.Message)
	assert.Equal(t, 2, body.Data.TotalCount)
	assert.Equal(t, int32(8), hits.Load())
	assert.Equal(t, 1, pub.Count())
}
