package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"sjsage522/wuweimonitor/pkg/errors"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
	}

	defaultClient = &http.Client{
		Timeout: 10 * time.Second,
	}

	// rateLimitStatuses are treated as a request to back off
	rateLimitStatuses = []int{http.StatusTooManyRequests, 430}

	defaultRetryAfter = 60 * time.Second
)

// NewClient returns an HTTP client with the given per-request timeout
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// RandomUserAgent picks one of the known browser user agents
func RandomUserAgent() string {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	return userAgents[rnd.Intn(len(userAgents))]
}

// FetchWithRandomHeaders sends an HTTP GET request with browser-like headers and a
// random User-Agent, converts the response body to UTF-8 (if needed), and returns it
// as an io.Reader. A nil client uses a client with a 10 second timeout.
//
// Rate limiting responses are returned as rate_limit errors carrying the
// Retry-After duration, other failures as network errors.
func FetchWithRandomHeaders(ctx context.Context, client *http.Client, url, referer string) (io.Reader, error) {
	if client == nil {
		client = defaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewNetwork(url, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(url, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if slices.Contains(rateLimitStatuses, resp.StatusCode) {
		return nil, errors.NewRateLimit(url, retryAfter(resp.Header.Get("Retry-After")))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewNetwork(url, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(url, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, errors.NewParsing(url, "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}

// retryAfter parses a Retry-After header given in seconds
func retryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}
