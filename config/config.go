package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"sjsage522/wuweimonitor/pkg/errors"
)

// DefaultProductURLs is the product list refreshed when discovery is off.
var DefaultProductURLs = []string{
	"https://www.jiaoyimao.com/jg2000595-5/1754308923230271.html",
	"https://www.jiaoyimao.com/jg2000595-5/1754303127616003.html",
	"https://www.jiaoyimao.com/jg2000595-5/1754310977123456.html",
}

// Config represents the application configuration
type Config struct {
	// HTTP server
	HTTPAddr string

	// Source site
	ListingURL       string
	ProductURLs      []string
	DiscoverProducts bool
	MaxProducts      int

	// Refresh pipeline
	FreshnessWindow time.Duration
	RequestDelay    time.Duration
	FetchTimeout    time.Duration
	RateLimitBlock  time.Duration
	RefreshSchedule string
	Timezone        string

	// Dashboard
	PollInterval time.Duration

	// Memcache configuration, empty means in-process cache
	MemcacheAddr string

	// Redis configuration, empty address disables target notifications
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int
	NotifyTTL            time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		ListingURL:           getEnv("LISTING_URL", "https://www.jiaoyimao.com/jg2000595-5/"),
		ProductURLs:          getEnvList("PRODUCT_URLS", DefaultProductURLs),
		DiscoverProducts:     getEnvBool("DISCOVER_PRODUCTS", false),
		MaxProducts:          getEnvInt("MAX_PRODUCTS", 20),
		FreshnessWindow:      time.Duration(getEnvInt("FRESHNESS_WINDOW_SECONDS", 600)) * time.Second,
		RequestDelay:         time.Duration(getEnvInt("REQUEST_DELAY_MILLIS", 1000)) * time.Millisecond,
		FetchTimeout:         time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		RateLimitBlock:       time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,
		RefreshSchedule:      getEnv("REFRESH_SCHEDULE", ""),
		Timezone:             getEnv("TIMEZONE", "Asia/Shanghai"),
		PollInterval:         time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 300)) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "wuwei:targets"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		NotifyTTL:            time.Duration(getEnvInt("NOTIFY_TTL_SECONDS", 86400)) * time.Second,
		Environment:          getEnv("MONITOR_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.NewConfiguration("HTTP_ADDR must not be empty", nil)
	}
	if _, err := url.ParseRequestURI(c.ListingURL); err != nil {
		return errors.NewConfiguration("LISTING_URL is not a valid URL", err)
	}
	if !c.DiscoverProducts && len(c.ProductURLs) == 0 {
		return errors.NewConfiguration("PRODUCT_URLS is empty and discovery is disabled", nil)
	}
	if c.DiscoverProducts && c.MaxProducts <= 0 {
		return errors.NewConfiguration("MAX_PRODUCTS must be positive", nil)
	}
	if c.FreshnessWindow <= 0 {
		return errors.NewConfiguration("FRESHNESS_WINDOW_SECONDS must be positive", nil)
	}
	if c.RequestDelay < 0 {
		return errors.NewConfiguration("REQUEST_DELAY_MILLIS must not be negative", nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RateLimitBlock <= 0 {
		return errors.NewConfiguration("RATE_LIMIT_BLOCK_SECONDS must be positive", nil)
	}
	if c.NotifyTTL <= 0 {
		return errors.NewConfiguration("NOTIFY_TTL_SECONDS must be positive", nil)
	}
	if c.PollInterval <= 0 {
		return errors.NewConfiguration("POLL_INTERVAL_SECONDS must be positive", nil)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return errors.NewConfiguration("REFRESH_SCHEDULE is not a valid cron expression", err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.NewConfiguration("TIMEZONE is not a known location", err)
	}
	return nil
}

// Location returns the configured time zone, falling back to local time
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return append([]string(nil), defaultValue...)
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
