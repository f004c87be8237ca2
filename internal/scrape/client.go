package scrape

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to stay under the source sites' rate limits
	MinRequestInterval = 3 * time.Second
)

// PageCache stores fetched page bodies by URL.
type PageCache interface {
	GetPage(ctx context.Context, url string) (string, bool, error)
	SetPage(ctx context.Context, url, body string, ttl time.Duration) error
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Interval time.Duration
	Cache    PageCache
	CacheTTL time.Duration
	Logger   *log.Logger
}

// Client fetches HTML pages with rate limiting and an optional page cache
type Client struct {
	http     *resty.Client
	cache    PageCache
	cacheTTL time.Duration
	logger   *log.Logger

	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration
}

// NewClient creates a new rate limited page client
func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetHeader("User-Agent", UserAgent)
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(5 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return r != nil && r.StatusCode() == 429
	})

	interval := opts.Interval
	if interval <= 0 {
		interval = MinRequestInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[scrape] ", log.LstdFlags)
	}

	return &Client{
		http:     client,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
		interval: interval,
	}
}

// FetchPage returns the body of url, from the cache when possible.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	if c.cache != nil {
		body, ok, err := c.cache.GetPage(ctx, url)
		if err != nil {
			c.logger.Printf("Warning: page cache read failed for %s: %v", url, err)
		} else if ok {
			return body, nil
		}
	}

	body, err := c.fetchWithRateLimit(ctx, url)
	if err != nil {
		return "", err
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.SetPage(ctx, url, body, c.cacheTTL); err != nil {
			c.logger.Printf("Warning: page cache write failed for %s: %v", url, err)
		}
	}

	return body, nil
}

// fetchWithRateLimit fetches content with automatic rate limiting
func (c *Client) fetchWithRateLimit(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRequest.IsZero() {
		elapsed := time.Since(c.lastRequest)
		if elapsed < c.interval {
			waitTime := c.interval - elapsed
			c.logger.Printf("Rate limiting: waiting %v before next request", waitTime)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	res, err := c.http.R().SetContext(ctx).Get(url)
	c.lastRequest = time.Now()
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("fetching %s: status %d", url, res.StatusCode())
	}

	return res.String(), nil
}

// ParseHTML converts raw HTML to a goquery Document for parsing
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
