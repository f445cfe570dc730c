package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"golang.org/x/net/html/charset"

	"pricesnap/logger"
	"pricesnap/services/cache"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

const (
	staticAttempts = 2
	staticBackoff  = time.Second
	blockDuration  = 5 * time.Minute
)

// Strategy acquires the HTML of one page. Implementations must honor the
// context deadline.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Chain tries strategies in order and returns the first successful HTML.
// When every strategy fails it returns the last error; callers treat that
// as a soft page skip.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a fetch chain from an ordered list of strategies.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Fetch runs the chain for one URL.
func (c *Chain) Fetch(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for _, s := range c.strategies {
		html, err := s.Fetch(ctx, pageURL)
		if err == nil && html != "" {
			return html, nil
		}
		if err != nil {
			lastErr = err
			logger.ForComponent("fetcher").Debug().
				Str("strategy", s.Name()).
				Str("url", pageURL).
				Err(err).
				Msg("Strategy failed, trying next")
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no strategy produced HTML for %s", pageURL)
	}
	return "", lastErr
}

// StaticStrategy issues direct HTTP GETs with browser-like headers,
// following redirects, with a bounded retry. Responses are converted to
// UTF-8 before parsing. A rate-limited host is blocked for a while through
// the cache service so concurrent site crawls back off too.
type StaticStrategy struct {
	client   *http.Client
	cacheSvc cache.CacheService
}

// NewStaticStrategy creates a static fetch strategy. cacheSvc may be nil,
// which disables cross-run rate-limit blocking.
func NewStaticStrategy(timeout time.Duration, cacheSvc cache.CacheService) *StaticStrategy {
	return &StaticStrategy{
		client:   &http.Client{Timeout: timeout},
		cacheSvc: cacheSvc,
	}
}

// Name identifies the strategy in logs and metrics.
func (s *StaticStrategy) Name() string { return "static" }

// Fetch performs the GET with up to staticAttempts tries and fixed backoff.
func (s *StaticStrategy) Fetch(ctx context.Context, pageURL string) (string, error) {
	blockKey := "block:" + hostOf(pageURL)
	if s.cacheSvc != nil {
		if _, err := s.cacheSvc.Get(blockKey); err == nil {
			return "", newError(KindRateLimit, hostOf(pageURL), fmt.Errorf("host is blocked after rate limiting"))
		}
	}

	var lastErr error
	for attempt := 0; attempt < staticAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(staticBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		html, err := s.fetchOnce(ctx, pageURL, blockKey)
		if err == nil {
			return html, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (s *StaticStrategy) fetchOnce(ctx context.Context, pageURL, blockKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ar;q=0.8")
	req.Header.Set("Referer", pageURL)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", newError(KindNetwork, hostOf(pageURL), err)
	}
	defer resp.Body.Close()

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		if s.cacheSvc != nil {
			s.cacheSvc.Set(blockKey, []byte(resp.Header.Get("Retry-After")), blockDuration)
		}
		return "", newError(KindRateLimit, hostOf(pageURL), fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newError(KindNetwork, hostOf(pageURL), fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindNetwork, hostOf(pageURL), fmt.Errorf("failed to read response body: %w", err))
	}

	return toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
}

// toUTF8 converts a response body to UTF-8 based on headers and content.
func toUTF8(body []byte, contentType string) (string, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return string(body), nil
	}

	reader := enc.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("failed to convert body to UTF-8: %w", err)
	}
	return buf.String(), nil
}
