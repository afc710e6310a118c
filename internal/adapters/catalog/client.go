// Package catalog fetches hotel reference data (rates, meal plans, seasonal
// prices) from the upstream content API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stay_pricing/internal/adapters/observability"
	"stay_pricing/internal/domain"
)

// RetryPolicy governs retries of 429 and transient 5xx answers. A sync run
// imports many hotels with few workers, so MaxWait caps how long one hotel may
// hold a worker on an upstream Retry-After.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	MaxWait  time.Duration
}

var DefaultRetry = RetryPolicy{Attempts: 4, Base: 200 * time.Millisecond, MaxWait: 10 * time.Second}

// wait is the pause before attempt n+1: Retry-After when the upstream sent
// one, otherwise Base doubled per attempt plus up to 50% jitter.
func (p RetryPolicy) wait(n int, retryAfter time.Duration) time.Duration {
	d := retryAfter
	if d <= 0 {
		d = p.Base << n
		d += time.Duration(rand.Int64N(int64(d)/2 + 1))
	}
	return min(d, p.MaxWait)
}

type Client struct {
	base  string
	hc    *http.Client
	key   string
	rl    *rate.Limiter
	retry RetryPolicy
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		key:   key,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
		retry: DefaultRetry,
	}, nil
}

// WithRetry replaces the retry policy; zero fields keep the defaults.
func (c *Client) WithRetry(p RetryPolicy) *Client {
	if p.Attempts > 0 {
		c.retry.Attempts = p.Attempts
	}
	if p.Base > 0 {
		c.retry.Base = p.Base
	}
	if p.MaxWait > 0 {
		c.retry.MaxWait = p.MaxWait
	}
	return c
}

var (
	// ErrNotFound matches domain.ErrNotFound via errors.Is.
	ErrNotFound     = fmt.Errorf("catalog: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("catalog: unauthorized")
	ErrForbidden    = errors.New("catalog: forbidden")
)

func (c *Client) GetHotel(ctx context.Context, id int64) (map[string]any, error) {
	candidates := []string{
		fmt.Sprintf("%s/hotels/%d", c.base, id),
		fmt.Sprintf("%s/hotel/%d", c.base, id), // legacy
	}
	var raw json.RawMessage
	if err := c.getFirst(ctx, "hotel", candidates, &raw); err != nil {
		return nil, err
	}
	var out map[string]any
	if err := decodeNumbers(raw, &out); err != nil {
		return nil, err
	}
	// some deployments wrap the record: {"data": {...}}
	if inner, ok := out["data"].(map[string]any); ok {
		return inner, nil
	}
	return out, nil
}

// GetSeasonalPrices accepts a bare array or one wrapped in "data"/"seasonal_prices".
func (c *Client) GetSeasonalPrices(ctx context.Context, id int64) ([]map[string]any, error) {
	candidates := []string{
		fmt.Sprintf("%s/hotels/%d/seasonal-prices", c.base, id),
		fmt.Sprintf("%s/hotels/%d/seasonal_prices", c.base, id),
	}
	var raw json.RawMessage
	if err := c.getFirst(ctx, "seasonal_prices", candidates, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []map[string]any
	if raw[0] == '[' {
		if err := decodeNumbers(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var wrapped struct {
		Data           []map[string]any `json:"data"`
		SeasonalPrices []map[string]any `json:"seasonal_prices"`
	}
	if err := decodeNumbers(raw, &wrapped); err != nil {
		return nil, err
	}
	if len(wrapped.Data) > 0 {
		return wrapped.Data, nil
	}
	return wrapped.SeasonalPrices, nil
}

// ---- Internals ----

func decodeNumbers(b []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(out)
}

func (c *Client) getFirst(ctx context.Context, endpoint string, urls []string, out *json.RawMessage) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, endpoint, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

// get is a rate-limited GET that retries under c.retry.
func (c *Client) get(ctx context.Context, endpoint, url string, out *json.RawMessage) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	for n := 0; ; n++ {
		body, ra, err := c.attempt(ctx, endpoint, url)
		var tr *transientError
		if !errors.As(err, &tr) {
			if err == nil {
				*out = body
			}
			return err
		}
		if n+1 >= c.retry.Attempts {
			return err
		}
		t := time.NewTimer(c.retry.wait(n, ra))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// transientError marks a failure worth another attempt.
type transientError struct{ cause error }

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

// attempt performs one request. The duration is the upstream Retry-After, if any.
func (c *Client) attempt(ctx context.Context, endpoint, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-API-Key", c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stay-pricing/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("catalog", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, &transientError{err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("catalog", endpoint, resp.StatusCode, time.Since(start))

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		return b, 0, err
	case code == http.StatusNoContent:
		return nil, 0, nil
	case code == http.StatusNotFound:
		return nil, 0, ErrNotFound
	case code == http.StatusUnauthorized:
		return nil, 0, ErrUnauthorized
	case code == http.StatusForbidden:
		return nil, 0, ErrForbidden
	case code == http.StatusTooManyRequests || (code >= 500 && code != http.StatusNotImplemented):
		return nil, retryAfter(resp.Header.Get("Retry-After")), &transientError{fmt.Errorf("catalog answered %d", code)}
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, 0, fmt.Errorf("catalog answered %d: %s", code, strings.TrimSpace(string(b)))
	}
}

// retryAfter reads seconds or an HTTP date; 0 when absent or in the past.
func retryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		return max(0, time.Until(t))
	}
	return 0
}
