package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stay_pricing/internal/adapters/catalog"
	"stay_pricing/internal/domain"
)

func TestClient_GetHotel_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id": 123, "base_price_per_night": 300.125}`))
		}
	}))
	defer ts.Close()

	cl, err := catalog.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.GetHotel(ctx, 123)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// numbers are kept as json.Number so prices survive without float rounding
	if n, ok := got["base_price_per_night"].(json.Number); !ok || n.String() != "300.125" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetHotel_UnwrapsData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"id": 9, "name": "Wrapped"}}`))
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "k", 100)
	got, err := cl.GetHotel(context.Background(), 9)
	if err != nil || got["name"] != "Wrapped" {
		t.Fatalf("got %+v err %v", got, err)
	}
}

func TestClient_GetHotel_404IsDomainNotFound(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	cl, err := catalog.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.GetHotel(ctx, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected domain.ErrNotFound, got %v", err)
	}
	// both the current and the legacy path are tried
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 calls, got %d", hits)
	}
}

func TestClient_GetHotel_Forbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "k", 100)
	if _, err := cl.GetHotel(context.Background(), 1); !errors.Is(err, catalog.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestClient_GetSeasonalPrices_Shapes(t *testing.T) {
	bodies := map[string]string{
		"bare":    `[{"start_date":"2025-07-01","end_date":"2025-07-31","price_per_night":"400"}]`,
		"data":    `{"data":[{"start_date":"2025-07-01","end_date":"2025-07-31","price_per_night":"400"}]}`,
		"wrapped": `{"seasonal_prices":[{"start_date":"2025-07-01","end_date":"2025-07-31","price_per_night":"400"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer ts.Close()

			cl, _ := catalog.New(ts.URL, "k", 100)
			got, err := cl.GetSeasonalPrices(context.Background(), 1)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if len(got) != 1 || got[0]["start_date"] != "2025-07-01" {
				t.Fatalf("unexpected rules: %+v", got)
			}
		})
	}
}

func TestNew_RequiresBaseAndKey(t *testing.T) {
	if _, err := catalog.New("", "k", 1); err == nil {
		t.Fatalf("expected error without base URL")
	}
	if _, err := catalog.New("http://x", "", 1); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestClient_RetryAfterIsCappedAndAttemptsBounded(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "3600")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := catalog.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.WithRetry(catalog.RetryPolicy{Attempts: 3, MaxWait: 10 * time.Millisecond})

	start := time.Now()
	_, err = c.GetHotel(context.Background(), 5)
	if err == nil {
		t.Fatalf("expected an error after exhausting retries")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Retry-After was not capped: took %v", elapsed)
	}
	// GetHotel tries a fallback URL only on 404, so one URL sees every attempt
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}
