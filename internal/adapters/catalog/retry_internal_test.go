package catalog

import (
	"net/http"
	"testing"
	"time"
)

func TestRetryPolicy_Wait(t *testing.T) {
	p := RetryPolicy{Attempts: 4, Base: 100 * time.Millisecond, MaxWait: time.Second}

	for n, floor := range []time.Duration{100, 200, 400} {
		got := p.wait(n, 0)
		lo := floor * time.Millisecond
		if got < lo || got > lo+lo/2 {
			t.Fatalf("attempt %d: wait %v outside [%v, %v]", n, got, lo, lo+lo/2)
		}
	}
	if got := p.wait(10, 0); got != time.Second {
		t.Fatalf("backoff must be capped, got %v", got)
	}
	if got := p.wait(0, 300*time.Millisecond); got != 300*time.Millisecond {
		t.Fatalf("Retry-After must be honoured, got %v", got)
	}
	if got := p.wait(0, time.Hour); got != time.Second {
		t.Fatalf("Retry-After must be capped, got %v", got)
	}
}

func TestRetryAfter(t *testing.T) {
	if got := retryAfter(" 7 "); got != 7*time.Second {
		t.Fatalf("seconds: %v", got)
	}
	if got := retryAfter(time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)); got != 0 {
		t.Fatalf("past date: %v", got)
	}
	if got := retryAfter("soon"); got != 0 {
		t.Fatalf("garbage: %v", got)
	}
}
