package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(url string, maxRetries int) *CandleClient {
	return NewCandleClient(&ClientConfig{
		BaseURL:           url,
		RequestTimeout:    2 * time.Second,
		MaxRetries:        maxRetries,
		InitialBackoff:    1 * time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Logger:            zap.NewNop(),
	})
}

func TestFetchCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/candles/ethusd/1m" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `[[1609459200000, 730.0, 740.0, 725.0, 737.5, 100.0],
			[1609459260000, 737.5, 738.0, 730.0, 731.0, 50.0]]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)

	candles, err := client.FetchCandles(context.Background(), "ethusd", "1m")
	if err != nil {
		t.Fatalf("FetchCandles() error = %v", err)
	}

	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}

	want := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if !candles[0].Time.Equal(want) {
		t.Errorf("candle time = %v, want %v", candles[0].Time, want)
	}
	if candles[0].Close != 737.5 {
		t.Errorf("candle close = %v, want 737.5", candles[0].Close)
	}
}

func TestFetchCandles_SkipsShortRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[1609459200000, 730.0], [1609459260000, 737.5, 738.0, 730.0, 731.0, 50.0]]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)

	candles, err := client.FetchCandles(context.Background(), "ethusd", "1m")
	if err != nil {
		t.Fatalf("FetchCandles() error = %v", err)
	}

	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1 (short row skipped)", len(candles))
	}
}

func TestFetchLastPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/pubticker/btcusd" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"last": "29210.55", "bid": "29210.00", "ask": "29211.00"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)

	last, err := client.FetchLastPrice(context.Background(), "btcusd")
	if err != nil {
		t.Fatalf("FetchLastPrice() error = %v", err)
	}
	if last != 29210.55 {
		t.Errorf("last = %v, want 29210.55", last)
	}
}

func TestGetJSON_RetriesOn429(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `[[1609459200000, 1.0, 1.0, 1.0, 1.0, 1.0]]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)

	_, err := client.FetchCandles(context.Background(), "ethusd", "1m")
	if err != nil {
		t.Fatalf("FetchCandles() error = %v, want success after retries", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestGetJSON_NoRetryOn404(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)

	_, err := client.FetchCandles(context.Background(), "nosuchusd", "1m")
	if err == nil {
		t.Fatal("FetchCandles() error = nil, want error")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (4xx is not retried)", got)
	}
}

func TestGetJSON_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	_, err := client.FetchCandles(context.Background(), "ethusd", "1m")
	if err == nil {
		t.Fatal("FetchCandles() error = nil, want error")
	}
	// maxRetries=2 means 1 initial attempt + 2 retries
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestGetJSON_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewCandleClient(&ClientConfig{
		BaseURL:           server.URL,
		RequestTimeout:    2 * time.Second,
		MaxRetries:        5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Logger:            zap.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.FetchCandles(ctx, "ethusd", "1m")
	if err == nil {
		t.Fatal("FetchCandles() error = nil, want context error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancellation took %v, backoff sleep did not observe context", elapsed)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline_exceeded", context.DeadlineExceeded, true},
		{"rate_limited", errors.New("API error: status 429"), true},
		{"server_error", errors.New("API error: status 500"), true},
		{"bad_gateway", errors.New("API error: status 502"), true},
		{"not_found", errors.New("API error: status 404"), false},
		{"bad_request", errors.New("API error: status 400"), false},
		{"timeout", errors.New("dial tcp: i/o timeout"), true},
		{"connection_refused", errors.New("dial tcp: connection refused"), true},
		{"connection_reset", errors.New("read tcp: connection reset by peer"), true},
		{"other", errors.New("parse error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
