package forex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const dailyBody = `{
	"Time Series FX (Daily)": {
		"2024-03-01": {"1. open": "82.90", "2. high": "83.20", "3. low": "82.80", "4. close": "83.0000"},
		"2024-03-04": {"1. open": "83.00", "2. high": "83.60", "3. low": "82.95", "4. close": "83.5500"}
	}
}`

const intradayBody = `{
	"Time Series FX (5min)": {
		"2024-03-04 10:00:00": {"1. open": "83.10", "2. high": "83.20", "3. low": "83.05", "4. close": "83.15"},
		"2024-03-04 10:05:00": {"1. open": "83.15", "2. high": "83.30", "3. low": "83.10", "4. close": "83.25"}
	}
}`

func TestCurrentRatePicksLatestClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "FX_DAILY" {
			t.Errorf("function = %q, want FX_DAILY", got)
		}
		if got := r.URL.Query().Get("to_symbol"); got != "INR" {
			t.Errorf("to_symbol = %q, want INR", got)
		}
		w.Write([]byte(dailyBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "demo", 5*time.Second, time.Minute, zerolog.Nop())
	quote, err := client.CurrentRate(context.Background())
	if err != nil {
		t.Fatalf("CurrentRate: %v", err)
	}
	if quote.Rate.StringFixedBank(4) != "83.5500" {
		t.Fatalf("rate = %s, want 83.5500", quote.Rate)
	}
	if quote.Timestamp.Format("2006-01-02") != "2024-03-04" {
		t.Fatalf("timestamp = %s, want 2024-03-04", quote.Timestamp)
	}
}

func TestCurrentRateServesFromCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(dailyBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "demo", 5*time.Second, time.Minute, zerolog.Nop())
	for i := 0; i < 3; i++ {
		if _, err := client.CurrentRate(context.Background()); err != nil {
			t.Fatalf("CurrentRate call %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("upstream calls = %d, want 1", got)
	}
}

func TestCurrentRateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "demo", 5*time.Second, time.Minute, zerolog.Nop())
	if _, err := client.CurrentRate(context.Background()); err == nil {
		t.Fatal("expected error for upstream error message")
	}
}

func TestCurrentRateThrottled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage!"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "demo", 5*time.Second, time.Minute, zerolog.Nop())
	if _, err := client.CurrentRate(context.Background()); err == nil {
		t.Fatal("expected error when throttled")
	}
}

func TestIntradayNewestFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "FX_INTRADAY" {
			t.Errorf("function = %q, want FX_INTRADAY", got)
		}
		if got := r.URL.Query().Get("interval"); got != "5min" {
			t.Errorf("interval = %q, want 5min", got)
		}
		w.Write([]byte(intradayBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "demo", 5*time.Second, time.Minute, zerolog.Nop())
	candles, err := client.Intraday(context.Background(), "5min", "compact")
	if err != nil {
		t.Fatalf("Intraday: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("candles = %d, want 2", len(candles))
	}
	if !candles[0].Timestamp.After(candles[1].Timestamp) {
		t.Fatal("candles are not newest first")
	}
	if candles[0].Close != 83.25 {
		t.Fatalf("newest close = %v, want 83.25", candles[0].Close)
	}
}
