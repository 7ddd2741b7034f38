// Package forex adapts the Alpha Vantage FX API into the rate source the
// trading core samples. Quotes are read-only and never persisted; a short
// TTL cache absorbs bursts so one upstream call can serve many fills.
package forex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	pairFrom = "USD"
	pairTo   = "INR"

	quoteCacheKey = "usd-inr"
)

var ErrNoQuote = errors.New("no usable quote in response")

type Quote struct {
	Rate      decimal.Decimal
	Timestamp time.Time
}

type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	SMAShort  *float64  `json:"sma_short,omitempty"`
	SMALong   *float64  `json:"sma_long,omitempty"`
	Signal    string    `json:"signal,omitempty"`
}

// Client is an Alpha Vantage FX client for the USD/INR pair.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cache   *gocache.Cache
	log     zerolog.Logger
}

func NewClient(baseURL, apiKey string, timeout, cacheTTL time.Duration, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		log:     log.With().Str("client", "alphavantage").Logger(),
	}
}

// CurrentRate returns the latest USD/INR close. A failed fetch is returned
// as an error, never papered over with a stale or zero rate; expired cache
// entries are not served.
func (c *Client) CurrentRate(ctx context.Context) (Quote, error) {
	if cached, ok := c.cache.Get(quoteCacheKey); ok {
		return cached.(Quote), nil
	}
	quote, err := c.fetchDailyClose(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("rate fetch failed")
		return Quote{}, err
	}
	c.cache.SetDefault(quoteCacheKey, quote)
	return quote, nil
}

func (c *Client) fetchDailyClose(ctx context.Context) (Quote, error) {
	params := url.Values{}
	params.Set("function", "FX_DAILY")
	params.Set("from_symbol", pairFrom)
	params.Set("to_symbol", pairTo)
	params.Set("apikey", c.apiKey)

	body, err := c.get(ctx, params)
	if err != nil {
		return Quote{}, err
	}

	var payload struct {
		Series       map[string]map[string]string `json:"Time Series FX (Daily)"`
		ErrorMessage string                       `json:"Error Message"`
		Note         string                       `json:"Note"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Quote{}, fmt.Errorf("decode FX_DAILY response: %w", err)
	}
	if payload.ErrorMessage != "" {
		return Quote{}, fmt.Errorf("alpha vantage error: %s", payload.ErrorMessage)
	}
	if payload.Note != "" {
		return Quote{}, fmt.Errorf("alpha vantage throttled: %s", payload.Note)
	}
	if len(payload.Series) == 0 {
		return Quote{}, ErrNoQuote
	}

	// Dates are ISO formatted, so the lexicographic maximum is the latest day.
	latestDay := ""
	for day := range payload.Series {
		if day > latestDay {
			latestDay = day
		}
	}
	closeRaw, ok := payload.Series[latestDay]["4. close"]
	if !ok {
		return Quote{}, ErrNoQuote
	}
	rate, err := decimal.NewFromString(closeRaw)
	if err != nil || rate.LessThanOrEqual(decimal.Zero) {
		return Quote{}, ErrNoQuote
	}
	timestamp, err := time.Parse("2006-01-02", latestDay)
	if err != nil {
		timestamp = time.Now().UTC()
	}
	return Quote{Rate: rate, Timestamp: timestamp}, nil
}

// Intraday returns the USD/INR OHLC series, newest first. Display data only;
// nothing in the trading core depends on it.
func (c *Client) Intraday(ctx context.Context, interval, outputsize string) ([]Candle, error) {
	params := url.Values{}
	params.Set("function", "FX_INTRADAY")
	params.Set("from_symbol", pairFrom)
	params.Set("to_symbol", pairTo)
	params.Set("interval", interval)
	params.Set("outputsize", outputsize)
	params.Set("apikey", c.apiKey)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode FX_INTRADAY response: %w", err)
	}
	if raw, ok := payload["Error Message"]; ok {
		var message string
		_ = json.Unmarshal(raw, &message)
		return nil, fmt.Errorf("alpha vantage error: %s", message)
	}
	if raw, ok := payload["Note"]; ok {
		var note string
		_ = json.Unmarshal(raw, &note)
		return nil, fmt.Errorf("alpha vantage throttled: %s", note)
	}

	seriesKey := fmt.Sprintf("Time Series FX (%s)", interval)
	raw, ok := payload[seriesKey]
	if !ok {
		return nil, ErrNoQuote
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("decode FX_INTRADAY series: %w", err)
	}

	candles := make([]Candle, 0, len(series))
	for stamp, ohlcv := range series {
		timestamp, err := time.Parse("2006-01-02 15:04:05", stamp)
		if err != nil {
			continue
		}
		candles = append(candles, Candle{
			Timestamp: timestamp,
			Open:      parseField(ohlcv, "1. open"),
			High:      parseField(ohlcv, "2. high"),
			Low:       parseField(ohlcv, "3. low"),
			Close:     parseField(ohlcv, "4. close"),
			Volume:    parseField(ohlcv, "5. volume"),
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.After(candles[j].Timestamp)
	})
	return candles, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read alpha vantage response: %w", err)
	}
	return body, nil
}

func parseField(ohlcv map[string]string, key string) float64 {
	value, err := decimal.NewFromString(ohlcv[key])
	if err != nil {
		return 0
	}
	f, _ := value.Float64()
	return f
}
