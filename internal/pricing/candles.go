package pricing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Candle is one OHLC bar from the market data API.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleClient fetches historical candles and live quotes from the
// Gemini public market data API.
type CandleClient struct {
	baseURL           string
	httpClient        *http.Client
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	logger            *zap.Logger
}

// ClientConfig holds candle client configuration.
type ClientConfig struct {
	BaseURL           string
	RequestTimeout    time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Logger            *zap.Logger
}

// NewCandleClient creates a new candle client.
func NewCandleClient(cfg *ClientConfig) *CandleClient {
	return &CandleClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		maxRetries:        cfg.MaxRetries,
		initialBackoff:    cfg.InitialBackoff,
		maxBackoff:        cfg.MaxBackoff,
		backoffMultiplier: cfg.BackoffMultiplier,
		logger:            cfg.Logger,
	}
}

// FetchCandles fetches the candle series for a symbol at one time
// granularity. The response is newest-first; order is not relied upon
// downstream. Retries transient failures with bounded exponential
// backoff; exhausting retries returns an error so the caller can
// advance to the next fallback tier.
func (c *CandleClient) FetchCandles(ctx context.Context, symbol, timeframe string) ([]Candle, error) {
	url := fmt.Sprintf("%s/v2/candles/%s/%s", c.baseURL, symbol, timeframe)

	var rows [][]float64
	err := c.getJSON(ctx, url, &rows)
	if err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		candles = append(candles, Candle{
			Time:   time.UnixMilli(int64(row[0])).UTC(),
			Open:   row[1],
			High:   row[2],
			Low:    row[3],
			Close:  row[4],
			Volume: row[5],
		})
	}

	CandleFetchesTotal.WithLabelValues(timeframe).Inc()
	return candles, nil
}

// FetchLastPrice fetches the current live quote for a symbol.
// Used only as the final BTC fallback, accepting slight staleness.
func (c *CandleClient) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/v1/pubticker/%s", c.baseURL, symbol)

	var data struct {
		Last string `json:"last"`
	}
	err := c.getJSON(ctx, url, &data)
	if err != nil {
		return 0, err
	}

	var last float64
	_, err = fmt.Sscanf(data.Last, "%f", &last)
	if err != nil {
		return 0, fmt.Errorf("parse last price %q: %w", data.Last, err)
	}

	return last, nil
}

// getJSON performs a GET with retry on transient failures and decodes
// the JSON response body into v.
func (c *CandleClient) getJSON(ctx context.Context, url string, v interface{}) error {
	backoff := c.initialBackoff

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * c.backoffMultiplier)
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		lastErr = c.getJSONOnce(ctx, url, v)
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		CandleFetchRetriesTotal.Inc()
		c.logger.Warn("candle-fetch-retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func (c *CandleClient) getJSONOnce(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

// isRetryable classifies an error as transient. Rate limits (429),
// server errors (5xx), timeouts and connection failures are retried;
// other client errors are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()

	if strings.Contains(msg, "status 429") {
		return true
	}
	if strings.Contains(msg, "status 5") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") {
		return true
	}

	return false
}
