package binance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bar-dataset/internal/model"
)

// Kline is one raw row of GET /api/v3/klines:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...].
// Prices and volumes arrive as strings, times as milliseconds.
type Kline []json.RawMessage

// ToBar converts the kline to a model.Bar keyed by its open time.
func (k Kline) ToBar(symbol string) (model.Bar, error) {
	if len(k) < 7 {
		return model.Bar{}, fmt.Errorf("malformed kline: %d fields", len(k))
	}
	var openTime int64
	if err := json.Unmarshal(k[0], &openTime); err != nil {
		return model.Bar{}, fmt.Errorf("kline open time: %w", err)
	}
	b := model.Bar{Timestamp: openTime, Symbol: symbol}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close}, {"volume", &b.Volume},
	}
	for i, f := range fields {
		v, err := flexibleFloat(k[i+1])
		if err != nil {
			return model.Bar{}, fmt.Errorf("kline %s at %d: %w", f.name, openTime, err)
		}
		*f.dst = v
	}
	return b, nil
}

// flexibleFloat parses a JSON string or number to float64.
func flexibleFloat(data json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("cannot parse as float: %s", string(data))
	}
	return f, nil
}

// banWait is the least the crawler waits after a 418 (IP ban) without Retry-After.
const banWait = 2 * time.Minute

// APIError is the error body Binance returns with non-2xx responses.
type APIError struct {
	Status     int           `json:"-"`
	Code       int           `json:"code"`
	Msg        string        `json:"msg"`
	RetryAfter time.Duration `json:"-"` // from the Retry-After header, 0 when absent
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("binance status %d", e.Status)
	}
	return fmt.Sprintf("binance status %d (code %d): %s", e.Status, e.Code, e.Msg)
}

// Retryable reports whether the request may succeed when repeated:
// rate limits (429, 418) and server errors.
func (e *APIError) Retryable() bool {
	return e.Status == 429 || e.Status == 418 || e.Status >= 500
}

// MinWait is how long the server asked us to back off before repeating the request.
func (e *APIError) MinWait() time.Duration {
	switch {
	case e.RetryAfter > 0:
		return e.RetryAfter
	case e.Status == http.StatusTeapot:
		return banWait
	}
	return 0
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(h string, now time.Time) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
