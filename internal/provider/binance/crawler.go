package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"bar-dataset/internal/model"
	"bar-dataset/internal/saver"
)

const (
	// DefaultBaseURL is the public spot REST endpoint.
	DefaultBaseURL = "https://api.binance.com"

	// MaxKlinesLimit is the largest page /api/v3/klines returns.
	MaxKlinesLimit = 1000
)

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
}

// IntervalDuration returns the bar length of a kline interval.
func IntervalDuration(interval string) (time.Duration, error) {
	d, ok := intervals[interval]
	if !ok {
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
	return d, nil
}

// LogFunc emits a log line. When set, used instead of slog (fan-in logger).
type LogFunc func(msg string)

// Crawler fetches klines from the Binance REST API one UTC day at a time
// and optionally persists each day as a partition.
type Crawler struct {
	client          *http.Client
	pace            pacer
	BaseURL         string
	Interval        string
	PageLimit       int
	MaxRetries      uint64
	RetryInitial    time.Duration
	RequestInterval time.Duration // Minimum spacing between requests across all goroutines.

	SaveBaseDir string
	PacketSaver saver.PacketSaver // When non-nil, each crawled day is written as one partition.
	LogFunc     LogFunc           // Optional fan-in logger for crawl progress and diagnostics.
}

func (c *Crawler) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.LogFunc != nil {
		c.LogFunc(msg)
	} else {
		slog.Info(msg)
	}
}

// Close closes idle connections.
func (c *Crawler) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
	}
	return nil
}

// CrawlDay fetches every bar of symbol whose open time falls on the UTC day of day,
// following pages of PageLimit bars. The result is saved as the day's partition when
// a PacketSaver is configured.
func (c *Crawler) CrawlDay(ctx context.Context, symbol string, day time.Time) ([]model.Bar, error) {
	step, err := IntervalDuration(c.Interval)
	if err != nil {
		return nil, err
	}
	limit := c.PageLimit
	if limit <= 0 || limit > MaxKlinesLimit {
		limit = MaxKlinesLimit
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)

	bars := make([]model.Bar, 0, int(24*time.Hour/step))
	cursor := start.UnixMilli()
	for page := 1; cursor <= end.UnixMilli(); page++ {
		klines, err := c.fetchKlines(ctx, symbol, cursor, end.UnixMilli(), limit)
		if err != nil {
			return nil, fmt.Errorf("%s %s page %d: %w", symbol, start.Format("2006-01-02"), page, err)
		}
		for _, k := range klines {
			b, err := k.ToBar(symbol)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", symbol, err)
			}
			bars = append(bars, b)
		}
		if len(klines) < limit {
			break
		}
		next := bars[len(bars)-1].Timestamp + step.Milliseconds()
		if next <= cursor {
			break
		}
		cursor = next
	}

	if len(bars) > 0 && c.PacketSaver != nil && c.SaveBaseDir != "" {
		path, err := saver.SavePartition(c.PacketSaver, c.SaveBaseDir, c.Interval, symbol, start, bars)
		if err != nil {
			return nil, err
		}
		c.logf("[%s] saved %s (%d bars)", symbol, path, len(bars))
	}
	return bars, nil
}

// buildKlinesRequest builds GET /api/v3/klines for [startMs, endMs].
func (c *Crawler) buildKlinesRequest(ctx context.Context, symbol string, startMs, endMs int64, limit int) (*http.Request, error) {
	u, err := url.Parse(c.BaseURL + "/api/v3/klines")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("interval", c.Interval)
	q.Set("startTime", strconv.FormatInt(startMs, 10))
	q.Set("endTime", strconv.FormatInt(endMs, 10))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// fetchKlines runs one page request, retrying rate limits, server errors and
// network errors with exponential backoff. Other statuses fail at once.
// A Retry-After on a rate limit stretches the next wait and pauses every
// goroutine sharing the crawler for that long.
func (c *Crawler) fetchKlines(ctx context.Context, symbol string, startMs, endMs int64, limit int) ([]Kline, error) {
	client := c.client
	if client == nil {
		client = http.DefaultClient
	}

	bo := c.newBackOff()
	var out []Kline
	op := func() error {
		if err := c.pace.Wait(ctx, c.RequestInterval); err != nil {
			return backoff.Permanent(err)
		}
		req, err := c.buildKlinesRequest(ctx, symbol, startMs, endMs, limit)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			apiErr := &APIError{
				Status:     resp.StatusCode,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			}
			_ = json.Unmarshal(body, apiErr)
			if apiErr.Msg == "" {
				apiErr.Msg = string(body)
			}
			if apiErr.Retryable() {
				if wait := apiErr.MinWait(); wait > 0 {
					bo.floor = wait
					c.pace.Hold(wait)
				}
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		var page []Kline
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return fmt.Errorf("parse JSON: %w", err)
		}
		out = page
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logf("[RETRY] [%s] %v, next attempt in %s", symbol, err, wait.Round(time.Millisecond))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			return nil, fmt.Errorf("giving up after %d retries: %w", c.MaxRetries, err)
		}
		return nil, err
	}
	return out, nil
}

func (c *Crawler) newBackOff() *serverBackOff {
	b := backoff.NewExponentialBackOff()
	if c.RetryInitial > 0 {
		b.InitialInterval = c.RetryInitial
	}
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return &serverBackOff{BackOff: backoff.WithMaxRetries(b, c.MaxRetries)}
}

// serverBackOff is an exponential backoff whose next wait is raised to floor,
// the minimum the server asked for on the last failed attempt.
type serverBackOff struct {
	backoff.BackOff
	floor time.Duration
}

func (b *serverBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d != backoff.Stop && d < b.floor {
		d = b.floor
	}
	b.floor = 0
	return d
}

func (b *serverBackOff) Reset() {
	b.BackOff.Reset()
	b.floor = 0
}
