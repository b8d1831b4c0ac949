package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar represents one 1-minute OHLCV bar of a single instrument.
// Shared by provider, saver, labels and features (json, csv, parquet).
type Bar struct {
	Timestamp int64   `json:"datetime" parquet:"datetime"` // Unix timestamp in milliseconds, UTC
	Symbol    string  `json:"symbol" parquet:"symbol,dict"`
	Open      float64 `json:"open" parquet:"open"`
	High      float64 `json:"high" parquet:"high"`
	Low       float64 `json:"low" parquet:"low"`
	Close     float64 `json:"close" parquet:"close"`
	Volume    float64 `json:"volume" parquet:"volume"`
}

// BarColumns lists the columns every raw bar table must carry.
var BarColumns = []string{"datetime", "symbol", "open", "high", "low", "close", "volume"}

// Time returns the bar timestamp as UTC time.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// Key returns the (symbol, timestamp) identity of the bar.
func (b Bar) Key() Key {
	return Key{Symbol: b.Symbol, Timestamp: b.Timestamp}
}

// Validate reports ErrInvalidInput when a required field is missing or not finite.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("%w: bar at %d has no symbol", ErrInvalidInput, b.Timestamp)
	}
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bar %s@%d has a missing OHLCV value", ErrInvalidInput, b.Symbol, b.Timestamp)
		}
	}
	return nil
}

// Key identifies one row of any bar-derived table.
type Key struct {
	Symbol    string
	Timestamp int64
}

// Less orders keys by symbol, then timestamp.
func (k Key) Less(o Key) bool {
	if k.Symbol != o.Symbol {
		return k.Symbol < o.Symbol
	}
	return k.Timestamp < o.Timestamp
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.Symbol, time.UnixMilli(k.Timestamp).UTC().Format(time.RFC3339))
}

// SortedBars returns a copy of bars ordered by (symbol, timestamp). The input is not modified.
func SortedBars(bars []Bar) []Bar {
	out := make([]Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out
}

// GroupBySymbol splits bars already sorted by (symbol, timestamp) into per-symbol runs.
// The returned slices alias bars.
func GroupBySymbol(bars []Bar) [][]Bar {
	var groups [][]Bar
	start := 0
	for i := 1; i <= len(bars); i++ {
		if i == len(bars) || bars[i].Symbol != bars[start].Symbol {
			groups = append(groups, bars[start:i])
			start = i
		}
	}
	return groups
}

// PrepareBars validates bars and returns them sorted by (symbol, timestamp).
// Empty input, an invalid bar or a repeated (symbol, timestamp) pair is rejected.
func PrepareBars(bars []Bar) ([]Bar, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar table", ErrInvalidInput)
	}
	for i := range bars {
		if err := bars[i].Validate(); err != nil {
			return nil, err
		}
	}
	sorted := SortedBars(bars)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key() == sorted[i-1].Key() {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, sorted[i].Key())
		}
	}
	return sorted, nil
}
