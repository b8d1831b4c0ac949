package dataset

import (
	"log/slog"
	"sort"

	"bar-dataset/internal/model"
)

// SymbolSummary counts training rows and label classes of one symbol.
type SymbolSummary struct {
	Symbol string
	Rows   int
	Up     int
	Down   int
	Flat   int
	From   int64
	To     int64
}

// Summarize groups rows by symbol, in symbol order.
func Summarize(rows []model.TrainingRow) []SymbolSummary {
	m := make(map[string]*SymbolSummary)
	for _, r := range rows {
		s, ok := m[r.Symbol]
		if !ok {
			s = &SymbolSummary{Symbol: r.Symbol, From: r.Timestamp, To: r.Timestamp}
			m[r.Symbol] = s
		}
		s.Rows++
		switch r.Direction {
		case model.Up:
			s.Up++
		case model.Down:
			s.Down++
		default:
			s.Flat++
		}
		s.From = min(s.From, r.Timestamp)
		s.To = max(s.To, r.Timestamp)
	}
	out := make([]SymbolSummary, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// LogSummary writes one line per symbol.
func LogSummary(logger *slog.Logger, rows []model.TrainingRow) {
	for _, s := range Summarize(rows) {
		logger.Info("summary symbol", "symbol", s.Symbol, "rows", s.Rows, "up", s.Up, "down", s.Down, "flat", s.Flat)
	}
}
