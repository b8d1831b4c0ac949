package crawl

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// ProgressUpdate is sent when a symbol-day crawl succeeds
type ProgressUpdate struct {
	Symbol string
	Date   string
}

// LoadProgress reads symbol → last complete day. A missing or corrupt file is empty progress.
func LoadProgress(path string) map[string]string {
	return loadProgress(path)
}

func loadProgress(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn("progress file unreadable, starting fresh", "path", path, "error", err)
		return make(map[string]string)
	}
	if m == nil {
		m = make(map[string]string)
	}
	return m
}

// RunProgressWriter receives updates and persists to file (run as goroutine).
// A date never moves backwards. Returns when updates is closed.
func RunProgressWriter(path string, updates <-chan ProgressUpdate) {
	m := loadProgress(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		slog.Warn("progress dir error", "error", err)
	}
	for u := range updates {
		if cur, ok := m[u.Symbol]; ok && cur >= u.Date {
			continue
		}
		m[u.Symbol] = u.Date
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			slog.Warn("progress marshal error", "error", err)
			continue
		}
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			slog.Warn("progress write error", "error", err)
			continue
		}
		if err := os.Rename(tmp, path); err != nil {
			slog.Warn("progress write error", "error", err)
		}
	}
}
