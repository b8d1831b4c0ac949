package crawl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type failedEntry struct {
	Symbol    string `json:"symbol"`
	DateRange string `json:"date_range"`
	Reason    string `json:"reason"`
}

type runReport[T any] struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Entries    []T       `json:"entries"`
}

func writeReportFile[T any](path, runID string, entries []T) error {
	data, err := json.MarshalIndent(runReport[T]{RunID: runID, FinishedAt: time.Now().UTC(), Entries: entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeRunReport(dir, runID string, successList []string, failedList []failedEntry) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if len(successList) > 0 {
		p := filepath.Join(dir, ".lastrun.success.json")
		if err := writeReportFile(p, runID, successList); err != nil {
			return err
		}
		slog.Info("report wrote success", "path", p, "symbols", len(successList))
	}
	if len(failedList) > 0 {
		p := filepath.Join(dir, ".lastrun.failed.json")
		if err := writeReportFile(p, runID, failedList); err != nil {
			return err
		}
		slog.Info("report wrote failed", "path", p, "count", len(failedList))
	}
	return nil
}

func appendSuccess(list []string, symbol string) []string {
	for _, s := range list {
		if s == symbol {
			return list
		}
	}
	return append(list, symbol)
}

func joinFailedReasons(failedList []failedEntry) string {
	if len(failedList) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range failedList {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Symbol)
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failedList) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failedList)-5))
			break
		}
	}
	return b.String()
}
