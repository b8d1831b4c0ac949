package binance

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadSymbolsFromFile reads a list of symbols from a file.
// Supported formats:
//   - .txt  : one symbol per line, '#' lines are treated as comments
//   - .json : JSON array of strings
func LoadSymbolsFromFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}

	var symbols []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &symbols); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case ".txt":
		symbols = parseSymbolsFromText(string(content))
	default:
		return nil, fmt.Errorf("unsupported symbol file extension %q (use .txt or .json)", filepath.Ext(path))
	}

	out := NormalizeSymbols(symbols)
	slog.Info("loaded symbols from file", "count", len(out), "path", path)
	return out, nil
}

// NormalizeSymbols upper-cases, trims, drops the pair slash (BTC/USDT → BTCUSDT) and
// de-duplicates symbols, keeping first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range symbols {
		s = strings.ReplaceAll(strings.TrimSpace(strings.ToUpper(s)), "/", "")
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// parseSymbolsFromText parses a plain text list where each non-empty,
// non-comment line is a symbol.
func parseSymbolsFromText(s string) []string {
	var symbols []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			symbols = append(symbols, line)
		}
	}
	return symbols
}

// ResolveSymbols prefers the symbols file when set, otherwise the configured list.
func ResolveSymbols(configured []string, file string) ([]string, error) {
	if file != "" {
		return LoadSymbolsFromFile(file)
	}
	out := NormalizeSymbols(configured)
	if len(out) == 0 {
		return nil, fmt.Errorf("no symbols configured (set SYMBOLS or SYMBOLS_FILE)")
	}
	return out, nil
}
