package app

import (
	"log/slog"

	"bar-dataset/internal/provider/binance"
)

// LoadSymbols returns the symbols to process: the symbols file when set,
// otherwise the configured list.
func LoadSymbols(cfg *Config) ([]string, error) {
	if cfg.SymbolsFile != "" {
		slog.Info("reading symbols from file", "path", cfg.SymbolsFile)
	}
	return binance.ResolveSymbols(cfg.Symbols, cfg.SymbolsFile)
}
