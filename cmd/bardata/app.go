package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bar-dataset/internal/app"
	"bar-dataset/internal/provider"
	"bar-dataset/internal/slogx"
)

// App holds application dependencies built by Wire.
type App struct {
	Config *app.Config
	DP     *provider.BinanceProvider
}

// setup builds the App, applies the log level and resolves symbols.
// override, when non-empty, is a comma separated symbol list replacing config.
// Caller must call a.DP.Close() when done.
func setup(override string) (*App, []string, error) {
	a, err := InitializeApp(app.ConfigPath(*configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("initialize app: %w", err)
	}
	cfg := a.Config
	slog.SetDefault(slogx.NewDefault(cfg.LogLevel))

	if override != "" {
		cfg.Symbols = strings.Split(override, ",")
		cfg.SymbolsFile = ""
	}
	symbols, err := app.LoadSymbols(cfg)
	if err != nil {
		a.DP.Close()
		return nil, nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		a.DP.Close()
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	slog.Info("config", "data_dir", cfg.DataDir, "timeframe", cfg.Timeframe, "format", cfg.SaveFormat, "symbols", len(symbols), "workers", cfg.Workers)
	return a, symbols, nil
}
