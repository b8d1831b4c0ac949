package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "1m", cfg.Timeframe)
	assert.Equal(t, "parquet", cfg.SaveFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Symbols)
	assert.Equal(t, 5, cfg.Label.HorizonMinutes)
	assert.Equal(t, 5.0, cfg.Label.ThresholdBps)
	assert.Equal(t, 30, cfg.Schedule.RunMinute)
	assert.Equal(t, 50*time.Millisecond, cfg.Binance.RequestInterval)
	assert.True(t, cfg.EndDate().IsZero())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /tmp/bars
symbols: ["BTC/USDT", "ETH/USDT"]
timeframe: 1m
start: "2024-01-01"
end: "2024-02-01"
label:
  horizon_minutes: 15
  threshold_bps: 2.5
`), 0644))

	t.Setenv("LABEL_HORIZON_MINUTES", "30")
	t.Setenv("SAVE_FORMAT", "JSON")
	t.Setenv("BINANCE_REQUEST_INTERVAL", "250ms")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bars", cfg.DataDir)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.Symbols)
	assert.Equal(t, 30, cfg.Label.HorizonMinutes)
	assert.Equal(t, 2.5, cfg.Label.ThresholdBps)
	assert.Equal(t, "json", cfg.SaveFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.Binance.RequestInterval)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate())
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), cfg.EndDate())

	symbols, err := LoadSymbols(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)

	assert.Equal(t, filepath.Join("/tmp/bars", "processed", "BTCUSDT_1m_labeled.json"), cfg.LabeledPath("BTCUSDT"))
	assert.Equal(t, filepath.Join("/tmp/bars", "raw", "crypto", "1m", ".lastday.json"), cfg.ProgressPath())
}

func TestLoadConfig_ProfileSelectsFormat(t *testing.T) {
	t.Setenv("PROFILE", "dev")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.SaveFormat)
}

func TestLoadConfig_SymbolsFromEnv(t *testing.T) {
	t.Setenv("SYMBOLS", "solusdt,bnbusdt")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	symbols, err := LoadSymbols(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"SOLUSDT", "BNBUSDT"}, symbols)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"format", map[string]string{"SAVE_FORMAT": "xlsx"}},
		{"timeframe", map[string]string{"TIMEFRAME": "2m"}},
		{"negative horizon", map[string]string{"LABEL_HORIZON_MINUTES": "-1"}},
		{"negative threshold", map[string]string{"LABEL_THRESHOLD_BPS": "-0.5"}},
		{"start", map[string]string{"START": "01/02/2024"}},
		{"end before start", map[string]string{"START": "2024-02-01", "END": "2024-01-01"}},
		{"hour", map[string]string{"SCHEDULE_RUN_HOUR": "24"}},
		{"workers", map[string]string{"WORKERS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestNextCrawlRunTime(t *testing.T) {
	cfg := &Config{Schedule: ScheduleConfig{RunHour: 0, RunMinute: 30}}

	before := time.Date(2025, 5, 1, 0, 10, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 30, 0, 0, time.UTC), nextCrawlRunTime(cfg, before))

	after := time.Date(2025, 5, 1, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 5, 2, 0, 30, 0, 0, time.UTC), nextCrawlRunTime(cfg, after))
}
