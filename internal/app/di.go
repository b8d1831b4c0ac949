package app

import (
	"fmt"

	"bar-dataset/internal/provider"
	"bar-dataset/internal/saver"
)

// ConfigPath is the YAML config file location (for Wire).
type ConfigPath string

// ProvideConfig loads config from file and environment (for Wire).
func ProvideConfig(path ConfigPath) (*Config, error) {
	return LoadConfig(string(path))
}

// ProvidePacketSaver creates PacketSaver from config (for Wire).
// Returns error if SaveFormat is not supported.
func ProvidePacketSaver(cfg *Config) (saver.PacketSaver, error) {
	ps := saver.NewPacketSaver(cfg.SaveFormat)
	if ps == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return ps, nil
}

// ProvideBinanceProvider creates and wires BinanceProvider with config and PacketSaver (for Wire).
// Caller must call dp.Close() when shutting down.
func ProvideBinanceProvider(cfg *Config, ps saver.PacketSaver) *provider.BinanceProvider {
	p := provider.NewBinanceProvider(cfg.Binance.BaseURL, cfg.Timeframe)
	p.MaxRetries = uint64(cfg.Binance.MaxRetries)
	p.RequestInterval = cfg.Binance.RequestInterval
	p.SetSaveBaseDir(cfg.DataDir)
	p.SetPacketSaver(ps)
	return p
}
