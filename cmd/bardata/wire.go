//go:build wireinject
// +build wireinject

package main

import (
	"bar-dataset/internal/app"

	"github.com/google/wire"
)

// InitializeApp builds App (Config + BinanceProvider) via Wire.
// Caller must call a.DP.Close() when done.
func InitializeApp(path app.ConfigPath) (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvidePacketSaver,
		app.ProvideBinanceProvider,
		wire.Struct(new(App), "Config", "DP"),
	)
	return nil, nil
}
