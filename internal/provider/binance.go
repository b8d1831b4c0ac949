package provider

import (
	"bar-dataset/internal/provider/binance"
	"bar-dataset/internal/saver"
)

// BinanceProvider is a DataProvider implementation backed by the Binance spot REST API.
// It embeds *binance.Crawler to expose crawl capabilities with minimal boilerplate.
type BinanceProvider struct {
	*binance.Crawler
}

// NewBinanceProvider creates a new Binance-backed DataProvider.
func NewBinanceProvider(baseURL, interval string) *BinanceProvider {
	c := binance.NewCrawler(baseURL)
	if interval != "" {
		c.Interval = interval
	}
	return &BinanceProvider{Crawler: c}
}

// GetName returns provider name
func (p *BinanceProvider) GetName() string {
	return "Binance"
}

// SetSaveBaseDir sets the data dir under which partitions are written
// ({dir}/raw/crypto/{interval}/{SYMBOL}/date=YYYY-MM-DD.ext).
func (p *BinanceProvider) SetSaveBaseDir(dir string) {
	if p.Crawler != nil {
		p.Crawler.SaveBaseDir = dir
	}
}

// SetPacketSaver injects packet save implementation (DIP). Call after SetSaveBaseDir.
func (p *BinanceProvider) SetPacketSaver(s saver.PacketSaver) {
	if p.Crawler != nil {
		p.Crawler.PacketSaver = s
	}
}

// SetLogFunc sets fan-in logger. When set, crawler sends logs here instead of slog.
func (p *BinanceProvider) SetLogFunc(fn binance.LogFunc) {
	if p.Crawler != nil {
		p.Crawler.LogFunc = fn
	}
}
