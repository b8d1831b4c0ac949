package provider

import (
	"context"
	"time"

	"bar-dataset/internal/model"
)

// DataProvider is the abstraction used by the application when accessing a data source.
// Implementations are responsible for their own internal crawl logic and resource cleanup.
type DataProvider interface {
	GetName() string
	Close() error
}

// DayCrawler fetches (and persists) all bars of one symbol for one UTC day.
type DayCrawler interface {
	CrawlDay(ctx context.Context, symbol string, day time.Time) ([]model.Bar, error)
}

var _ DayCrawler = (*BinanceProvider)(nil)
var _ DataProvider = (*BinanceProvider)(nil)
