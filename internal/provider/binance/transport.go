package binance

import (
	"net/http"
	"time"
)

// baseTransportConfig returns the shared HTTP transport configuration used by Binance clients.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   16,
	}
}

// newHTTPClient creates an HTTP client configured for Binance requests.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: baseTransportConfig(),
		Timeout:   time.Minute,
	}
}

// DefaultRequestInterval keeps a crawler near 1200 klines requests a minute,
// under the 6000 weight/minute IP limit at weight 2 per page.
const DefaultRequestInterval = 50 * time.Millisecond

// NewCrawler constructs a Crawler with a shared HTTP client and default paging/retry settings.
func NewCrawler(baseURL string) *Crawler {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Crawler{
		client:          newHTTPClient(),
		BaseURL:         baseURL,
		Interval:        "1m",
		PageLimit:       MaxKlinesLimit,
		MaxRetries:      5,
		RetryInitial:    time.Second,
		RequestInterval: DefaultRequestInterval,
	}
}
