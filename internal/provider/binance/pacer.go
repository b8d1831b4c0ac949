package binance

import (
	"context"
	"sync"
	"time"
)

// pacer spaces requests from every goroutine sharing a Crawler: each caller
// reserves the next free slot, interval after the previous one.
type pacer struct {
	mu   sync.Mutex
	next time.Time
}

// Wait blocks until the caller's slot, or until ctx is done.
func (p *pacer) Wait(ctx context.Context, interval time.Duration) error {
	p.mu.Lock()
	now := time.Now()
	at := p.next
	if at.Before(now) {
		at = now
	}
	p.next = at.Add(interval)
	p.mu.Unlock()

	wait := at.Sub(now)
	if wait <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Hold pushes the next free slot at least d into the future, pausing all callers.
func (p *pacer) Hold(d time.Duration) {
	if d <= 0 {
		return
	}
	until := time.Now().Add(d)
	p.mu.Lock()
	if until.After(p.next) {
		p.next = until
	}
	p.mu.Unlock()
}
