package app

import (
	"context"
	"log/slog"
	"time"

	"bar-dataset/internal/crawl"
	"bar-dataset/internal/provider"
)

// CrawlOptions maps config to one crawl run over symbols.
func CrawlOptions(cfg *Config, symbols []string) crawl.Options {
	return crawl.Options{
		Symbols:      symbols,
		Start:        cfg.StartDate(),
		End:          cfg.EndDate(),
		Workers:      cfg.Workers,
		ReportDir:    cfg.RawDir(),
		ProgressPath: cfg.ProgressPath(),
	}
}

// RunDownload runs one crawl and returns once progress is flushed.
func RunDownload(ctx context.Context, cfg *Config, dc provider.DayCrawler, symbols []string) crawl.Summary {
	progressUpdates := make(chan crawl.ProgressUpdate, 256)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		crawl.RunProgressWriter(cfg.ProgressPath(), progressUpdates)
	}()

	done := make(chan crawl.Done, 1)
	sum := crawl.RunOneCrawl(ctx, dc, CrawlOptions(cfg, symbols), progressUpdates, done)
	<-done
	close(progressUpdates)
	<-writerDone
	return sum
}

// RunFlow orchestrates crawl loop: trigger → run → done → wait → trigger.
// after, when set, runs after every crawl (e.g. rebuilding datasets).
// Returns when ctx is cancelled.
func RunFlow(ctx context.Context, cfg *Config, dc provider.DayCrawler, symbols []string, after func(context.Context)) {
	progressUpdates := make(chan crawl.ProgressUpdate, 256)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		crawl.RunProgressWriter(cfg.ProgressPath(), progressUpdates)
	}()
	defer func() {
		close(progressUpdates)
		<-writerDone
	}()

	trigger := make(chan crawl.Cmd, 1)
	done := make(chan crawl.Done, 1)

	go func() {
		for range trigger {
			crawl.RunOneCrawl(ctx, dc, CrawlOptions(cfg, symbols), progressUpdates, done)
		}
	}()
	defer close(trigger)

	trigger <- crawl.Cmd{}

	for {
		select {
		case <-done:
			if ctx.Err() != nil {
				return
			}
			if after != nil {
				after(ctx)
			}
			slog.Info("done, wait until next run")
			nextRun := nextCrawlRunTime(cfg, time.Now().UTC())
			waitDur := time.Until(nextRun)
			if waitDur <= 0 {
				slog.Info("next run passed, running now", "next_run", nextRun.Format("2006-01-02 15:04"))
			} else {
				slog.Info("timer waiting", "hours", waitDur.Hours(), "until", nextRun.Format("2006-01-02 15:04"))
				timer := time.NewTimer(waitDur)
				select {
				case <-timer.C:
				case <-ctx.Done():
					slog.Info("stopping", "reason", ctx.Err(), "restart_at", nextRun.Format("2006-01-02 15:04"))
					timer.Stop()
					return
				}
			}
			trigger <- crawl.Cmd{}
		case <-ctx.Done():
			slog.Info("graceful shutdown, waiting for running crawl")
			<-done
			return
		}
	}
}

func nextCrawlRunTime(cfg *Config, now time.Time) time.Time {
	hour, min := cfg.Schedule.RunHour, cfg.Schedule.RunMinute
	targetToday := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.UTC)
	if now.Before(targetToday) {
		return targetToday
	}
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, min, 0, 0, time.UTC)
}
