package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bar-dataset/internal/provider"
	"bar-dataset/internal/slogx"
)

const dayLayout = "2006-01-02"

// Job represents one crawl unit: a symbol and an inclusive range of UTC days.
type Job struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// Days returns the number of days in the job.
func (j Job) Days() int {
	return int(j.To.Sub(j.From).Hours()/24) + 1
}

// JobResult is sent by workers for fan-in
type JobResult struct {
	Ok        bool
	Symbol    string
	DateRange string
	Reason    string
	Bars      int
	Days      int
}

// Cmd triggers a crawl run
type Cmd struct{}

// Done signals crawl completion
type Done struct{}

// Options configures one crawl run.
type Options struct {
	Symbols      []string
	Start        time.Time // first day for symbols without progress
	End          time.Time // last day to crawl; zero means yesterday
	Workers      int
	ReportDir    string
	ProgressPath string
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PlanJobs returns one job per symbol that is behind: no progress → Start..end;
// has progress → lastday+1..end. end is End, or yesterday when End is zero or later.
func PlanJobs(symbols []string, progress map[string]string, start, end, now time.Time) []Job {
	yesterday := truncateDay(now).AddDate(0, 0, -1)
	last := yesterday
	if !end.IsZero() && truncateDay(end).Before(yesterday) {
		last = truncateDay(end)
	}

	var jobs []Job
	for _, s := range symbols {
		from := truncateDay(start)
		if done, ok := progress[s]; ok {
			d, err := time.ParseInLocation(dayLayout, done, time.UTC)
			if err != nil {
				slog.Warn("bad progress date, crawling from start", "symbol", s, "date", done)
			} else if next := d.AddDate(0, 0, 1); next.After(from) {
				from = next
			}
		}
		if from.After(last) {
			continue
		}
		jobs = append(jobs, Job{Symbol: s, From: from, To: last})
	}
	return jobs
}

// Summary is the outcome of one crawl run.
type Summary struct {
	RunID   string
	Success int
	Failed  int
	Bars    int
}

// RunOneCrawl runs one crawl cycle in parallel mode, sends done when finished.
func RunOneCrawl(
	ctx context.Context,
	dc provider.DayCrawler,
	opts Options,
	progressUpdates chan<- ProgressUpdate,
	done chan<- Done,
) Summary {
	defer func() { done <- Done{} }()

	runID := uuid.NewString()
	jobs := PlanJobs(opts.Symbols, loadProgress(opts.ProgressPath), opts.Start, opts.End, time.Now().UTC())
	if len(jobs) == 0 {
		slog.Info("no jobs to crawl, skip", "run_id", runID)
		return Summary{RunID: runID}
	}
	if skipped := len(opts.Symbols) - len(jobs); skipped > 0 {
		slog.Info("symbols up to date, jobs to crawl", "skipped", skipped, "jobs", len(jobs), "run_id", runID)
	} else {
		slog.Info("jobs to crawl", "jobs", len(jobs), "run_id", runID)
	}

	sum, successList, failedList := RunParallel(ctx, dc, jobs, opts.Workers, progressUpdates)
	sum.RunID = runID
	if len(successList) > 0 || len(failedList) > 0 {
		if err := writeRunReport(opts.ReportDir, runID, successList, failedList); err != nil {
			slog.Warn("could not write run report", "error", err)
		} else {
			slog.Info("run report saved", "success", len(successList), "failed", len(failedList), "run_id", runID)
		}
	}
	slog.Info("crawl done", "success", sum.Success, "failed", sum.Failed, "bars", sum.Bars, "run_id", runID)
	return sum
}

// runStats is the fan-in state of one RunParallel call: workers send JobResults,
// a single collector folds them in, the heartbeat reads a snapshot.
type runStats struct {
	mu            sync.Mutex
	success       int
	failed        int
	barsPerSymbol map[string]int
	successList   []string
	failedList    []failedEntry
}

func newRunStats() *runStats {
	return &runStats{barsPerSymbol: make(map[string]int)}
}

// collect folds results in until the channel is closed.
func (st *runStats) collect(results <-chan JobResult) {
	for r := range results {
		st.mu.Lock()
		st.barsPerSymbol[r.Symbol] += r.Bars
		if r.Ok {
			st.success++
			st.successList = appendSuccess(st.successList, r.Symbol)
		} else {
			st.failed++
			st.failedList = append(st.failedList, failedEntry{Symbol: r.Symbol, DateRange: r.DateRange, Reason: r.Reason})
		}
		st.mu.Unlock()
	}
}

func (st *runStats) summary() Summary {
	st.mu.Lock()
	defer st.mu.Unlock()
	var bars int
	for _, n := range st.barsPerSymbol {
		bars += n
	}
	return Summary{Success: st.success, Failed: st.failed, Bars: bars}
}

// heartbeat logs progress every interval until ctx is done.
func (st *runStats) heartbeat(ctx context.Context, interval time.Duration, totalJobs int, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := st.summary()
			logger.Info("heartbeat", "done", s.Success+s.Failed, "total", totalJobs, "success", s.Success, "failed", s.Failed, "bars", s.Bars)
		}
	}
}

// logSummary writes the per-symbol totals and failure reasons. Call after collect returns.
func (st *runStats) logSummary(logger *slog.Logger) {
	s := st.summary()
	logger.Info("summary", "total_bars", s.Bars, "success", s.Success, "failed", s.Failed)
	symbols := make([]string, 0, len(st.barsPerSymbol))
	for sym := range st.barsPerSymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		logger.Info("summary symbol", "symbol", sym, "bars", st.barsPerSymbol[sym])
	}
	if len(st.failedList) > 0 {
		logger.Info("summary failed", "count", len(st.failedList), "reasons", joinFailedReasons(st.failedList))
	}
}

// RunParallel runs jobs with N workers. Days of one job are crawled in order and
// progress is sent after each day, so a failure leaves progress at the last
// complete day. Cancelling ctx stops workers between days.
func RunParallel(
	ctx context.Context,
	dc provider.DayCrawler,
	jobs []Job,
	workers int,
	progressUpdates chan<- ProgressUpdate,
) (Summary, []string, []failedEntry) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	// Every worker logs through one channel drained to stderr, so lines never interleave.
	logs := make(chan string, 2048)
	logger := slogx.NewChanLogger(logs)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for line := range logs {
			fmt.Fprintln(os.Stderr, line)
		}
	}()

	if p, ok := dc.(*provider.BinanceProvider); ok {
		p.SetLogFunc(func(msg string) { logger.Info(msg) })
		defer p.SetLogFunc(nil)
	}

	pending := make(chan Job, len(jobs))
	for _, j := range jobs {
		pending <- j
	}
	close(pending)

	stats := newRunStats()
	results := make(chan JobResult, len(jobs))
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		stats.collect(results)
	}()

	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go stats.heartbeat(hbCtx, 30*time.Second, len(jobs), logger)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range pending {
				if ctx.Err() != nil {
					return
				}
				results <- runJob(ctx, dc, job, progressUpdates, logger)
			}
		}()
	}
	wg.Wait()
	close(results)
	<-collected
	cancel()

	stats.logSummary(logger)
	close(logs)
	<-drained

	sum := stats.summary()
	return sum, stats.successList, stats.failedList
}

// runJob crawls the days of job in order and stops at the first failure.
func runJob(
	ctx context.Context,
	dc provider.DayCrawler,
	job Job,
	progressUpdates chan<- ProgressUpdate,
	logger *slog.Logger,
) JobResult {
	dateRange := job.From.Format(dayLayout) + ".." + job.To.Format(dayLayout)
	res := JobResult{Symbol: job.Symbol, DateRange: dateRange}
	for d := job.From; !d.After(job.To); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			res.Reason = "cancelled at " + d.Format(dayLayout)
			return res
		}
		bars, err := dc.CrawlDay(ctx, job.Symbol, d)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				res.Reason = "cancelled at " + d.Format(dayLayout)
				return res
			}
			res.Reason = err.Error()
			logger.Error("crawl fail", "symbol", job.Symbol, "date", d.Format(dayLayout), "error", err)
			return res
		}
		res.Bars += len(bars)
		res.Days++
		if len(bars) == 0 {
			logger.Warn("crawl empty day", "symbol", job.Symbol, "date", d.Format(dayLayout))
		}
		if progressUpdates != nil {
			progressUpdates <- ProgressUpdate{Symbol: job.Symbol, Date: d.Format(dayLayout)}
		}
	}
	res.Ok = true
	logger.Info("crawl ok", "symbol", job.Symbol, "date_range", dateRange, "bars", res.Bars, "days", res.Days)
	return res
}
