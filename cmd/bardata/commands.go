package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/google/subcommands"

	"bar-dataset/internal/app"
)

type symbolFlag struct {
	symbols string
}

func (s *symbolFlag) register(f *flag.FlagSet) {
	f.StringVar(&s.symbols, "symbols", "", "comma separated symbols, overrides config")
}

type downloadCmd struct {
	symbolFlag
	follow bool
	build  bool
}

func (*downloadCmd) Name() string     { return "download" }
func (*downloadCmd) Synopsis() string { return "download 1m klines from Binance into daily partitions" }
func (*downloadCmd) Usage() string {
	return `download [-symbols A,B] [-follow] [-build]:
  Crawl every symbol from its last complete day (or start) up to end/yesterday.
  -follow reruns daily at schedule.run_hour:run_minute UTC until interrupted.
`
}

func (c *downloadCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.follow, "follow", false, "keep running and crawl again every day")
	f.BoolVar(&c.build, "build", false, "with -follow, rebuild labeled and training tables after each crawl")
}

func (c *downloadCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, symbols, err := setup(c.symbols)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return subcommands.ExitFailure
	}
	defer a.DP.Close()
	slog.Info("using data provider", "provider", a.DP.GetName())

	if c.follow {
		var after func(context.Context)
		if c.build {
			after = func(ctx context.Context) {
				if err := buildAll(ctx, a.Config, symbols); err != nil {
					slog.Error("build failed", "error", err)
				}
			}
		}
		app.RunFlow(ctx, a.Config, a.DP, symbols, after)
		return subcommands.ExitSuccess
	}

	sum := app.RunDownload(ctx, a.Config, a.DP, symbols)
	if sum.Failed > 0 || ctx.Err() != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type labelCmd struct{ symbolFlag }

func (*labelCmd) Name() string { return "label" }
func (*labelCmd) Synopsis() string {
	return "label raw partitions with fixed-horizon returns and classes"
}
func (*labelCmd) Usage() string {
	return `label [-symbols A,B]:
  Write processed/{SYMBOL}_{tf}_labeled.{ext} from raw partitions.
`
}
func (c *labelCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *labelCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, symbols, err := setup(c.symbols)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return subcommands.ExitFailure
	}
	defer a.DP.Close()
	if err := app.RunLabel(ctx, a.Config, symbols); err != nil {
		slog.Error("label failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type trainCmd struct{ symbolFlag }

func (*trainCmd) Name() string     { return "train" }
func (*trainCmd) Synopsis() string { return "build training tables (features joined with labels)" }
func (*trainCmd) Usage() string {
	return `train [-symbols A,B]:
  Write processed/train/{SYMBOL}_{tf}_train.{ext}, labeling first when needed.
`
}
func (c *trainCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *trainCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, symbols, err := setup(c.symbols)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return subcommands.ExitFailure
	}
	defer a.DP.Close()
	if err := app.RunTrain(ctx, a.Config, symbols); err != nil {
		slog.Error("train failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type allCmd struct{ symbolFlag }

func (*allCmd) Name() string     { return "all" }
func (*allCmd) Synopsis() string { return "download, label and train in one run" }
func (*allCmd) Usage() string {
	return `all [-symbols A,B]:
  Run download once, then label and train every symbol.
`
}
func (c *allCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *allCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, symbols, err := setup(c.symbols)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return subcommands.ExitFailure
	}
	defer a.DP.Close()

	sum := app.RunDownload(ctx, a.Config, a.DP, symbols)
	if ctx.Err() != nil {
		return subcommands.ExitFailure
	}
	if sum.Failed > 0 {
		slog.Warn("some downloads failed, building from what is on disk", "failed", sum.Failed)
	}
	if err := buildAll(ctx, a.Config, symbols); err != nil {
		slog.Error("build failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func buildAll(ctx context.Context, cfg *app.Config, symbols []string) error {
	if err := app.RunLabel(ctx, cfg, symbols); err != nil {
		return err
	}
	return app.RunTrain(ctx, cfg, symbols)
}
