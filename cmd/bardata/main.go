package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"bar-dataset/internal/slogx"
)

var configPath = flag.String("config", "config.yaml", "YAML config file (optional, env overrides it)")

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&downloadCmd{}, "pipeline")
	subcommands.Register(&labelCmd{}, "pipeline")
	subcommands.Register(&trainCmd{}, "pipeline")
	subcommands.Register(&allCmd{}, "pipeline")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}
