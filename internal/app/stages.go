package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"bar-dataset/internal/dataset"
	"bar-dataset/internal/labels"
	"bar-dataset/internal/model"
	"bar-dataset/internal/saver"
)

// forEachSymbol runs fn for every symbol with up to cfg.Workers in flight.
// The first error cancels the remaining symbols.
func forEachSymbol(ctx context.Context, cfg *Config, symbols []string, fn func(context.Context, string) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, s := range symbols {
		s := s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, s); err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunLabel loads the raw partitions of every symbol, labels them and writes
// the labeled tables.
func RunLabel(ctx context.Context, cfg *Config, symbols []string) error {
	labeler, err := labels.NewLabeler(cfg.LabelParams())
	if err != nil {
		return err
	}
	return forEachSymbol(ctx, cfg, symbols, func(ctx context.Context, symbol string) error {
		_, err := labelSymbol(ctx, cfg, labeler, symbol)
		return err
	})
}

func labelSymbol(ctx context.Context, cfg *Config, labeler *labels.Labeler, symbol string) ([]model.LabeledBar, error) {
	bars, err := saver.LoadPartitions(ctx, cfg.DataDir, cfg.Timeframe, symbol, cfg.Workers)
	if err != nil {
		return nil, err
	}
	labeled, err := labeler.Label(bars)
	if err != nil {
		return nil, err
	}
	path := cfg.LabeledPath(symbol)
	if err := saver.WriteTable(path, labeled); err != nil {
		return nil, err
	}
	slog.Info("wrote labeled", "symbol", symbol, "path", path, "rows", len(labeled), "horizon", labeler.Params().Horizon)
	return labeled, nil
}

// RunTrain builds the training table of every symbol from its labeled table,
// labeling first when the table is missing or has no label columns.
func RunTrain(ctx context.Context, cfg *Config, symbols []string) error {
	labeler, err := labels.NewLabeler(cfg.LabelParams())
	if err != nil {
		return err
	}
	return forEachSymbol(ctx, cfg, symbols, func(ctx context.Context, symbol string) error {
		labeled, err := loadLabeled(ctx, cfg, labeler, symbol)
		if err != nil {
			return err
		}
		rows, err := dataset.FromLabeled(labeled)
		if err != nil {
			return err
		}
		path := cfg.TrainPath(symbol)
		if err := saver.WriteTable(path, rows); err != nil {
			return err
		}
		slog.Info("wrote training", "symbol", symbol, "path", path, "rows", len(rows), "features", len(model.FeatureColumns))
		dataset.LogSummary(slog.Default(), rows)
		return nil
	})
}

func loadLabeled(ctx context.Context, cfg *Config, labeler *labels.Labeler, symbol string) ([]model.LabeledBar, error) {
	path := cfg.LabeledPath(symbol)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Info("labeled table missing, labeling", "symbol", symbol, "path", path)
		return labelSymbol(ctx, cfg, labeler, symbol)
	}

	labeled, err := saver.ReadTable[model.LabeledBar](path, saver.LabeledTableColumns())
	if err == nil {
		return labeled, nil
	}
	if !errors.Is(err, model.ErrInvalidInput) {
		return nil, err
	}

	// bars without label columns: label them in place
	slog.Info("labeled table has no labels, relabeling", "symbol", symbol, "path", path)
	bars, err := saver.ReadTable[model.Bar](path, model.BarColumns)
	if err != nil {
		return nil, err
	}
	return labeler.Label(bars)
}
