package saver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"bar-dataset/internal/model"
)

const dayLayout = "2006-01-02"

// PartitionDir returns {base}/raw/crypto/{timeframe}/{symbol}.
func PartitionDir(base, timeframe, symbol string) string {
	return filepath.Join(base, "raw", "crypto", timeframe, symbol)
}

// PartitionPath returns the file of one symbol-day: .../{symbol}/date=YYYY-MM-DD.{ext}
func PartitionPath(base, timeframe, symbol string, day time.Time, ext string) string {
	return filepath.Join(PartitionDir(base, timeframe, symbol), fmt.Sprintf("date=%s.%s", day.UTC().Format(dayLayout), ext))
}

// SavePartition writes one symbol-day, creating the symbol folder when needed.
func SavePartition(ps PacketSaver, base, timeframe, symbol string, day time.Time, bars []model.Bar) (string, error) {
	if err := os.MkdirAll(PartitionDir(base, timeframe, symbol), 0755); err != nil {
		return "", err
	}
	path := PartitionPath(base, timeframe, symbol, day, ps.Extension())
	if err := ps.Save(bars, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// ListPartitions returns the partition files of a symbol in date order.
// Every supported extension is accepted so a folder may mix formats.
func ListPartitions(base, timeframe, symbol string) ([]string, error) {
	var paths []string
	for _, ext := range []string{"csv", "json", "parquet"} {
		m, err := filepath.Glob(filepath.Join(PartitionDir(base, timeframe, symbol), "date=*."+ext))
		if err != nil {
			return nil, err
		}
		paths = append(paths, m...)
	}
	sort.Slice(paths, func(i, j int) bool { return filepath.Base(paths[i]) < filepath.Base(paths[j]) })
	return paths, nil
}

// LoadPartitions reads and concatenates all partitions of a symbol with up to
// workers files in flight. Partitions are concatenated in date order.
// No partition at all is ErrInvalidInput.
func LoadPartitions(ctx context.Context, base, timeframe, symbol string, workers int) ([]model.Bar, error) {
	paths, err := ListPartitions(base, timeframe, symbol)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no partitions for %s under %s", model.ErrInvalidInput, symbol, PartitionDir(base, timeframe, symbol))
	}

	parts := make([][]model.Bar, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bars, err := LoadBars(p)
			if err != nil {
				return err
			}
			parts[i] = bars
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]model.Bar, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	slog.Debug("loaded partitions", "symbol", symbol, "files", len(paths), "bars", n)
	return out, nil
}

// LoadBars reads one bar file; the format follows its extension.
func LoadBars(path string) ([]model.Bar, error) {
	ps := saverForPath(path)
	if ps == nil {
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
	return ps.Load(path)
}
