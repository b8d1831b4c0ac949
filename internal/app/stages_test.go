package app

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bar-dataset/internal/dataset"
	"bar-dataset/internal/model"
	"bar-dataset/internal/saver"
)

func testConfig(t *testing.T, format string) *Config {
	t.Helper()
	return &Config{
		DataDir:    t.TempDir(),
		Timeframe:  "1m",
		Start:      "2025-06-01",
		SaveFormat: format,
		LogLevel:   "info",
		Workers:    2,
		Label:      LabelConfig{HorizonMinutes: 3, ThresholdBps: 1},
	}
}

// writeDays saves days of synthetic minute bars as partitions and returns them.
func writeDays(t *testing.T, cfg *Config, symbol string, days int, seed int64) []model.Bar {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	ps := saver.NewPacketSaver(cfg.SaveFormat)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	px := 50.0
	var all []model.Bar
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		bars := make([]model.Bar, 120)
		for i := range bars {
			px *= math.Exp(rng.NormFloat64() * 0.001)
			bars[i] = model.Bar{
				Timestamp: day.Add(time.Duration(i) * time.Minute).UnixMilli(),
				Symbol:    symbol,
				Open:      px * 0.9995,
				High:      px * 1.001,
				Low:       px * 0.999,
				Close:     px,
				Volume:    float64(1 + rng.Intn(500)),
			}
		}
		_, err := saver.SavePartition(ps, cfg.DataDir, cfg.Timeframe, symbol, day, bars)
		require.NoError(t, err)
		all = append(all, bars...)
	}
	return all
}

func TestRunTrain_MatchesInMemoryBuild(t *testing.T) {
	for _, format := range []string{"parquet", "csv", "json"} {
		t.Run(format, func(t *testing.T) {
			cfg := testConfig(t, format)
			btc := writeDays(t, cfg, "BTCUSDT", 2, 1)
			eth := writeDays(t, cfg, "ETHUSDT", 3, 2)

			ctx := context.Background()
			require.NoError(t, RunLabel(ctx, cfg, []string{"BTCUSDT", "ETHUSDT"}))
			require.NoError(t, RunTrain(ctx, cfg, []string{"BTCUSDT", "ETHUSDT"}))

			for symbol, bars := range map[string][]model.Bar{"BTCUSDT": btc, "ETHUSDT": eth} {
				want, err := dataset.Build(bars, cfg.LabelParams())
				require.NoError(t, err)

				got, err := saver.ReadTable[model.TrainingRow](cfg.TrainPath(symbol), saver.TrainingTableColumns())
				require.NoError(t, err)
				assert.Equal(t, want, got, symbol)
			}
		})
	}
}

func TestRunTrain_LabelsWhenTableMissing(t *testing.T) {
	cfg := testConfig(t, "parquet")
	writeDays(t, cfg, "SOLUSDT", 1, 3)

	require.NoError(t, RunTrain(context.Background(), cfg, []string{"SOLUSDT"}))

	labeled, err := saver.ReadTable[model.LabeledBar](cfg.LabeledPath("SOLUSDT"), saver.LabeledTableColumns())
	require.NoError(t, err)
	assert.Len(t, labeled, 120-3)

	rows, err := saver.ReadTable[model.TrainingRow](cfg.TrainPath("SOLUSDT"), saver.TrainingTableColumns())
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}

func TestRunTrain_RelabelsBarsOnlyTable(t *testing.T) {
	for _, format := range []string{"parquet", "json"} {
		t.Run(format, func(t *testing.T) {
			cfg := testConfig(t, format)
			bars := writeDays(t, cfg, "XRPUSDT", 1, 4)
			require.NoError(t, saver.WriteTable(cfg.LabeledPath("XRPUSDT"), bars))

			require.NoError(t, RunTrain(context.Background(), cfg, []string{"XRPUSDT"}))

			want, err := dataset.Build(bars, cfg.LabelParams())
			require.NoError(t, err)
			got, err := saver.ReadTable[model.TrainingRow](cfg.TrainPath("XRPUSDT"), saver.TrainingTableColumns())
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// the last H bars have no target and must not reach the training table
			last := got[len(got)-1]
			assert.Less(t, last.Timestamp, bars[len(bars)-cfg.Label.HorizonMinutes].Timestamp)
		})
	}
}

func TestRunLabel_MissingPartitions(t *testing.T) {
	cfg := testConfig(t, "parquet")
	err := RunLabel(context.Background(), cfg, []string{"NONEUSDT"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Contains(t, err.Error(), "NONEUSDT")
}
