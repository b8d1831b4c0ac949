package saver

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bar-dataset/internal/model"
)

var day0 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func sampleBars(symbol string, day time.Time, n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		px := 100 + float64(i)*0.25
		bars[i] = model.Bar{
			Timestamp: day.Add(time.Duration(i) * time.Minute).UnixMilli(),
			Symbol:    symbol,
			Open:      px,
			High:      px + 0.5,
			Low:       px - 0.5,
			Close:     px + 0.125,
			Volume:    1.5 * float64(i+1),
		}
	}
	return bars
}

func TestNewPacketSaver(t *testing.T) {
	for _, f := range []string{"csv", "parquet", "json", " Parquet "} {
		ps := NewPacketSaver(f)
		require.NotNil(t, ps, f)
	}
	assert.Nil(t, NewPacketSaver("xlsx"))
	assert.Equal(t, "csv", NewPacketSaver("csv").Extension())
}

func TestPacketSaver_RoundTrip(t *testing.T) {
	bars := sampleBars("BTCUSDT", day0, 30)
	for _, format := range []string{"csv", "json", "parquet"} {
		t.Run(format, func(t *testing.T) {
			ps := NewPacketSaver(format)
			path := filepath.Join(t.TempDir(), "bars."+ps.Extension())

			require.NoError(t, ps.Save(bars, path))
			got, err := LoadBars(path)
			require.NoError(t, err)
			assert.Equal(t, bars, got)
		})
	}
}

func TestPartitionPath(t *testing.T) {
	p := PartitionPath("data", "1m", "ETHUSDT", day0.Add(13*time.Hour), "parquet")
	assert.Equal(t, filepath.Join("data", "raw", "crypto", "1m", "ETHUSDT", "date=2025-03-10.parquet"), p)
}

func TestLoadPartitions_ConcatenatesInDateOrder(t *testing.T) {
	base := t.TempDir()
	ps := ParquetSaver{}
	var want []model.Bar
	for d := 0; d < 4; d++ {
		day := day0.AddDate(0, 0, d)
		bars := sampleBars("SOLUSDT", day, 10)
		want = append(want, bars...)
		_, err := SavePartition(ps, base, "1m", "SOLUSDT", day, bars)
		require.NoError(t, err)
	}
	// another symbol must not leak in
	_, err := SavePartition(ps, base, "1m", "BTCUSDT", day0, sampleBars("BTCUSDT", day0, 5))
	require.NoError(t, err)

	got, err := LoadPartitions(context.Background(), base, "1m", "SOLUSDT", 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadPartitions_MixedFormats(t *testing.T) {
	base := t.TempDir()
	a := sampleBars("XRPUSDT", day0, 3)
	b := sampleBars("XRPUSDT", day0.AddDate(0, 0, 1), 3)
	_, err := SavePartition(CSVSaver{}, base, "1m", "XRPUSDT", day0, a)
	require.NoError(t, err)
	_, err = SavePartition(JSONSaver{}, base, "1m", "XRPUSDT", day0.AddDate(0, 0, 1), b)
	require.NoError(t, err)

	got, err := LoadPartitions(context.Background(), base, "1m", "XRPUSDT", 0)
	require.NoError(t, err)
	assert.Equal(t, append(a, b...), got)
}

func TestLoadPartitions_NoFiles(t *testing.T) {
	_, err := LoadPartitions(context.Background(), t.TempDir(), "1m", "NONE", 1)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

type barWithoutVolume struct {
	Timestamp int64   `parquet:"datetime"`
	Symbol    string  `parquet:"symbol"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
}

func TestLoadBars_MissingColumn(t *testing.T) {
	dir := t.TempDir()

	pq := filepath.Join(dir, "date=2025-03-10.parquet")
	require.NoError(t, parquet.WriteFile(pq, []barWithoutVolume{{Timestamp: 1, Symbol: "A", Open: 1, High: 1, Low: 1, Close: 1}}))
	_, err := LoadBars(pq)
	assert.True(t, errors.Is(err, model.ErrInvalidInput), "parquet: %v", err)

	cf := filepath.Join(dir, "date=2025-03-11.csv")
	f, err := os.Create(cf)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll([][]string{{"datetime", "symbol", "open", "high", "low", "close"}, {"1", "A", "1", "1", "1", "1"}}))
	require.NoError(t, f.Close())
	_, err = LoadBars(cf)
	assert.True(t, errors.Is(err, model.ErrInvalidInput), "csv: %v", err)

	jf := filepath.Join(dir, "date=2025-03-12.json")
	require.NoError(t, os.WriteFile(jf, []byte(`[{"datetime":1,"symbol":"A","open":1,"high":1,"low":1,"close":1}]`), 0644))
	_, err = LoadBars(jf)
	assert.True(t, errors.Is(err, model.ErrInvalidInput), "json: %v", err)
}

func TestLoadBars_UnsupportedExtension(t *testing.T) {
	_, err := LoadBars("bars.xlsx")
	assert.Error(t, err)
}

func TestTable_RoundTrip(t *testing.T) {
	rows := []model.TrainingRow{
		{Timestamp: 1, Symbol: "A", Ret1: 0.01, RSI14: 55, DayOfWeek: 2, Minute: 61, ForwardReturn: -0.002, Direction: model.Down},
		{Timestamp: 2, Symbol: "A", Ret1: -0.02, RSI14: 45, DayOfWeek: 2, Minute: 62, ForwardReturn: 0.003, Direction: model.Up},
	}
	for _, format := range []string{"parquet", "json"} {
		t.Run(format, func(t *testing.T) {
			path := TrainPath(t.TempDir(), "A", "1m", format)
			require.NoError(t, WriteTable(path, rows))
			got, err := ReadTable[model.TrainingRow](path, TrainingTableColumns())
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestTable_LabeledMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x_1m_labeled.parquet")
	require.NoError(t, WriteTable(path, sampleBars("A", day0, 3)))
	_, err := ReadTable[model.LabeledBar](path, LabeledTableColumns())
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestTablePaths(t *testing.T) {
	assert.Equal(t, filepath.Join("d", "processed", "BTCUSDT_1m_labeled.parquet"), LabeledPath("d", "BTCUSDT", "1m", "csv"))
	assert.Equal(t, filepath.Join("d", "processed", "train", "BTCUSDT_1m_train.json"), TrainPath("d", "BTCUSDT", "1m", "json"))
}

func TestTable_LabeledRoundTrip(t *testing.T) {
	bars := sampleBars("BTCUSDT", day0, 3)
	rows := []model.LabeledBar{
		model.NewLabeledBar(bars[0], 0.004, model.Up),
		model.NewLabeledBar(bars[1], -0.004, model.Down),
		model.NewLabeledBar(bars[2], 0, model.Flat),
	}
	for _, format := range []string{"parquet", "json"} {
		t.Run(format, func(t *testing.T) {
			path := LabeledPath(t.TempDir(), "BTCUSDT", "1m", format)
			require.NoError(t, WriteTable(path, rows))
			got, err := ReadTable[model.LabeledBar](path, LabeledTableColumns())
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestTable_JSONMissingColumn(t *testing.T) {
	path := LabeledPath(t.TempDir(), "ETHUSDT", "1m", "json")
	require.NoError(t, WriteTable(path, sampleBars("ETHUSDT", day0, 3)))

	_, err := ReadTable[model.LabeledBar](path, LabeledTableColumns())
	assert.True(t, errors.Is(err, model.ErrInvalidInput), "json: %v", err)

	bars, err := ReadTable[model.Bar](path, model.BarColumns)
	require.NoError(t, err)
	assert.Len(t, bars, 3)
}
