package dataset

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bar-dataset/internal/features"
	"bar-dataset/internal/labels"
	"bar-dataset/internal/model"
)

func walk(symbol string, n int, seed int64) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	px := 100.0
	for i := range bars {
		px *= math.Exp(rng.NormFloat64() * 0.0005)
		bars[i] = model.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute).UnixMilli(),
			Symbol:    symbol,
			Open:      px * (1 + (rng.Float64()-0.5)*0.001),
			High:      px * (1 + rng.Float64()*0.001),
			Low:       px * (1 - rng.Float64()*0.001),
			Close:     px,
			Volume:    float64(10 + rng.Intn(990)),
		}
	}
	return bars
}

func TestBuild_LabelsAlignWithFeatures(t *testing.T) {
	bars := append(walk("BTCUSDT", 120, 1), walk("ETHUSDT", 90, 2)...)

	rows, err := Build(bars, labels.Params{Horizon: 1, ThresholdBps: 0})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	labeled, err := labels.Label(bars, 1, 0)
	require.NoError(t, err)
	feats, err := features.Extract(bars)
	require.NoError(t, err)

	byKey := map[model.Key]model.LabeledBar{}
	for _, l := range labeled {
		byKey[l.Key()] = l
	}
	featKeys := map[model.Key]bool{}
	for _, f := range feats {
		featKeys[f.Key()] = true
	}

	expected := 0
	for k := range featKeys {
		if _, ok := byKey[k]; ok {
			expected++
		}
	}
	assert.Len(t, rows, expected, "row count is the key intersection")

	for i, r := range rows {
		l, ok := byKey[r.Key()]
		require.True(t, ok)
		assert.Equal(t, l.ForwardReturn, r.ForwardReturn)
		assert.Equal(t, l.Direction, r.Direction)
		assert.Contains(t, []model.Direction{model.Up, model.Down, model.Flat}, r.Direction)
		assert.False(t, math.IsNaN(r.ForwardReturn))
		if i > 0 {
			assert.True(t, rows[i-1].Key().Less(r.Key()))
		}
	}
}

func TestBuild_TrailingHorizonRowsAreNotJoined(t *testing.T) {
	bars := walk("BTCUSDT", 100, 3)

	rows, err := Build(bars, labels.Params{Horizon: 5, ThresholdBps: 1})
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, bars[94].Timestamp, last.Timestamp)
}

func TestJoin_DropsUnmatchedAndUndefined(t *testing.T) {
	k1 := model.Key{Symbol: "A", Timestamp: 1}
	k2 := model.Key{Symbol: "A", Timestamp: 2}
	k3 := model.Key{Symbol: "B", Timestamp: 1}

	feats := []model.FeatureBar{
		model.NewFeatureBar(k3, model.Features{RSI14: 50}),
		model.NewFeatureBar(k1, model.Features{RSI14: 40}),
		model.NewFeatureBar(k2, model.Features{RSI14: math.NaN()}),
	}
	labeled := []model.LabeledBar{
		model.NewLabeledBar(model.Bar{Symbol: "A", Timestamp: 1}, 0.01, model.Up),
		model.NewLabeledBar(model.Bar{Symbol: "A", Timestamp: 2}, 0.0, model.Flat),
		model.NewLabeledBar(model.Bar{Symbol: "C", Timestamp: 9}, 0.0, model.Flat),
	}

	rows, err := Join(feats, labeled)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, k1, rows[0].Key())
	assert.Equal(t, 40.0, rows[0].RSI14)
	assert.Equal(t, model.Up, rows[0].Direction)
}

func TestJoin_RejectsDuplicateKeys(t *testing.T) {
	k := model.Key{Symbol: "A", Timestamp: 1}
	f := model.NewFeatureBar(k, model.Features{})
	l := model.NewLabeledBar(model.Bar{Symbol: "A", Timestamp: 1}, 0, model.Flat)

	_, err := Join([]model.FeatureBar{f, f}, []model.LabeledBar{l})
	assert.True(t, errors.Is(err, model.ErrDuplicateKey))

	_, err = Join([]model.FeatureBar{f}, []model.LabeledBar{l, l})
	assert.True(t, errors.Is(err, model.ErrDuplicateKey))
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestBuild_Deterministic(t *testing.T) {
	bars := walk("SOLUSDT", 200, 4)
	p := labels.Params{Horizon: 3, ThresholdBps: 2}

	a, err := Build(bars, p)
	require.NoError(t, err)
	b, err := Build(bars, p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_InvalidParams(t *testing.T) {
	_, err := Build(walk("A", 30, 5), labels.Params{Horizon: -2})
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	_, err = Build(nil, labels.Params{Horizon: 1})
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestSummarize(t *testing.T) {
	rows := []model.TrainingRow{
		{Symbol: "B", Timestamp: 5, Direction: model.Up},
		{Symbol: "A", Timestamp: 3, Direction: model.Down},
		{Symbol: "A", Timestamp: 1, Direction: model.Flat},
		{Symbol: "B", Timestamp: 2, Direction: model.Up},
	}

	got := Summarize(rows)
	require.Len(t, got, 2)
	assert.Equal(t, SymbolSummary{Symbol: "A", Rows: 2, Down: 1, Flat: 1, From: 1, To: 3}, got[0])
	assert.Equal(t, SymbolSummary{Symbol: "B", Rows: 2, Up: 2, From: 2, To: 5}, got[1])
}
