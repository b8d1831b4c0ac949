package model

import "time"

// Direction is the three-class label derived from the forward return.
type Direction int32

const (
	Down Direction = -1
	Flat Direction = 0
	Up   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Flat:
		return "flat"
	default:
		return "unknown"
	}
}

// LabelColumns are the label columns attached by the labeler.
var LabelColumns = []string{"r_fwd", "y_cls"}

// LabeledBar is a Bar plus its fixed-horizon label.
type LabeledBar struct {
	Timestamp     int64     `json:"datetime" parquet:"datetime"`
	Symbol        string    `json:"symbol" parquet:"symbol,dict"`
	Open          float64   `json:"open" parquet:"open"`
	High          float64   `json:"high" parquet:"high"`
	Low           float64   `json:"low" parquet:"low"`
	Close         float64   `json:"close" parquet:"close"`
	Volume        float64   `json:"volume" parquet:"volume"`
	ForwardReturn float64   `json:"r_fwd" parquet:"r_fwd"` // ln(close[t+H]) - ln(close[t])
	Direction     Direction `json:"y_cls" parquet:"y_cls"` // -1 down, 0 flat, 1 up
}

// NewLabeledBar attaches a label to b.
func NewLabeledBar(b Bar, fwd float64, dir Direction) LabeledBar {
	return LabeledBar{
		Timestamp:     b.Timestamp,
		Symbol:        b.Symbol,
		Open:          b.Open,
		High:          b.High,
		Low:           b.Low,
		Close:         b.Close,
		Volume:        b.Volume,
		ForwardReturn: fwd,
		Direction:     dir,
	}
}

// Bar returns the row with its label fields stripped.
func (l LabeledBar) Bar() Bar {
	return Bar{
		Timestamp: l.Timestamp,
		Symbol:    l.Symbol,
		Open:      l.Open,
		High:      l.High,
		Low:       l.Low,
		Close:     l.Close,
		Volume:    l.Volume,
	}
}

func (l LabeledBar) Key() Key { return Key{Symbol: l.Symbol, Timestamp: l.Timestamp} }

// StripLabels drops label fields from every row.
func StripLabels(rows []LabeledBar) []Bar {
	bars := make([]Bar, len(rows))
	for i, r := range rows {
		bars[i] = r.Bar()
	}
	return bars
}

// FeatureColumns names the 13 features in output order.
var FeatureColumns = []string{
	"ret_1", "ret_5", "ret_15", "vol_5", "vol_20",
	"px_ma5_diff", "px_ma20_diff", "hl_range", "oc_change",
	"vol_z_20", "rsi_14", "dow", "minute",
}

// Features is the dense feature vector of one bar.
type Features struct {
	Ret1       float64
	Ret5       float64
	Ret15      float64
	Vol5       float64
	Vol20      float64
	PxMA5Diff  float64
	PxMA20Diff float64
	HLRange    float64
	OCChange   float64
	VolZ20     float64
	RSI14      float64
	DayOfWeek  int32 // Monday=0 .. Sunday=6
	Minute     int32 // minutes since midnight UTC
}

// FeatureBar is the key of a bar plus its causal features.
type FeatureBar struct {
	Timestamp  int64   `json:"datetime" parquet:"datetime"`
	Symbol     string  `json:"symbol" parquet:"symbol,dict"`
	Ret1       float64 `json:"ret_1" parquet:"ret_1"`
	Ret5       float64 `json:"ret_5" parquet:"ret_5"`
	Ret15      float64 `json:"ret_15" parquet:"ret_15"`
	Vol5       float64 `json:"vol_5" parquet:"vol_5"`
	Vol20      float64 `json:"vol_20" parquet:"vol_20"`
	PxMA5Diff  float64 `json:"px_ma5_diff" parquet:"px_ma5_diff"`
	PxMA20Diff float64 `json:"px_ma20_diff" parquet:"px_ma20_diff"`
	HLRange    float64 `json:"hl_range" parquet:"hl_range"`
	OCChange   float64 `json:"oc_change" parquet:"oc_change"`
	VolZ20     float64 `json:"vol_z_20" parquet:"vol_z_20"`
	RSI14      float64 `json:"rsi_14" parquet:"rsi_14"`
	DayOfWeek  int32   `json:"dow" parquet:"dow"`
	Minute     int32   `json:"minute" parquet:"minute"`
}

// NewFeatureBar builds a FeatureBar for key k.
func NewFeatureBar(k Key, f Features) FeatureBar {
	return FeatureBar{
		Timestamp:  k.Timestamp,
		Symbol:     k.Symbol,
		Ret1:       f.Ret1,
		Ret5:       f.Ret5,
		Ret15:      f.Ret15,
		Vol5:       f.Vol5,
		Vol20:      f.Vol20,
		PxMA5Diff:  f.PxMA5Diff,
		PxMA20Diff: f.PxMA20Diff,
		HLRange:    f.HLRange,
		OCChange:   f.OCChange,
		VolZ20:     f.VolZ20,
		RSI14:      f.RSI14,
		DayOfWeek:  f.DayOfWeek,
		Minute:     f.Minute,
	}
}

func (f FeatureBar) Key() Key { return Key{Symbol: f.Symbol, Timestamp: f.Timestamp} }

// Features returns the feature vector of the row.
func (f FeatureBar) Features() Features {
	return Features{
		Ret1:       f.Ret1,
		Ret5:       f.Ret5,
		Ret15:      f.Ret15,
		Vol5:       f.Vol5,
		Vol20:      f.Vol20,
		PxMA5Diff:  f.PxMA5Diff,
		PxMA20Diff: f.PxMA20Diff,
		HLRange:    f.HLRange,
		OCChange:   f.OCChange,
		VolZ20:     f.VolZ20,
		RSI14:      f.RSI14,
		DayOfWeek:  f.DayOfWeek,
		Minute:     f.Minute,
	}
}

// Floats returns the real-valued features in FeatureColumns order (dow and minute excluded).
func (f Features) Floats() []float64 {
	return []float64{
		f.Ret1, f.Ret5, f.Ret15, f.Vol5, f.Vol20,
		f.PxMA5Diff, f.PxMA20Diff, f.HLRange, f.OCChange,
		f.VolZ20, f.RSI14,
	}
}

// TrainingRow is the terminal artifact: key, features and label.
type TrainingRow struct {
	Timestamp     int64     `json:"datetime" parquet:"datetime"`
	Symbol        string    `json:"symbol" parquet:"symbol,dict"`
	Ret1          float64   `json:"ret_1" parquet:"ret_1"`
	Ret5          float64   `json:"ret_5" parquet:"ret_5"`
	Ret15         float64   `json:"ret_15" parquet:"ret_15"`
	Vol5          float64   `json:"vol_5" parquet:"vol_5"`
	Vol20         float64   `json:"vol_20" parquet:"vol_20"`
	PxMA5Diff     float64   `json:"px_ma5_diff" parquet:"px_ma5_diff"`
	PxMA20Diff    float64   `json:"px_ma20_diff" parquet:"px_ma20_diff"`
	HLRange       float64   `json:"hl_range" parquet:"hl_range"`
	OCChange      float64   `json:"oc_change" parquet:"oc_change"`
	VolZ20        float64   `json:"vol_z_20" parquet:"vol_z_20"`
	RSI14         float64   `json:"rsi_14" parquet:"rsi_14"`
	DayOfWeek     int32     `json:"dow" parquet:"dow"`
	Minute        int32     `json:"minute" parquet:"minute"`
	ForwardReturn float64   `json:"r_fwd" parquet:"r_fwd"`
	Direction     Direction `json:"y_cls" parquet:"y_cls"`
}

// NewTrainingRow joins a feature row with its label.
func NewTrainingRow(f FeatureBar, l LabeledBar) TrainingRow {
	return TrainingRow{
		Timestamp:     f.Timestamp,
		Symbol:        f.Symbol,
		Ret1:          f.Ret1,
		Ret5:          f.Ret5,
		Ret15:         f.Ret15,
		Vol5:          f.Vol5,
		Vol20:         f.Vol20,
		PxMA5Diff:     f.PxMA5Diff,
		PxMA20Diff:    f.PxMA20Diff,
		HLRange:       f.HLRange,
		OCChange:      f.OCChange,
		VolZ20:        f.VolZ20,
		RSI14:         f.RSI14,
		DayOfWeek:     f.DayOfWeek,
		Minute:        f.Minute,
		ForwardReturn: l.ForwardReturn,
		Direction:     l.Direction,
	}
}

func (r TrainingRow) Key() Key { return Key{Symbol: r.Symbol, Timestamp: r.Timestamp} }

// Time returns the row timestamp as UTC time.
func (r TrainingRow) Time() time.Time { return time.UnixMilli(r.Timestamp).UTC() }
