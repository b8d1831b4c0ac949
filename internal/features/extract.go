// Package features computes causal technical features over minute bars.
//
// Every value at row i of a symbol depends only on rows <= i of that symbol,
// so truncating or rewriting later bars never changes an emitted row.
package features

import (
	"math"
	"time"

	"bar-dataset/internal/model"
)

// Window lengths used by the feature set.
const (
	shortWindow = 5
	longWindow  = 20
	rsiWindow   = 14
)

// retLags are the k-bar log-return lags.
var retLags = [...]int{1, 5, 15}

// Extract computes the 13 features for every bar and drops rows where any
// feature is undefined. Output is sorted by (symbol, timestamp); the input is
// not modified.
func Extract(bars []model.Bar) ([]model.FeatureBar, error) {
	sorted, err := model.PrepareBars(bars)
	if err != nil {
		return nil, err
	}
	out := make([]model.FeatureBar, 0, len(sorted))
	for _, group := range model.GroupBySymbol(sorted) {
		out = appendSymbolFeatures(out, group)
	}
	return out, nil
}

// ExtractLabeled strips label columns before extracting, so no feature can be
// derived from a label.
func ExtractLabeled(rows []model.LabeledBar) ([]model.FeatureBar, error) {
	return Extract(model.StripLabels(rows))
}

// symbolState carries the rolling accumulators of one symbol.
type symbolState struct {
	logClose  []float64 // ln(close) of rows seen so far
	logOK     []bool
	ret1Short *rollingWindow
	ret1Long  *rollingWindow
	closeS    *rollingWindow
	closeL    *rollingWindow
	volume    *rollingWindow
	gains     *rollingWindow
	losses    *rollingWindow
}

func newSymbolState(n int) *symbolState {
	return &symbolState{
		logClose:  make([]float64, 0, n),
		logOK:     make([]bool, 0, n),
		ret1Short: newRollingWindow(shortWindow),
		ret1Long:  newRollingWindow(longWindow),
		closeS:    newRollingWindow(shortWindow),
		closeL:    newRollingWindow(longWindow),
		volume:    newRollingWindow(longWindow),
		gains:     newRollingWindow(rsiWindow),
		losses:    newRollingWindow(rsiWindow),
	}
}

// appendSymbolFeatures walks one symbol's bars in time order.
func appendSymbolFeatures(out []model.FeatureBar, group []model.Bar) []model.FeatureBar {
	st := newSymbolState(len(group))
	for i, b := range group {
		f, ok := st.step(i, group, b)
		if ok {
			out = append(out, model.NewFeatureBar(b.Key(), f))
		}
	}
	return out
}

// step feeds bar i and returns its features; ok is false if any is undefined.
// Every accumulator is advanced before returning so later rows stay correct.
func (st *symbolState) step(i int, group []model.Bar, b model.Bar) (model.Features, bool) {
	lc, lcOK := safeLog(b.Close)
	st.logClose = append(st.logClose, lc)
	st.logOK = append(st.logOK, lcOK)

	var rets [len(retLags)]float64
	retsOK := true
	for j, k := range retLags {
		r, ok := st.lagReturn(i, k)
		rets[j] = r
		retsOK = retsOK && ok
	}

	// ret_1 feeds the volatility windows once it exists
	if i >= 1 {
		r1, ok := st.lagReturn(i, 1)
		st.ret1Short.Push(r1, ok)
		st.ret1Long.Push(r1, ok)

		delta := b.Close - group[i-1].Close
		st.gains.Push(math.Max(delta, 0), true)
		st.losses.Push(math.Max(-delta, 0), true)
	}
	st.closeS.Push(b.Close, true)
	st.closeL.Push(b.Close, true)
	st.volume.Push(b.Volume, true)

	valid := retsOK
	keep := func(v float64, ok bool) float64 {
		valid = valid && ok
		return v
	}
	f := model.Features{
		Ret1:       rets[0],
		Ret5:       rets[1],
		Ret15:      rets[2],
		Vol5:       keep(windowStd(st.ret1Short)),
		Vol20:      keep(windowStd(st.ret1Long)),
		PxMA5Diff:  keep(maDiff(b.Close, st.closeS)),
		PxMA20Diff: keep(maDiff(b.Close, st.closeL)),
		HLRange:    keep(ratio(b.High-b.Low, b.Close)),
		OCChange:   keep(ratio(b.Close-b.Open, b.Open)),
		VolZ20:     keep(zScore(b.Volume, st.volume)),
		RSI14:      keep(rsi(st.gains, st.losses)),
		DayOfWeek:  dayOfWeek(b.Time()),
		Minute:     minuteOfDay(b.Time()),
	}
	return f, valid
}

// lagReturn is ln(close[i]) - ln(close[i-k]).
func (st *symbolState) lagReturn(i, k int) (float64, bool) {
	if i < k || !st.logOK[i] || !st.logOK[i-k] {
		return 0, false
	}
	return st.logClose[i] - st.logClose[i-k], true
}

func windowStd(w *rollingWindow) (float64, bool) {
	if !w.Ready() {
		return 0, false
	}
	return w.StdDev(), true
}

// maDiff is (close - SMA) / SMA.
func maDiff(close float64, w *rollingWindow) (float64, bool) {
	if !w.Ready() {
		return 0, false
	}
	ma := w.Mean()
	return ratio(close-ma, ma)
}

// zScore is (v - mean) / popstd; a zero std-dev leaves it undefined.
func zScore(v float64, w *rollingWindow) (float64, bool) {
	if !w.Ready() {
		return 0, false
	}
	return ratio(v-w.Mean(), w.StdDev())
}

// rsi is the simple-average RSI. When the average loss is exactly zero RS is
// undefined and so is the RSI.
func rsi(gains, losses *rollingWindow) (float64, bool) {
	if !gains.Ready() || !losses.Ready() || losses.AllZero() {
		return 0, false
	}
	rs, ok := ratio(gains.Mean(), losses.Mean())
	if !ok {
		return 0, false
	}
	return 100 - 100/(1+rs), true
}

// ratio guards division by zero: the result is undefined, not an error.
func ratio(num, den float64) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func safeLog(x float64) (float64, bool) {
	if x <= 0 {
		return 0, false
	}
	return math.Log(x), true
}

// dayOfWeek returns Monday=0 .. Sunday=6.
func dayOfWeek(t time.Time) int32 {
	return int32((int(t.Weekday()) + 6) % 7)
}

func minuteOfDay(t time.Time) int32 {
	return int32(t.Hour()*60 + t.Minute())
}
