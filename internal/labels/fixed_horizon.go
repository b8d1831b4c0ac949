// Package labels attaches fixed-horizon forward-return labels to minute bars.
package labels

import (
	"fmt"
	"math"

	"bar-dataset/internal/model"
)

// BpsToFraction converts basis points to a fraction.
const BpsToFraction = 1e-4

// Params holds the labeling parameters. One bar per minute, so the horizon in
// bars equals the horizon in minutes.
type Params struct {
	Horizon      int     // bars ahead; 0 keeps every row with a zero return
	ThresholdBps float64 // flat band half-width in basis points
}

// Validate reports ErrInvalidInput for a negative horizon or an unusable threshold.
// The threshold must be finite and >= 0: with a negative one the Up band
// (r > tau) and the Down band (r < -tau) would overlap, so threshold_bps is
// rejected here and by config validation rather than silently reinterpreted.
func (p Params) Validate() error {
	if p.Horizon < 0 {
		return fmt.Errorf("%w: horizon must be >= 0, got %d", model.ErrInvalidInput, p.Horizon)
	}
	if math.IsNaN(p.ThresholdBps) || math.IsInf(p.ThresholdBps, 0) || p.ThresholdBps < 0 {
		return fmt.Errorf("%w: threshold_bps must be a finite value >= 0, got %v", model.ErrInvalidInput, p.ThresholdBps)
	}
	return nil
}

// Tau returns the threshold as a fraction.
func (p Params) Tau() float64 {
	return p.ThresholdBps * BpsToFraction
}

// Labeler computes forward returns and direction classes.
type Labeler struct {
	params Params
}

// NewLabeler returns a Labeler for p.
func NewLabeler(p Params) (*Labeler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Labeler{params: p}, nil
}

// Params returns the labeler's parameters.
func (l *Labeler) Params() Params { return l.params }

// Label returns a new table of labeled bars, sorted by (symbol, timestamp).
// The trailing Horizon bars of every symbol have no target and are dropped.
func (l *Labeler) Label(bars []model.Bar) ([]model.LabeledBar, error) {
	sorted, err := model.PrepareBars(bars)
	if err != nil {
		return nil, err
	}
	h := l.params.Horizon
	tau := l.params.Tau()

	out := make([]model.LabeledBar, 0, len(sorted))
	for _, group := range model.GroupBySymbol(sorted) {
		for i := 0; i+h < len(group); i++ {
			fwd, ok := logReturn(group[i].Close, group[i+h].Close)
			if !ok {
				continue
			}
			out = append(out, model.NewLabeledBar(group[i], fwd, Classify(fwd, tau)))
		}
	}
	return out, nil
}

// Label is a convenience wrapper: NewLabeler(Params{horizon, thresholdBps}).Label(bars).
func Label(bars []model.Bar, horizon int, thresholdBps float64) ([]model.LabeledBar, error) {
	l, err := NewLabeler(Params{Horizon: horizon, ThresholdBps: thresholdBps})
	if err != nil {
		return nil, err
	}
	return l.Label(bars)
}

// Classify maps a forward return to a direction. Returns exactly at ±tau are Flat.
func Classify(fwd, tau float64) model.Direction {
	switch {
	case fwd > tau:
		return model.Up
	case fwd < -tau:
		return model.Down
	default:
		return model.Flat
	}
}

// logReturn is ln(to) - ln(from); undefined for non-positive prices.
func logReturn(from, to float64) (float64, bool) {
	if from <= 0 || to <= 0 {
		return 0, false
	}
	if from == to {
		return 0, true
	}
	return math.Log(to) - math.Log(from), true
}
