// Package dataset assembles the training table from labeled and feature bars.
package dataset

import (
	"fmt"
	"math"
	"sort"

	"bar-dataset/internal/features"
	"bar-dataset/internal/labels"
	"bar-dataset/internal/model"
)

// Join inner-joins feature rows with labeled rows on (symbol, timestamp).
// A key repeated on either side is rejected with ErrDuplicateKey. Rows with a
// non-finite feature or label are dropped. Output is sorted by key.
func Join(feats []model.FeatureBar, labeled []model.LabeledBar) ([]model.TrainingRow, error) {
	byKey := make(map[model.Key]model.LabeledBar, len(labeled))
	for _, l := range labeled {
		k := l.Key()
		if _, exists := byKey[k]; exists {
			return nil, fmt.Errorf("%w: labeled %s", model.ErrDuplicateKey, k)
		}
		byKey[k] = l
	}

	seen := make(map[model.Key]struct{}, len(feats))
	rows := make([]model.TrainingRow, 0, min(len(feats), len(labeled)))
	for _, f := range feats {
		k := f.Key()
		if _, exists := seen[k]; exists {
			return nil, fmt.Errorf("%w: features %s", model.ErrDuplicateKey, k)
		}
		seen[k] = struct{}{}

		l, ok := byKey[k]
		if !ok {
			continue
		}
		row := model.NewTrainingRow(f, l)
		if !dense(row) {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Key().Less(rows[j].Key())
	})
	return rows, nil
}

// dense reports whether every selected column of row is defined.
func dense(row model.TrainingRow) bool {
	vals := [...]float64{
		row.Ret1, row.Ret5, row.Ret15, row.Vol5, row.Vol20,
		row.PxMA5Diff, row.PxMA20Diff, row.HLRange, row.OCChange,
		row.VolZ20, row.RSI14, row.ForwardReturn,
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	switch row.Direction {
	case model.Up, model.Down, model.Flat:
		return true
	}
	return false
}

// Build labels bars, extracts features from the labeled rows and joins them.
func Build(bars []model.Bar, p labels.Params) ([]model.TrainingRow, error) {
	labeler, err := labels.NewLabeler(p)
	if err != nil {
		return nil, err
	}
	labeled, err := labeler.Label(bars)
	if err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	return FromLabeled(labeled)
}

// FromLabeled extracts features from an already labeled table and joins them.
func FromLabeled(labeled []model.LabeledBar) ([]model.TrainingRow, error) {
	if len(labeled) == 0 {
		return nil, fmt.Errorf("%w: empty labeled table", model.ErrInvalidInput)
	}
	feats, err := features.ExtractLabeled(labeled)
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}
	return Join(feats, labeled)
}
