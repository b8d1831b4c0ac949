package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"bar-dataset/internal/model"
)

// TableExtension returns the file extension used for derived tables.
// Labeled and training tables carry typed columns, so csv falls back to parquet.
func TableExtension(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return "json"
	}
	return "parquet"
}

// LabeledPath returns {base}/processed/{SYMBOL}_{tf}_labeled.{ext}
func LabeledPath(base, symbol, timeframe, format string) string {
	return filepath.Join(base, "processed", fmt.Sprintf("%s_%s_labeled.%s", symbol, timeframe, TableExtension(format)))
}

// TrainPath returns {base}/processed/train/{SYMBOL}_{tf}_train.{ext}
func TrainPath(base, symbol, timeframe, format string) string {
	return filepath.Join(base, "processed", "train", fmt.Sprintf("%s_%s_train.%s", symbol, timeframe, TableExtension(format)))
}

// WriteTable writes rows as parquet or json depending on the path extension.
func WriteTable[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	switch filepath.Ext(path) {
	case ".parquet":
		return parquet.WriteFile(path, rows)
	case ".json":
		return writeJSON(path, rows)
	default:
		return fmt.Errorf("unsupported table extension %q", filepath.Ext(path))
	}
}

// ReadTable reads a table written by WriteTable. columns lists the names the
// file must carry; a missing one is ErrInvalidInput.
func ReadTable[T any](path string, columns []string) ([]T, error) {
	switch filepath.Ext(path) {
	case ".parquet":
		if err := checkParquetColumns(path, columns); err != nil {
			return nil, err
		}
		rows, err := parquet.ReadFile[T](path)
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
		return rows, nil
	case ".json":
		return readJSON[T](path, columns)
	default:
		return nil, fmt.Errorf("unsupported table extension %q", filepath.Ext(path))
	}
}

// LabeledTableColumns lists the columns of a labeled table.
func LabeledTableColumns() []string {
	return append(append([]string(nil), model.BarColumns...), model.LabelColumns...)
}

// TrainingTableColumns lists the columns of a training table.
func TrainingTableColumns() []string {
	cols := []string{"datetime", "symbol"}
	cols = append(cols, model.FeatureColumns...)
	return append(cols, model.LabelColumns...)
}
