package saver

import (
	"encoding/json"
	"fmt"
	"os"

	"bar-dataset/internal/model"
)

// JSONSaver stores a packet as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(bars []model.Bar, path string) error {
	return writeJSON(path, bars)
}

func (JSONSaver) Load(path string) ([]model.Bar, error) {
	return readJSON[model.Bar](path, model.BarColumns)
}

func writeJSON[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return f.Close()
}

// readJSON decodes a JSON array of rows after checking that every row carries
// each of columns, so a missing column is ErrInvalidInput rather than a zero value.
func readJSON[T any](path string, columns []string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse JSON %s: %w", path, err)
	}
	for i, row := range raw {
		for _, c := range columns {
			if _, ok := row[c]; !ok {
				return nil, fmt.Errorf("%w: %s row %d has no column %q", model.ErrInvalidInput, path, i, c)
			}
		}
	}
	rows := make([]T, 0, len(raw))
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse JSON %s: %w", path, err)
	}
	return rows, nil
}
