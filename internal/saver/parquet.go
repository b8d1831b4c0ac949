package saver

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"bar-dataset/internal/model"
)

// ParquetSaver stores a packet as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(bars []model.Bar, path string) error {
	return parquet.WriteFile(path, bars)
}

// Load checks the file schema for every bar column before decoding rows.
func (ParquetSaver) Load(path string) ([]model.Bar, error) {
	if err := checkParquetColumns(path, model.BarColumns); err != nil {
		return nil, err
	}
	bars, err := parquet.ReadFile[model.Bar](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return bars, nil
}

func checkParquetColumns(path string, columns []string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return fmt.Errorf("open parquet %s: %w", path, err)
	}
	schema := pf.Schema()
	for _, c := range columns {
		if _, ok := schema.Lookup(c); !ok {
			return fmt.Errorf("%w: %s has no column %q", model.ErrInvalidInput, path, c)
		}
	}
	return nil
}
