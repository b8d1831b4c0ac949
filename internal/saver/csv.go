package saver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"bar-dataset/internal/model"
)

// CSVSaver stores a packet as CSV (header: datetime,symbol,open,high,low,close,volume).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(bars []model.Bar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write(model.BarColumns); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			strconv.FormatInt(b.Timestamp, 10),
			b.Symbol,
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (CSVSaver) Load(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, c := range model.BarColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s has no column %q", model.ErrInvalidInput, path, c)
		}
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		b, err := parseCSVBar(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseCSVBar(rec []string, idx map[string]int) (model.Bar, error) {
	var b model.Bar
	var err error
	if b.Timestamp, err = strconv.ParseInt(rec[idx["datetime"]], 10, 64); err != nil {
		return b, err
	}
	b.Symbol = rec[idx["symbol"]]
	fields := []struct {
		col string
		dst *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close}, {"volume", &b.Volume},
	}
	for _, fd := range fields {
		if *fd.dst, err = strconv.ParseFloat(rec[idx[fd.col]], 64); err != nil {
			return b, fmt.Errorf("column %s: %w", fd.col, err)
		}
	}
	return b, nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
