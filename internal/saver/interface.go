package saver

import (
	"path/filepath"
	"strings"

	"bar-dataset/internal/model"
)

// PacketSaver persists and reloads one packet (one symbol-day partition) of bars.
// High-level code (app) injects the implementation; the crawler only depends on the interface.
type PacketSaver interface {
	Save(bars []model.Bar, path string) error
	Load(path string) ([]model.Bar, error)
	Extension() string
}

// NewPacketSaver creates an implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewPacketSaver(format string) PacketSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// saverForPath picks the implementation matching the file extension.
func saverForPath(path string) PacketSaver {
	return NewPacketSaver(strings.TrimPrefix(filepath.Ext(path), "."))
}
