package binance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSymbolsFromFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "symbols.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# majors\nbtcusdt\n\nETHUSDT\n  ethusdt \n"), 0644))
	got, err := LoadSymbolsFromFile(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, got)

	js := filepath.Join(dir, "symbols.json")
	require.NoError(t, os.WriteFile(js, []byte(`["solusdt","SOLUSDT","bnbusdt"]`), 0644))
	got, err = LoadSymbolsFromFile(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"SOLUSDT", "BNBUSDT"}, got)

	_, err = LoadSymbolsFromFile(filepath.Join(dir, "symbols.yaml"))
	assert.Error(t, err)
}

func TestResolveSymbols(t *testing.T) {
	got, err := ResolveSymbols([]string{"btcusdt", " ETH/USDT", "BTC/USDT"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, got)

	_, err = ResolveSymbols(nil, "")
	assert.Error(t, err)
}
