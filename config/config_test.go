package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytausky/gbas/config"
)

func TestDefaultConfigMatchesSpecConstants(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, 0x8000, cfg.Assembler.MinROMSize)
	assert.Equal(t, 0xFF, cfg.Assembler.PadByte)
	assert.Equal(t, 0xFF00, cfg.Assembler.HighPageStart)
	assert.Equal(t, 64, cfg.Assembler.MaxIncludeDepth)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Inspector.NumberFormat = "dec"
	cfg.Assembler.PadByte = 0x00

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "dec", loaded.Inspector.NumberFormat)
	assert.Equal(t, 0, loaded.Assembler.PadByte)
}
