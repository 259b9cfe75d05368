// Package config loads assembler and inspector options from a TOML file,
// following the same struct-of-structs-with-defaults shape the teacher's
// own config package uses.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every option that isn't part of the assembly language
// itself: ROM-shape overrides the linker applies, and display preferences
// for gbas-inspect.
type Config struct {
	// Assembler settings
	Assembler struct {
		MinROMSize    int    `toml:"min_rom_size"`
		PadByte       int    `toml:"pad_byte"`
		HighPageStart int    `toml:"high_page_start"`
		MaxIncludeDepth int  `toml:"max_include_depth"`
		DefaultOutExt string `toml:"default_out_ext"`
	} `toml:"assembler"`

	// Inspector display settings (cmd/gbas-inspect)
	Inspector struct {
		ColorOutput  bool   `toml:"color_output"`
		NumberFormat string `toml:"number_format"` // hex, dec
		BytesPerLine int    `toml:"bytes_per_line"`
	} `toml:"inspector"`
}

// DefaultConfig returns a Config populated with the assembler's built-in
// defaults (spec.md's MIN_ROM_LEN, 0xFF padding, 0xFF00 high-RAM page
// start, and MaxIncludeDepth).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assembler.MinROMSize = 0x8000
	cfg.Assembler.PadByte = 0xFF
	cfg.Assembler.HighPageStart = 0xFF00
	cfg.Assembler.MaxIncludeDepth = 64
	cfg.Assembler.DefaultOutExt = ".gb"

	cfg.Inspector.ColorOutput = true
	cfg.Inspector.NumberFormat = "hex"
	cfg.Inspector.BytesPerLine = 16

	return cfg
}

// GetConfigPath returns the platform-specific config file path, mirroring
// the teacher's per-OS config directory convention.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "gbas")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "gbas")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back to
// DefaultConfig if no file exists yet.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, starting from DefaultConfig and
// overlaying whatever the file specifies.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes c to the default config file location.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes c as TOML to path, creating its parent directory if needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
