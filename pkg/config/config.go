// Package config loads and validates the identity and matrix-chunking
// settings the link and matrix packages need at construction time,
// replacing compile-time SAT_CALLSIGN/GRD_CALLSIGN-style constants with
// values resolved at startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parsat/ax25link/pkg/link"
	"github.com/parsat/ax25link/pkg/matrix"
)

// Config covers station identity and matrix-chunking options.
type Config struct {
	SatCallsign string `yaml:"sat_callsign"`
	SatSSID     uint8  `yaml:"sat_ssid"`
	GrdCallsign string `yaml:"grd_callsign"`
	GrdSSID     uint8  `yaml:"grd_ssid"`

	MatrixChunkSize int `yaml:"matrix_chunk_size"`
	MatrixMaxRows   int `yaml:"matrix_max_rows"`
	MatrixMaxCols   int `yaml:"matrix_max_cols"`
}

// DefaultConfig returns the reference build's values: satellite
// PARSAT/0, ground ABCD/0, a 200-byte chunk target, and 1000x1000
// dimension guardrails.
func DefaultConfig() Config {
	return Config{
		SatCallsign:     "PARSAT",
		SatSSID:         0,
		GrdCallsign:     "ABCD",
		GrdSSID:         0,
		MatrixChunkSize: matrix.DefaultChunkSize,
		MatrixMaxRows:   1000,
		MatrixMaxCols:   1000,
	}
}

// Load reads and validates a Config from a YAML file, filling any
// missing fields from DefaultConfig first.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the range and length limits each configuration
// option is subject to on the wire (SSID nibble width, callsign length,
// chunk size against the per-frame data ceiling).
func (c Config) Validate() error {
	if c.SatSSID > 15 {
		return fmt.Errorf("config: sat_ssid must be 0-15, got %d: %w", c.SatSSID, link.ErrInvalidParam)
	}
	if c.GrdSSID > 15 {
		return fmt.Errorf("config: grd_ssid must be 0-15, got %d: %w", c.GrdSSID, link.ErrInvalidParam)
	}
	if len(c.SatCallsign) == 0 || len(c.SatCallsign) > 6 {
		return fmt.Errorf("config: sat_callsign must be 1-6 characters, got %q: %w", c.SatCallsign, link.ErrInvalidParam)
	}
	if len(c.GrdCallsign) == 0 || len(c.GrdCallsign) > 6 {
		return fmt.Errorf("config: grd_callsign must be 1-6 characters, got %q: %w", c.GrdCallsign, link.ErrInvalidParam)
	}
	if c.MatrixChunkSize <= 0 || c.MatrixChunkSize > matrix.MaxChunkData {
		return fmt.Errorf("config: matrix_chunk_size must be 1-%d, got %d: %w", matrix.MaxChunkData, c.MatrixChunkSize, link.ErrInvalidParam)
	}
	if c.MatrixMaxRows <= 0 {
		return fmt.Errorf("config: matrix_max_rows must be positive, got %d: %w", c.MatrixMaxRows, link.ErrInvalidParam)
	}
	if c.MatrixMaxCols <= 0 {
		return fmt.Errorf("config: matrix_max_cols must be positive, got %d: %w", c.MatrixMaxCols, link.ErrInvalidParam)
	}
	return nil
}

// NewCodec builds a link.Codec from this configuration, with the ground
// station as destination and the satellite as source, matching the
// reference build's addressing convention.
func (c Config) NewCodec() (*link.Codec, error) {
	return link.NewCodec(c.GrdCallsign, c.GrdSSID, c.SatCallsign, c.SatSSID)
}
