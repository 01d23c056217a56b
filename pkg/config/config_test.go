package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Validates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestDefaultConfig_BuildsCodec(t *testing.T) {
	cfg := DefaultConfig()
	codec, err := cfg.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	if _, err := codec.Encode([]byte("ping")); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
}

func TestValidate_RejectsBadSSID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SatSSID = 16
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with sat_ssid=16 should fail")
	}
}

func TestValidate_RejectsOversizedCallsign(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GrdCallsign = "TOOLONGCALL"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with an 11-char callsign should fail")
	}
}

func TestValidate_RejectsChunkSizeOverCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MatrixChunkSize = 500
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with matrix_chunk_size=500 should fail")
	}
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "sat_callsign: KD2ABC\nsat_ssid: 5\ngrd_callsign: WXYZ\ngrd_ssid: 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SatCallsign != "KD2ABC" || cfg.SatSSID != 5 {
		t.Errorf("sat identity = %s/%d, want KD2ABC/5", cfg.SatCallsign, cfg.SatSSID)
	}
	if cfg.GrdCallsign != "WXYZ" || cfg.GrdSSID != 2 {
		t.Errorf("grd identity = %s/%d, want WXYZ/2", cfg.GrdCallsign, cfg.GrdSSID)
	}
	// Fields absent from the YAML fall back to DefaultConfig's values.
	if cfg.MatrixChunkSize != DefaultConfig().MatrixChunkSize {
		t.Errorf("matrix_chunk_size = %d, want default %d", cfg.MatrixChunkSize, DefaultConfig().MatrixChunkSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() on a missing file should fail")
	}
}
