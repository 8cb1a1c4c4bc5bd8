package config

import (
	"os"
	"testing"
)

func TestConfig_StorageDirDefault(t *testing.T) {
	// Unset env var to test default
	os.Unsetenv("STORAGE_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StorageDir != "./storage" {
		t.Errorf("StorageDir = %q, want %q", cfg.StorageDir, "./storage")
	}
}

func TestConfig_StorageDirFromEnv(t *testing.T) {
	os.Setenv("STORAGE_DIR", "/custom/path")
	defer os.Unsetenv("STORAGE_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StorageDir != "/custom/path" {
		t.Errorf("StorageDir = %q, want %q", cfg.StorageDir, "/custom/path")
	}
}

func TestConfig_NumericDefaults(t *testing.T) {
	os.Unsetenv("STORAGE_WARN_KB")
	os.Unsetenv("REMOTE_RPS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StorageWarnKB != 4000 {
		t.Errorf("StorageWarnKB = %d, want 4000", cfg.StorageWarnKB)
	}
	if cfg.RemoteRPS != 5.0 {
		t.Errorf("RemoteRPS = %v, want 5.0", cfg.RemoteRPS)
	}
}

func TestConfig_InvalidIntFallsBack(t *testing.T) {
	os.Setenv("HTTP_PORT", "not-a-number")
	defer os.Unsetenv("HTTP_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 3100 {
		t.Errorf("HTTPPort = %d, want default 3100", cfg.HTTPPort)
	}
}
