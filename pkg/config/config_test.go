package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.TaskList != DefaultTaskList || cfg.Collection != DefaultCollection {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DebounceWindow() != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.DebounceWindow())
	}
	if cfg.SimilarityTolerance() != 24*time.Hour {
		t.Errorf("expected 24h similarity window, got %v", cfg.SimilarityTolerance())
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.TaskList = "Errands"
	cfg.FirestoreProject = "taskflow-dev"
	cfg.Debounce = "250ms"
	cfg.Account = "a@example.com"

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.TaskList != "Errands" || loaded.FirestoreProject != "taskflow-dev" || loaded.Account != "a@example.com" {
		t.Errorf("unexpected round trip: %+v", loaded)
	}
	if loaded.DebounceWindow() != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", loaded.DebounceWindow())
	}
}

func TestLoadFilePartialFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("task_list = \"Home\"\ndebounce = \"bogus\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.TaskList != "Home" || cfg.Collection != DefaultCollection {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.DebounceWindow() != time.Second {
		t.Errorf("invalid duration should fall back to 1s, got %v", cfg.DebounceWindow())
	}
}

func TestLoadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("task_list = [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected a decode error")
	}
}
