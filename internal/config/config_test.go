package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Paths.Source != filepath.Join("models", "gemma3n") {
		t.Errorf("unexpected source path %q", cfg.Paths.Source)
	}
	if cfg.Paths.Quantized != filepath.Join("models", "gemma3n_quantized") {
		t.Errorf("unexpected quantized path %q", cfg.Paths.Quantized)
	}
	if cfg.Paths.Assets != filepath.Join("assets", "models", "gemma3n") {
		t.Errorf("unexpected assets path %q", cfg.Paths.Assets)
	}
	if cfg.Python.Interpreter != "python3" {
		t.Errorf("expected interpreter python3, got %q", cfg.Python.Interpreter)
	}
	if cfg.Parallel.Concurrency != 1 {
		t.Errorf("expected concurrency 1, got %d", cfg.Parallel.Concurrency)
	}
	if diff := cmp.Diff(MobileCaps, cfg.Mobile); diff != "" {
		t.Errorf("mobile caps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(QuickCaps, cfg.Quick); diff != "" {
		t.Errorf("quick caps mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	if dir := ConfigDir(); dir != "/tmp/test-xdg/pocketllm" {
		t.Errorf("expected /tmp/test-xdg/pocketllm, got %q", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".config", "pocketllm")
	if dir := ConfigDir(); dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Parallel.Concurrency = 3
	cfg.Python.Interpreter = "/opt/venv/bin/python"
	cfg.Quick.NumHiddenLayers = 4

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := Load()
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch after load (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if diff := cmp.Diff(Default(), Load()); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"cfg.toml", "[paths]\nroot = \"/srv/app\"\n[mobile]\nhidden_size = 512\n"},
		{"cfg.yaml", "paths:\n  root: /srv/app\nmobile:\n  hidden_size: 512\n"},
		{"cfg.json", `{"paths":{"root":"/srv/app"},"mobile":{"hidden_size":512}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if cfg.Paths.Root != "/srv/app" {
				t.Errorf("expected root /srv/app, got %q", cfg.Paths.Root)
			}
			if cfg.Mobile.HiddenSize != 512 {
				t.Errorf("expected hidden_size 512, got %d", cfg.Mobile.HiddenSize)
			}
			// untouched values keep their defaults
			if cfg.Mobile.NumAttentionHeads != MobileCaps.NumAttentionHeads {
				t.Errorf("expected default heads, got %d", cfg.Mobile.NumAttentionHeads)
			}
			if cfg.Paths.Source != Default().Paths.Source {
				t.Errorf("expected default source, got %q", cfg.Paths.Source)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	ini := filepath.Join(dir, "cfg.ini")
	os.WriteFile(ini, []byte("x=1"), 0o644)
	if _, err := LoadFile(ini); err == nil {
		t.Error("expected error for unsupported extension")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for malformed json")
	}
}

func TestFillClampsConcurrency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	os.WriteFile(path, []byte("[parallel]\nconcurrency = 0\n"), 0o644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Parallel.Concurrency != 1 {
		t.Errorf("expected concurrency clamped to 1, got %d", cfg.Parallel.Concurrency)
	}
}

func TestEnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	path := filepath.Join(tmpDir, "pocketllm", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	// Second call should be no-op
	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists second call failed: %v", err)
	}
}
