package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/msalah0e/pocketllm/internal/catalog"
	"github.com/msalah0e/pocketllm/internal/config"
	"github.com/msalah0e/pocketllm/internal/history"
	"github.com/msalah0e/pocketllm/internal/modelinfo"
	"github.com/msalah0e/pocketllm/internal/weights"
)

var (
	customMobile = catalog.Method{Key: "5", Name: "custom_mobile", Label: "Custom Mobile Model", Backend: "mobile"}
	fp16         = catalog.Method{Key: "3", Name: "fp16", Label: "FP16 Conversion", Backend: "transformers"}
)

// testEnv builds an Env rooted in a temp dir with history isolated.
func testEnv(t *testing.T, methods ...catalog.Method) Env {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := config.Default()
	cfg.Paths.Root = t.TempDir()
	env, err := NewEnv(cfg, catalog.New(methods, nil))
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	return env
}

func writeSource(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

var gemmaSource = map[string]string{
	"config.json":           `{"model_type": "gemma3n", "hidden_size": 2048, "num_attention_heads": 8, "num_hidden_layers": 35, "_name_or_path": "google/gemma-3n-E4B-it"}`,
	"tokenizer.json":        `{"version": "1.0"}`,
	"tokenizer_config.json": `{"model_max_length": 32768}`,
}

func snapshot(t *testing.T, root string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		data, err := os.ReadFile(path)
		out[rel] = data
		return err
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return out
}

func sameTree(t *testing.T, want, got map[string][]byte) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d files, got %d", len(want), len(got))
	}
	for name, data := range want {
		if !bytes.Equal(got[name], data) {
			t.Errorf("%s differs", name)
		}
	}
}

func TestQuantizeCustomMobile(t *testing.T) {
	env := testEnv(t, customMobile)
	writeSource(t, env.Dirs.Source, gemmaSource)

	if err := Quantize(context.Background(), env, customMobile); err != nil {
		t.Fatalf("Quantize: %v", err)
	}

	info, err := modelinfo.Read(env.Dirs.Quantized)
	if err != nil {
		t.Fatalf("model info: %v", err)
	}
	if info.QuantizationMethod != "custom_mobile" || info.SizeGB == nil {
		t.Errorf("unexpected model info %+v", info)
	}

	// assets mirror the quantized tree byte for byte
	sameTree(t, snapshot(t, env.Dirs.Quantized), snapshot(t, env.Dirs.Assets))

	entries, _ := history.Read(0)
	if len(entries) != 1 || entries[0].Method != "custom_mobile" || entries[0].Status != history.StatusOK {
		t.Errorf("unexpected history %+v", entries)
	}
}

func TestQuantizeFailureSkipsCopy(t *testing.T) {
	env := testEnv(t, customMobile)
	writeSource(t, env.Dirs.Source, map[string]string{"tokenizer.json": "{}"}) // no config.json

	if err := Quantize(context.Background(), env, customMobile); err == nil {
		t.Fatal("expected failure without config.json")
	}
	if _, err := os.Stat(env.Dirs.Assets); !os.IsNotExist(err) {
		t.Error("assets must not be written after a failed run")
	}

	entries, _ := history.Read(0)
	if len(entries) != 1 || entries[0].Status != history.StatusFailed || entries[0].Details == "" {
		t.Errorf("expected failed history entry, got %+v", entries)
	}
}

func TestQuantizePreHookAborts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hooks need a POSIX shell")
	}
	env := testEnv(t, customMobile)
	env.Config.Hooks.PreQuantize = "exit 1"
	writeSource(t, env.Dirs.Source, gemmaSource)

	if err := Quantize(context.Background(), env, customMobile); err == nil {
		t.Fatal("expected pre hook failure")
	}
	if _, err := os.Stat(filepath.Join(env.Dirs.Quantized, "config.json")); !os.IsNotExist(err) {
		t.Error("backend must not run after a failing pre hook")
	}
}

func TestQuantizePostHookIsWarning(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hooks need a POSIX shell")
	}
	env := testEnv(t, customMobile)
	env.Config.Hooks.PostQuantize = "exit 1"
	env.Config.Hooks.PostCopy = "exit 1"
	writeSource(t, env.Dirs.Source, gemmaSource)

	if err := Quantize(context.Background(), env, customMobile); err != nil {
		t.Fatalf("post hooks must not fail the run: %v", err)
	}
}

func TestQuantizeAll(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stand-ins need a POSIX shell")
	}
	env := testEnv(t, customMobile, fp16)
	writeSource(t, env.Dirs.Source, gemmaSource)

	python := filepath.Join(t.TempDir(), "python")
	os.WriteFile(python, []byte("#!/bin/sh\necho 'No module named torch' >&2\nexit 1\n"), 0o755)
	env.Tools.Python = python

	if n := QuantizeAll(context.Background(), env); n != 1 {
		t.Errorf("expected 1 success, got %d", n)
	}

	mobileDir := filepath.Join(env.Dirs.Quantized, "method_5_custom_mobile")
	if _, err := os.Stat(filepath.Join(mobileDir, weights.WeightsFile)); err != nil {
		t.Errorf("expected custom mobile output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.Dirs.Quantized, "method_3_fp16", modelinfo.FileName)); !os.IsNotExist(err) {
		t.Error("failed method must not write model info")
	}
	if _, err := os.Stat(env.Dirs.Assets); !os.IsNotExist(err) {
		t.Error("all-methods run must not copy to assets")
	}

	entries, _ := history.Read(0)
	if len(entries) != 2 {
		t.Errorf("expected one history entry per method, got %d", len(entries))
	}
}

func TestQuick(t *testing.T) {
	env := testEnv(t)
	writeSource(t, env.Dirs.Source, gemmaSource)

	if err := Quick(context.Background(), env); err != nil {
		t.Fatalf("Quick: %v", err)
	}
	first := snapshot(t, env.Dirs.Quantized)

	for _, name := range []string{"config.json", "tokenizer.json", "tokenizer_config.json", weights.WeightsFile, weights.IndexFile, modelinfo.FileName} {
		if _, ok := first[name]; !ok {
			t.Errorf("expected %s in models location", name)
		}
	}
	for _, name := range []string{"special_tokens_map.json", "generation_config.json"} {
		if _, ok := first[name]; ok {
			t.Errorf("%s is absent from the source and must not be created", name)
		}
	}
	if n := len(first[weights.WeightsFile]); n != 1024*1024 {
		t.Errorf("expected 1 MiB placeholder, got %d bytes", n)
	}

	var cfg map[string]any
	json.Unmarshal(first["config.json"], &cfg)
	if cfg["hidden_size"] != float64(1024) || cfg["num_attention_heads"] != float64(6) || cfg["num_hidden_layers"] != float64(8) {
		t.Errorf("quick caps not applied: %v", cfg)
	}

	// both locations hold the same artifact apart from the location tag
	assets := snapshot(t, env.Dirs.Assets)
	for name, data := range first {
		if name == modelinfo.FileName {
			continue
		}
		if !bytes.Equal(assets[name], data) {
			t.Errorf("%s differs between locations", name)
		}
	}
	for _, loc := range env.Locations() {
		info, err := modelinfo.Read(loc.Dir)
		if err != nil || info.Location != loc.Name {
			t.Errorf("%s: unexpected model info %+v (%v)", loc.Name, info, err)
		}
	}

	// running again leaves the same state
	if err := Quick(context.Background(), env); err != nil {
		t.Fatalf("second Quick: %v", err)
	}
	sameTree(t, first, snapshot(t, env.Dirs.Quantized))
}

func TestQuickWithoutSource(t *testing.T) {
	env := testEnv(t)

	if err := Quick(context.Background(), env); err != nil {
		t.Fatalf("Quick without a source model: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(env.Dirs.Assets, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	var cfg map[string]any
	json.Unmarshal(data, &cfg)
	if cfg["model_type"] != "gemma" || cfg["vocab_size"] != float64(256000) {
		t.Errorf("expected defaults, got %v", cfg)
	}
}

func TestQuickMalformedConfig(t *testing.T) {
	env := testEnv(t)
	writeSource(t, env.Dirs.Source, map[string]string{"config.json": "{not json"})
	if err := Quick(context.Background(), env); err == nil {
		t.Error("expected error for malformed source config")
	}
}

func TestMethodDir(t *testing.T) {
	got := MethodDir("/q", catalog.Method{Key: "4", Name: "onnx_int8"})
	if got != filepath.Join("/q", "method_4_onnx_int8") {
		t.Errorf("unexpected method dir %q", got)
	}
}
