//go:build e2e

package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var pocketllmBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "pocketllm-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	pocketllmBin = filepath.Join(tmp, "pocketllm")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/pocketllm/cmd.version=0.3.0-test", "-o", pocketllmBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build pocketllm: " + err.Error())
	}

	os.Exit(m.Run())
}

// runPocketllm executes the binary against a project root. HOME lives
// inside the root so history persists across calls in one test.
func runPocketllm(t *testing.T, root, stdin string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(pocketllmBin, append([]string{"--root", root}, args...)...)
	home := filepath.Join(root, ".home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatal(err)
	}
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"NO_COLOR=1",
	)
	cmd.Stdin = strings.NewReader(stdin)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run pocketllm %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

// projectWithSource creates a project root holding a small source model.
func projectWithSource(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "models", "gemma3n")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"config.json":    `{"model_type": "gemma3n", "hidden_size": 2048, "num_hidden_layers": 35}`,
		"tokenizer.json": `{"version": "1.0"}`,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return out
}

func TestE2E_Version(t *testing.T) {
	out, _, code := runPocketllm(t, t.TempDir(), "", "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "0.3.0-test") {
		t.Errorf("expected version output to contain '0.3.0-test', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runPocketllm(t, t.TempDir(), "", "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, sub := range []string{"quantize", "quick", "doctor", "methods", "history"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q", sub)
		}
	}
}

func TestE2E_Methods(t *testing.T) {
	out, _, code := runPocketllm(t, t.TempDir(), "", "methods")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, m := range []string{"int8", "int4", "fp16", "onnx_int8", "custom_mobile", "tflite", "native", "external"} {
		if !strings.Contains(out, m) {
			t.Errorf("expected methods to list %q", m)
		}
	}
}

func TestE2E_Quick(t *testing.T) {
	root := projectWithSource(t)
	out, _, code := runPocketllm(t, root, "", "quick")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}
	if !strings.Contains(out, "special_tokens_map.json not found in source") {
		t.Errorf("expected warning for missing tokenizer file, got %q", out)
	}
	for _, dir := range []string{"models/gemma3n_quantized", "assets/models/gemma3n"} {
		cfg := readJSON(t, filepath.Join(root, dir, "config.json"))
		if cfg["num_hidden_layers"] != float64(8) {
			t.Errorf("%s: expected 8 layers, got %v", dir, cfg["num_hidden_layers"])
		}
	}
}

func TestE2E_QuantizeMissingSource(t *testing.T) {
	root := t.TempDir()
	out, _, code := runPocketllm(t, root, "5\n", "quantize")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, "Source model not found") {
		t.Errorf("expected missing source message, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "models", "gemma3n")); !os.IsNotExist(err) {
		t.Error("source directory must not be created")
	}
	for _, dir := range []string{"models/gemma3n_quantized", "assets/models/gemma3n"} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			t.Errorf("%s: expected an empty directory: %v", dir, err)
			continue
		}
		if len(entries) != 0 {
			t.Errorf("%s: expected no output, found %d entries", dir, len(entries))
		}
	}
}

func TestE2E_QuantizeCustomMobileFromMenu(t *testing.T) {
	root := projectWithSource(t)
	out, _, code := runPocketllm(t, root, "5\n", "quantize")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}
	info := readJSON(t, filepath.Join(root, "assets", "models", "gemma3n", "model_info.json"))
	if info["quantization_method"] != "custom_mobile" {
		t.Errorf("unexpected model info %v", info)
	}
}

func TestE2E_QuantizeMethodFlag(t *testing.T) {
	root := projectWithSource(t)
	_, _, code := runPocketllm(t, root, "", "quantize", "--method", "custom_mobile")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	out, _, code := runPocketllm(t, root, "", "info")
	if code != 0 {
		t.Fatalf("info: expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "placeholder weights") {
		t.Errorf("expected placeholder warning, got %q", out)
	}
}

func TestE2E_QuantizeUnknownMethod(t *testing.T) {
	root := projectWithSource(t)
	_, _, code := runPocketllm(t, root, "", "quantize", "--method", "int2")
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestE2E_HistoryEmpty(t *testing.T) {
	out, _, code := runPocketllm(t, t.TempDir(), "", "history")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Errorf("expected empty history message, got %q", out)
	}
}

func TestE2E_HistoryAfterRun(t *testing.T) {
	root := projectWithSource(t)
	if _, _, code := runPocketllm(t, root, "", "quantize", "--method", "custom_mobile"); code != 0 {
		t.Fatalf("quantize: expected exit 0, got %d", code)
	}

	out, _, code := runPocketllm(t, root, "", "history", "export")
	if code != 0 {
		t.Fatalf("export: expected exit 0, got %d", code)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("export is not a JSON array: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0]["method"] != "custom_mobile" || entries[0]["status"] != "ok" {
		t.Errorf("unexpected history %v", entries)
	}

	out, _, _ = runPocketllm(t, root, "", "history", "stats")
	if !strings.Contains(out, "custom_mobile") {
		t.Errorf("expected custom_mobile in stats, got %q", out)
	}
}

func TestE2E_ConfigPath(t *testing.T) {
	root := t.TempDir()
	out, _, code := runPocketllm(t, root, "", "config", "path")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	want := filepath.Join(root, ".home", ".config", "pocketllm", "config.toml")
	if strings.TrimSpace(out) != want {
		t.Errorf("expected %s, got %q", want, out)
	}
}

func TestE2E_ConfigShow(t *testing.T) {
	out, _, code := runPocketllm(t, t.TempDir(), "", "config", "show")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "[paths]") || !strings.Contains(out, "[mobile]") {
		t.Errorf("expected TOML sections, got %q", out)
	}
}

func TestE2E_CompletionZsh(t *testing.T) {
	out, _, code := runPocketllm(t, t.TempDir(), "", "completion", "zsh")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "pocketllm") {
		t.Error("expected completion script to mention pocketllm")
	}
}
