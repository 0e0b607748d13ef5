package backend

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed helper/quantize.py
var helperScript []byte

// resultPrefix marks the helper's result line.
const resultPrefix = "POCKETLLM_RESULT "

// Transformers quantizes through the embedded Python helper.
type Transformers struct {
	Python string
}

// Quantize runs the helper for int8, int4 or fp16.
func (t Transformers) Quantize(ctx context.Context, job Job) (Result, error) {
	switch job.Method {
	case "int8", "int4", "fp16":
	default:
		return Result{}, fmt.Errorf("transformers backend does not support %q", job.Method)
	}

	script, err := writeHelper()
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(script)

	out, err := Run(ctx, Cmd{
		Path: t.Python,
		Args: []string{script, "--method", job.Method, "--source", job.Source, "--output", job.Output},
		Env:  map[string]string{"PYTHONUNBUFFERED": "1"},
	})
	if err != nil {
		return Result{Output: out}, err
	}

	res, err := parseResult(out)
	res.Output = out
	return res, err
}

func writeHelper() (string, error) {
	f, err := os.CreateTemp("", "pocketllm-quantize-*.py")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(helperScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// parseResult reads the last result line from helper output.
func parseResult(out string) (Result, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, resultPrefix) {
			continue
		}
		var rec struct {
			OriginalBytes  int64 `json:"original_bytes"`
			QuantizedBytes int64 `json:"quantized_bytes"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, resultPrefix)), &rec); err != nil {
			return Result{}, fmt.Errorf("parsing helper result: %w", err)
		}
		return Result{OriginalBytes: rec.OriginalBytes, QuantizedBytes: rec.QuantizedBytes}, nil
	}
	return Result{}, fmt.Errorf("helper finished without a result line")
}
