// Package backend dispatches a quantization job to the tool that performs it.
// The transformers, onnx and tflite backends delegate to Python tooling; the
// mobile backend runs natively.
package backend

import (
	"context"
	"fmt"

	"github.com/msalah0e/pocketllm/internal/catalog"
	"github.com/msalah0e/pocketllm/internal/config"
)

// Job is one quantization request.
type Job struct {
	Method string // precision target, e.g. int8
	Source string
	Output string
}

// Result reports what a backend produced. Byte counts are zero when the
// backend cannot measure them.
type Result struct {
	OriginalBytes  int64
	QuantizedBytes int64
	Output         string // captured tool output
}

// Quantizer runs a Job.
type Quantizer interface {
	Quantize(ctx context.Context, job Job) (Result, error)
}

// TokenizerFiles are carried over from the source model when present.
var TokenizerFiles = []string{
	"tokenizer.json",
	"tokenizer_config.json",
	"special_tokens_map.json",
	"tokenizer.model",
}

// Tools locates the external programs the delegating backends call.
type Tools struct {
	Python     string
	OptimumCLI string
	Caps       config.Caps // applied by the mobile backend
}

// ToolsFrom builds Tools from the user configuration.
func ToolsFrom(cfg *config.Config) Tools {
	return Tools{
		Python:     cfg.Python.Interpreter,
		OptimumCLI: cfg.Python.OptimumCLI,
		Caps:       cfg.Mobile,
	}
}

// For returns the backend that implements m.
func For(m catalog.Method, tools Tools) (Quantizer, error) {
	switch m.Backend {
	case "transformers":
		return Transformers{Python: tools.Python}, nil
	case "onnx":
		return ONNX{CLI: tools.OptimumCLI}, nil
	case "tflite":
		return TFLite{CLI: tools.OptimumCLI}, nil
	case "mobile":
		return Mobile{Caps: tools.Caps}, nil
	default:
		return nil, fmt.Errorf("method %s: unknown backend %q", m.Name, m.Backend)
	}
}
