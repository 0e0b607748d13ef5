package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/msalah0e/pocketllm/internal/layout"
)

// onnxQuantizeFlags selects the optimum-cli quantization preset per precision.
var onnxQuantizeFlags = map[string][]string{
	"int8": {"--avx512_vnni", "--per_channel"},
	"int4": {"--arm64"},
}

// ONNX exports to ONNX with optimum-cli and quantizes with onnxruntime.
type ONNX struct {
	CLI string
}

// Quantize exports into a temporary directory, then quantizes into the
// output. The temporary export is removed afterwards.
func (o ONNX) Quantize(ctx context.Context, job Job) (Result, error) {
	flags, ok := onnxQuantizeFlags[job.Method]
	if !ok {
		return Result{}, fmt.Errorf("onnx backend does not support %q", job.Method)
	}

	tmp, err := os.MkdirTemp("", "pocketllm-onnx-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmp)

	exportOut, err := Run(ctx, Cmd{
		Path: o.CLI,
		Args: []string{"export", "onnx", "--model", job.Source, "--task", "text-generation-with-past", tmp},
	})
	if err != nil {
		return Result{Output: exportOut}, fmt.Errorf("onnx export: %w", err)
	}
	exported, _ := layout.DirSize(tmp)

	args := append([]string{"onnxruntime", "quantize", "--onnx_model", tmp}, flags...)
	args = append(args, "-o", job.Output)
	quantOut, err := Run(ctx, Cmd{Path: o.CLI, Args: args})
	output := exportOut + quantOut
	if err != nil {
		return Result{Output: output}, fmt.Errorf("onnx quantize: %w", err)
	}

	// the quantizer writes only model files; keep the tokenizer with them
	if _, err := layout.CopyPresent(tmp, job.Output, append([]string{"config.json"}, TokenizerFiles...)); err != nil {
		return Result{Output: output}, err
	}

	size, err := layout.DirSize(job.Output)
	if err != nil {
		return Result{Output: output}, err
	}
	return Result{OriginalBytes: exported, QuantizedBytes: size, Output: output}, nil
}

// TFLite exports a dynamically int8-quantized TensorFlow Lite model.
type TFLite struct {
	CLI string
}

// tfliteSequenceLength is the static sequence length of the export.
const tfliteSequenceLength = "128"

// Quantize runs the export straight into the output directory.
func (t TFLite) Quantize(ctx context.Context, job Job) (Result, error) {
	if job.Method != "int8" {
		return Result{}, fmt.Errorf("tflite backend does not support %q", job.Method)
	}
	out, err := Run(ctx, Cmd{
		Path: t.CLI,
		Args: []string{
			"export", "tflite",
			"--model", job.Source,
			"--sequence_length", tfliteSequenceLength,
			"--quantize", "int8-dynamic",
			job.Output,
		},
	})
	if err != nil {
		return Result{Output: out}, fmt.Errorf("tflite export: %w", err)
	}
	size, err := layout.DirSize(job.Output)
	if err != nil {
		return Result{Output: out}, err
	}
	return Result{QuantizedBytes: size, Output: out}, nil
}
