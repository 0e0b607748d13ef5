// Package pipeline runs quantization methods end to end: hooks, backend,
// model info, asset copy and history.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/msalah0e/pocketllm/internal/backend"
	"github.com/msalah0e/pocketllm/internal/catalog"
	"github.com/msalah0e/pocketllm/internal/config"
	"github.com/msalah0e/pocketllm/internal/history"
	"github.com/msalah0e/pocketllm/internal/hooks"
	"github.com/msalah0e/pocketllm/internal/layout"
	"github.com/msalah0e/pocketllm/internal/modelinfo"
	"github.com/msalah0e/pocketllm/internal/parallel"
	"github.com/msalah0e/pocketllm/internal/safetensors"
	"github.com/msalah0e/pocketllm/internal/ui"
)

// Env carries everything a run needs.
type Env struct {
	Dirs    layout.Dirs
	Config  *config.Config
	Catalog *catalog.Catalog
	Tools   backend.Tools
}

// NewEnv resolves directories and tools from cfg.
func NewEnv(cfg *config.Config, cat *catalog.Catalog) (Env, error) {
	dirs, err := layout.Resolve(cfg.Paths)
	if err != nil {
		return Env{}, err
	}
	return Env{Dirs: dirs, Config: cfg, Catalog: cat, Tools: backend.ToolsFrom(cfg)}, nil
}

// MethodDir is where the all-methods run writes method m.
func MethodDir(quantized string, m catalog.Method) string {
	return filepath.Join(quantized, fmt.Sprintf("method_%s_%s", m.Key, m.Name))
}

// Quantize runs m into the quantized directory and copies the result to
// the assets directory. A backend failure skips the copy.
func Quantize(ctx context.Context, env Env, m catalog.Method) error {
	start := time.Now()
	fmt.Printf("\n🎯 Selected: %s quantization\n", strings.ToUpper(m.Name))

	res, err := runMethod(ctx, env, m, env.Dirs.Quantized)
	if err == nil {
		err = publish(ctx, env, m)
	}
	record(history.Entry{
		Command:  "quantize",
		Method:   m.Name,
		Status:   history.Status(err),
		Output:   env.Dirs.Assets,
		Duration: time.Since(start).Seconds(),
		Details:  details(res, err),
	})
	if err != nil {
		return err
	}

	fmt.Println()
	ui.Good.Println("🎉 Quantization completed successfully!")
	fmt.Printf("%s Model ready for mobile deployment in: %s\n", ui.Phone, env.Dirs.Assets)
	return nil
}

// QuantizeAll runs every menu method into its own directory under the
// quantized directory and returns how many succeeded. Nothing is copied to
// the assets directory.
func QuantizeAll(ctx context.Context, env Env) int {
	methods := env.Catalog.Menu()
	tasks := make([]parallel.Task, 0, len(methods))
	for _, m := range methods {
		dir := MethodDir(env.Dirs.Quantized, m)
		tasks = append(tasks, parallel.Task{
			Name: m.Name,
			Fn: func(ctx context.Context) (string, error) {
				res, err := runMethod(ctx, env, m, dir)
				return res.Output, err
			},
		})
	}

	fmt.Printf("\n🔄 Running %d quantization methods (concurrency %d)...\n", len(tasks), env.Config.Parallel.Concurrency)
	results := parallel.Run(ctx, tasks, env.Config.Parallel.Concurrency)
	for i, r := range results {
		record(history.Entry{
			Command:  "quantize-all",
			Method:   r.Name,
			Status:   history.Status(r.Err),
			Output:   MethodDir(env.Dirs.Quantized, methods[i]),
			Duration: r.Elapsed.Seconds(),
			Details:  details(backend.Result{}, r.Err),
		})
	}

	n := parallel.Succeeded(results)
	fmt.Println()
	ui.Done("Completed %d/%d quantization methods!", n, len(tasks))
	return n
}

// runMethod executes one method into out and writes its model info.
func runMethod(ctx context.Context, env Env, m catalog.Method, out string) (backend.Result, error) {
	hookEnv := hooks.Env{Method: m.Name, Output: out}
	if err := hooks.Run(ctx, env.Config.Hooks, hooks.PreQuantize, hookEnv); err != nil {
		ui.Fail("%s aborted: %v", m.Label, err)
		return backend.Result{}, err
	}

	q, err := backend.For(m, env.Tools)
	if err != nil {
		return backend.Result{}, err
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return backend.Result{}, err
	}

	ui.Step("🔄", "Running %s (%s)...", m.Label, m.Name)
	log.Debug().Str("method", m.Name).Str("backend", m.Backend).Str("output", out).Msg("quantize")
	res, err := q.Quantize(ctx, backend.Job{Method: m.Target(), Source: env.Dirs.Source, Output: out})
	if err != nil {
		ui.Fail("%s failed: %v", m.Label, err)
		return res, fmt.Errorf("%s: %w", m.Name, err)
	}

	original := res.OriginalBytes
	if original == 0 {
		original, _ = safetensors.ModelBytes(env.Dirs.Source)
	}
	if original > 0 {
		ui.Step("📊", "Original model size: %s", ui.GB(original))
	}

	size := res.QuantizedBytes
	if size == 0 {
		if size, err = layout.DirSize(out); err != nil {
			return res, err
		}
	}
	ui.Step("📉", "Quantized model size: %s", ui.GB(size))

	if err := modelinfo.Write(out, modelinfo.ForMethod(m.Name, float64(size)/(1<<30))); err != nil {
		return res, fmt.Errorf("writing model info: %w", err)
	}

	if err := hooks.Run(ctx, env.Config.Hooks, hooks.PostQuantize, hookEnv); err != nil {
		fmt.Printf("%s %v\n", ui.WarnIcon(), err)
	}

	ui.Done("%s quantization completed!", strings.ToUpper(m.Name))
	return res, nil
}

// publish copies the quantized directory to the assets directory.
func publish(ctx context.Context, env Env, m catalog.Method) error {
	ui.Step("📋", "Copying quantized model to assets...")
	if err := layout.CopyTree(env.Dirs.Quantized, env.Dirs.Assets); err != nil {
		ui.Fail("Failed to copy to assets: %v", err)
		return fmt.Errorf("copying to assets: %w", err)
	}
	ui.Done("Model copied to %s", env.Dirs.Assets)

	err := hooks.Run(ctx, env.Config.Hooks, hooks.PostCopy, hooks.Env{Method: m.Name, Output: env.Dirs.Assets})
	if err != nil {
		fmt.Printf("%s %v\n", ui.WarnIcon(), err)
	}
	return nil
}

func details(res backend.Result, err error) string {
	if err != nil {
		msg := err.Error()
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		return msg
	}
	if res.QuantizedBytes > 0 {
		return ui.GB(res.QuantizedBytes)
	}
	return ""
}

func record(e history.Entry) {
	if err := history.Append(e); err != nil {
		log.Warn().Err(err).Msg("recording history")
	}
}
