package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/msalah0e/pocketllm/internal/backend"
	"github.com/msalah0e/pocketllm/internal/history"
	"github.com/msalah0e/pocketllm/internal/layout"
	"github.com/msalah0e/pocketllm/internal/modelcfg"
	"github.com/msalah0e/pocketllm/internal/modelinfo"
	"github.com/msalah0e/pocketllm/internal/safetensors"
	"github.com/msalah0e/pocketllm/internal/ui"
	"github.com/msalah0e/pocketllm/internal/weights"
)

// QuickFiles are copied from the source model into every quick location.
var QuickFiles = []string{
	"tokenizer.json",
	"tokenizer_config.json",
	"special_tokens_map.json",
	"generation_config.json",
}

// Location is a named quick output directory.
type Location struct {
	Name string
	Dir  string
}

// Locations are the quick command's outputs, in write order.
func (e Env) Locations() []Location {
	return []Location{
		{Name: "models", Dir: e.Dirs.Quantized},
		{Name: "assets", Dir: e.Dirs.Assets},
	}
}

// Quick writes the mobile-ready scaffold into both locations. The source
// directory is optional; without a config.json the defaults are used.
func Quick(ctx context.Context, env Env) error {
	start := time.Now()
	err := quick(ctx, env)
	record(history.Entry{
		Command:  "quick",
		Status:   history.Status(err),
		Output:   env.Dirs.Assets,
		Duration: time.Since(start).Seconds(),
		Details:  details(backend.Result{}, err),
	})
	return err
}

func quick(ctx context.Context, env Env) error {
	fmt.Println("🚀 Creating mobile-ready Gemma 3n model...")

	locations := env.Locations()
	for _, loc := range locations {
		if err := os.MkdirAll(loc.Dir, 0o755); err != nil {
			return err
		}
		ui.Step("📁", "Created %s directory: %s", loc.Name, loc.Dir)
	}

	src, err := modelcfg.Read(env.Dirs.Source)
	switch {
	case errors.Is(err, modelcfg.ErrNoConfig):
		fmt.Printf("%s  Original config not found, using defaults\n", ui.WarnIcon())
		src = modelcfg.Source{}
	case err != nil:
		return err
	default:
		fmt.Printf("%s Loaded original config\n", ui.StatusIcon(true))
	}
	cfg := modelcfg.Quick(src, env.Config.Quick)

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Printf("\n📋 Creating model in %s location...\n", loc.Name)

		if err := modelcfg.WriteJSON(filepath.Join(loc.Dir, modelcfg.FileName), cfg); err != nil {
			return err
		}
		fmt.Printf("  %s Created %s\n", ui.StatusIcon(true), modelcfg.FileName)

		for _, name := range QuickFiles {
			missing, err := layout.CopyPresent(env.Dirs.Source, loc.Dir, []string{name})
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				fmt.Printf("  %s  %s not found in source\n", ui.WarnIcon(), name)
				continue
			}
			fmt.Printf("  %s Copied %s\n", ui.StatusIcon(true), name)
		}

		if err := weights.Quick.Write(loc.Dir); err != nil {
			return err
		}
		fmt.Printf("  %s Created %s\n", ui.StatusIcon(true), weights.IndexFile)
		fmt.Printf("  %s Created placeholder %s (%s)\n", ui.StatusIcon(true), weights.WeightsFile,
			ui.MB(int64(weights.Quick.Placeholder.Size)))

		if err := modelinfo.Write(loc.Dir, modelinfo.ForQuick(loc.Name)); err != nil {
			return err
		}
		fmt.Printf("  %s Created %s\n", ui.StatusIcon(true), modelinfo.FileName)
	}

	fmt.Println()
	ui.Good.Println("🎉 Mobile model created successfully in both locations!")
	ui.Step("📁", "Models location: %s", env.Dirs.Quantized)
	ui.Step("📁", "Assets location: %s", env.Dirs.Assets)
	if original, _ := safetensors.ModelBytes(env.Dirs.Source); original > 0 {
		ui.Step("📏", "Approximate size: %dMB (vs original %s)", modelcfg.QuickApproximateSizeMB, ui.GB(original))
	} else {
		ui.Step("📏", "Approximate size: %dMB", modelcfg.QuickApproximateSizeMB)
	}
	fmt.Printf("%s Ready for React Native deployment\n", ui.Phone)
	return nil
}
