package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/msalah0e/pocketllm/internal/config"
	"github.com/msalah0e/pocketllm/internal/layout"
	"github.com/msalah0e/pocketllm/internal/modelcfg"
	"github.com/msalah0e/pocketllm/internal/weights"
)

// Mobile writes a reduced configuration with placeholder weights.
type Mobile struct {
	Caps config.Caps
}

// Quantize needs only the source config.json; tokenizer files are copied
// when present.
func (m Mobile) Quantize(ctx context.Context, job Job) (Result, error) {
	src, err := modelcfg.Read(job.Source)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(job.Output, 0o755); err != nil {
		return Result{}, err
	}

	caps := m.Caps
	if caps == (config.Caps{}) {
		caps = config.MobileCaps
	}
	cfg := modelcfg.Mobile(src, caps, job.Source)
	if err := modelcfg.WriteJSON(filepath.Join(job.Output, modelcfg.FileName), cfg); err != nil {
		return Result{}, fmt.Errorf("writing mobile config: %w", err)
	}

	missing, err := layout.CopyPresent(job.Source, job.Output, TokenizerFiles)
	if err != nil {
		return Result{}, err
	}
	if len(missing) > 0 {
		log.Debug().Strs("files", missing).Msg("tokenizer files not in source")
	}

	if err := weights.Custom.Write(job.Output); err != nil {
		return Result{}, fmt.Errorf("writing placeholder weights: %w", err)
	}

	size, err := layout.DirSize(job.Output)
	if err != nil {
		return Result{}, err
	}
	return Result{QuantizedBytes: size}, nil
}
