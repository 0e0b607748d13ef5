package hooks

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/msalah0e/pocketllm/internal/config"
)

// Lifecycle phases.
const (
	PreQuantize  = "pre_quantize"
	PostQuantize = "post_quantize"
	PostCopy     = "post_copy"
)

// Env describes the run a hook is attached to.
type Env struct {
	Method string
	Output string
}

// Run executes the hook script for the given phase, if configured.
func Run(ctx context.Context, h config.HooksConfig, phase string, env Env) error {
	script := Script(h, phase)
	if script == "" {
		return nil
	}
	log.Debug().Str("phase", phase).Str("method", env.Method).Msg("running hook")

	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Env = append(os.Environ(),
		"POCKETLLM_PHASE="+phase,
		"POCKETLLM_METHOD="+env.Method,
		"POCKETLLM_OUTPUT="+env.Output,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s hook: %w", phase, err)
	}
	return nil
}

// Script returns the configured snippet for phase.
func Script(h config.HooksConfig, phase string) string {
	switch phase {
	case PreQuantize:
		return h.PreQuantize
	case PostQuantize:
		return h.PostQuantize
	case PostCopy:
		return h.PostCopy
	default:
		return ""
	}
}
