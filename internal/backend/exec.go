package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Cmd is an external command invocation.
type Cmd struct {
	Path string
	Args []string
	Env  map[string]string // added to the inherited environment
	Dir  string
}

// tailLines is how much captured output an error carries.
const tailLines = 15

// Run executes c, capturing combined output. On failure the error carries
// the tail of the output.
func Run(ctx context.Context, c Cmd) (string, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	line := strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
	log.Debug().Str("cmd", line).Msg("exec")

	start := time.Now()
	out, err := cmd.CombinedOutput()
	output := string(out)
	log.Debug().Str("cmd", c.Path).Dur("elapsed", time.Since(start)).Err(err).Msg("exec done")
	if output != "" {
		log.Debug().Str("cmd", c.Path).Msg(output)
	}

	if err != nil {
		if t := tail(output, tailLines); t != "" {
			return output, fmt.Errorf("%s: %w\n%s", c.Path, err, t)
		}
		return output, fmt.Errorf("%s: %w", c.Path, err)
	}
	return output, nil
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
