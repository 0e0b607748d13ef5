package deps

import (
	"context"
	"fmt"
	"os/exec"
)

// Install pip-installs packages into the interpreter's environment. uv is
// preferred when it is on PATH.
func Install(ctx context.Context, python string, pkgs []string) (string, error) {
	if len(pkgs) == 0 {
		return "", nil
	}
	if python == "" {
		python = "python3"
	}

	var cmd *exec.Cmd
	if hasCommand("uv") {
		args := append([]string{"pip", "install", "--python", python}, pkgs...)
		cmd = exec.CommandContext(ctx, "uv", args...)
	} else if hasCommand(python) {
		args := append([]string{"-m", "pip", "install"}, pkgs...)
		cmd = exec.CommandContext(ctx, python, args...)
	} else {
		return "", fmt.Errorf("%s not found — install Python first", python)
	}

	out, err := cmd.CombinedOutput()
	return string(out), err
}

func hasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
