package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/pocketllm/internal/config"
)

// ErrSourceMissing is returned when the source model directory does not exist.
var ErrSourceMissing = errors.New("source model not found")

// Dirs are the three model locations, resolved to absolute paths.
type Dirs struct {
	Source    string
	Quantized string
	Assets    string
}

// Resolve turns configured paths into absolute ones. Relative paths are
// joined to the configured root.
func Resolve(p config.PathsConfig) (Dirs, error) {
	root, err := expandHome(p.Root)
	if err != nil {
		return Dirs{}, err
	}
	if root == "" {
		root = "."
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return Dirs{}, fmt.Errorf("abs path: %w", err)
	}

	resolve := func(path string) (string, error) {
		path, err := expandHome(path)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		return filepath.Clean(path), nil
	}

	var d Dirs
	if d.Source, err = resolve(p.Source); err != nil {
		return Dirs{}, err
	}
	if d.Quantized, err = resolve(p.Quantized); err != nil {
		return Dirs{}, err
	}
	if d.Assets, err = resolve(p.Assets); err != nil {
		return Dirs{}, err
	}
	return d, nil
}

// Setup creates the output directories. The source directory is never created.
func Setup(d Dirs) error {
	for _, dir := range []string{d.Quantized, d.Assets} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// CheckSource returns ErrSourceMissing if the source directory is absent.
func CheckSource(d Dirs) error {
	info, err := os.Stat(d.Source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w at %s", ErrSourceMissing, d.Source)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, d.Source)
	}
	return nil
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
