package modelcfg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// ErrNoConfig is returned when a model directory has no config.json.
var ErrNoConfig = errors.New("config.json not found")

// FileName is the model configuration file inside a model directory.
const FileName = "config.json"

// Source is a parsed config.json. Numbers are kept as json.Number.
type Source map[string]any

// Read parses <dir>/config.json.
func Read(dir string) (Source, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoConfig, dir)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a config.json document.
func Parse(data []byte) (Source, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var s Source
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if s == nil {
		s = Source{}
	}
	return s, nil
}

// nested returns the text_config block multimodal checkpoints such as
// Gemma 3n keep their language-model hyperparameters in.
func (s Source) nested() Source {
	if tc, ok := s["text_config"].(map[string]any); ok {
		return Source(tc)
	}
	return nil
}

// Value looks a key up at the top level, then inside text_config.
func (s Source) Value(key string) (any, bool) {
	if v, ok := s[key]; ok && v != nil {
		return v, true
	}
	if n := s.nested(); n != nil {
		if v, ok := n[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Int returns an integer hyperparameter.
func (s Source) Int(key string) (int64, bool) {
	v, ok := s.Value(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
			return clampInt(f), true
		}
	case float64:
		if n == math.Trunc(n) {
			return clampInt(n), true
		}
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		// out-of-range strings come back saturated with ErrRange
		if i, err := strconv.ParseInt(n, 10, 64); err == nil || errors.Is(err, strconv.ErrRange) {
			return i, true
		}
	}
	return 0, false
}

// clampInt converts an integral float, saturating at the int64 bounds.
func clampInt(f float64) int64 {
	switch {
	case f >= float64(math.MaxInt64):
		return math.MaxInt64
	case f <= float64(math.MinInt64):
		return math.MinInt64
	}
	return int64(f)
}

// String returns a string field.
func (s Source) String(key string) (string, bool) {
	v, ok := s.Value(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Strings returns a string list field such as architectures.
func (s Source) Strings(key string) ([]string, bool) {
	v, ok := s.Value(key)
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		str, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, str)
	}
	return out, true
}
