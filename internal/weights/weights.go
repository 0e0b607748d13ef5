// Package weights writes stand-in weight files for mobile scaffolding builds.
// The bytes are a marker followed by zero padding and carry no tensor data.
package weights

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/msalah0e/pocketllm/internal/modelcfg"
)

const (
	// WeightsFile is the single weights file every placeholder index points at.
	WeightsFile = "model.safetensors"
	// IndexFile is the safetensors index written next to it.
	IndexFile = "model.safetensors.index.json"
)

// Placeholder describes a stand-in weights file.
type Placeholder struct {
	Marker string
	Size   int
}

// Layout pairs a placeholder with the index that advertises it.
type Layout struct {
	Placeholder Placeholder
	TotalSize   int64    // size declared in the index metadata
	Tensors     []string // tensor names mapped to WeightsFile, in order
}

// Custom is written by the custom mobile method.
var Custom = Layout{
	Placeholder: Placeholder{Marker: "PLACEHOLDER_WEIGHTS_FOR_MOBILE_TESTING", Size: 1024},
	TotalSize:   1024 * 1024,
	Tensors: []string{
		"model.embed_tokens.weight",
		"model.norm.weight",
		"lm_head.weight",
	},
}

// Quick is written by the quick command.
var Quick = Layout{
	Placeholder: Placeholder{Marker: "GEMMA3N_MOBILE_PLACEHOLDER_WEIGHTS", Size: 1024 * 1024},
	TotalSize:   50 * 1024 * 1024,
	Tensors: []string{
		"model.embed_tokens.weight",
		"model.layers.0.self_attn.q_proj.weight",
		"model.layers.0.self_attn.k_proj.weight",
		"model.layers.0.self_attn.v_proj.weight",
		"model.layers.0.self_attn.o_proj.weight",
		"model.norm.weight",
		"lm_head.weight",
	},
}

// Bytes returns the placeholder content.
func (p Placeholder) Bytes() ([]byte, error) {
	if len(p.Marker) > p.Size {
		return nil, fmt.Errorf("placeholder marker (%d bytes) exceeds size %d", len(p.Marker), p.Size)
	}
	buf := make([]byte, p.Size)
	copy(buf, p.Marker)
	return buf, nil
}

// IsPlaceholder reports whether data starts with marker and is zero-padded after it.
func IsPlaceholder(data []byte, marker string) bool {
	if !bytes.HasPrefix(data, []byte(marker)) {
		return false
	}
	for _, b := range data[len(marker):] {
		if b != 0 {
			return false
		}
	}
	return true
}

// Index is the safetensors index document.
type Index struct {
	Metadata  IndexMetadata                          `json:"metadata"`
	WeightMap *orderedmap.OrderedMap[string, string] `json:"weight_map"`
}

// IndexMetadata carries the declared total size.
type IndexMetadata struct {
	TotalSize int64 `json:"total_size"`
}

// NewIndex maps every tensor to WeightsFile.
func NewIndex(totalSize int64, tensors []string) Index {
	wm := orderedmap.New[string, string]()
	for _, name := range tensors {
		wm.Set(name, WeightsFile)
	}
	return Index{Metadata: IndexMetadata{TotalSize: totalSize}, WeightMap: wm}
}

// Write writes the placeholder weights file and its index into dir,
// replacing any previous files.
func (l Layout) Write(dir string) error {
	if err := WriteIndex(dir, l.TotalSize, l.Tensors); err != nil {
		return err
	}
	return WritePlaceholder(dir, l.Placeholder)
}

// WriteIndex writes model.safetensors.index.json.
func WriteIndex(dir string, totalSize int64, tensors []string) error {
	return modelcfg.WriteJSON(filepath.Join(dir, IndexFile), NewIndex(totalSize, tensors))
}

// WritePlaceholder writes model.safetensors.
func WritePlaceholder(dir string, p Placeholder) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, WeightsFile), data, 0o644)
}

// Markers lists every marker pocketllm writes.
func Markers() []string {
	return []string{Custom.Placeholder.Marker, Quick.Placeholder.Marker}
}
