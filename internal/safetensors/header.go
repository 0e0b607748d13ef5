// Package safetensors inspects safetensors headers. Tensor data is never read.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidHeader is returned for files that are not safetensors files,
// including pocketllm's own placeholder weights.
var ErrInvalidHeader = errors.New("invalid safetensors header")

// maxHeaderSize bounds the JSON header length we are willing to read.
const maxHeaderSize = 100 << 20

// Tensor is one header entry.
type Tensor struct {
	Name        string   `json:"-"`
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Size is the tensor's byte length.
func (t Tensor) Size() int64 {
	return t.DataOffsets[1] - t.DataOffsets[0]
}

// Header is a parsed safetensors header.
type Header struct {
	Tensors  []Tensor
	Metadata map[string]string
}

// DataSize sums the byte ranges of every tensor.
func (h Header) DataSize() int64 {
	var total int64
	for _, t := range h.Tensors {
		total += t.Size()
	}
	return total
}

// DTypes counts tensors per dtype.
func (h Header) DTypes() map[string]int {
	out := make(map[string]int)
	for _, t := range h.Tensors {
		out[t.DType]++
	}
	return out
}

// ReadHeader parses the header of the safetensors file at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Header{}, err
	}
	return Decode(f, info.Size())
}

// Decode parses a safetensors header from r. fileSize bounds the declared
// header and tensor offsets.
func Decode(r io.Reader, fileSize int64) (Header, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if n == 0 || n > maxHeaderSize || int64(n) > fileSize-8 {
		return Header{}, fmt.Errorf("%w: header length %d", ErrInvalidHeader, n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf, &raw); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	dataSize := fileSize - 8 - int64(n)
	var h Header
	for name, msg := range raw {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &h.Metadata); err != nil {
				return Header{}, fmt.Errorf("%w: metadata: %v", ErrInvalidHeader, err)
			}
			continue
		}
		var t Tensor
		if err := json.Unmarshal(msg, &t); err != nil {
			return Header{}, fmt.Errorf("%w: tensor %s: %v", ErrInvalidHeader, name, err)
		}
		if t.DataOffsets[0] < 0 || t.DataOffsets[1] < t.DataOffsets[0] || t.DataOffsets[1] > dataSize {
			return Header{}, fmt.Errorf("%w: tensor %s offsets %v out of range", ErrInvalidHeader, name, t.DataOffsets)
		}
		t.Name = name
		h.Tensors = append(h.Tensors, t)
	}
	sort.Slice(h.Tensors, func(i, j int) bool {
		return h.Tensors[i].DataOffsets[0] < h.Tensors[j].DataOffsets[0]
	})
	return h, nil
}

// Summary describes the safetensors files of a model directory.
type Summary struct {
	Files   []string
	Tensors int
	Bytes   int64
	DTypes  map[string]int
	Invalid []string // files that failed to parse
}

// Scan reads every *.safetensors header in dir.
func Scan(dir string) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{DTypes: make(map[string]int)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".safetensors") {
			continue
		}
		h, err := ReadHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			s.Invalid = append(s.Invalid, e.Name())
			continue
		}
		s.Files = append(s.Files, e.Name())
		s.Tensors += len(h.Tensors)
		s.Bytes += h.DataSize()
		for dt, c := range h.DTypes() {
			s.DTypes[dt] += c
		}
	}
	return s, nil
}

// ModelBytes sums the tensor bytes declared by every valid safetensors file in dir.
func ModelBytes(dir string) (int64, error) {
	s, err := Scan(dir)
	if err != nil {
		return 0, err
	}
	return s.Bytes, nil
}
