// Package modelinfo reads and writes model_info.json, the record that ships
// next to every generated model.
package modelinfo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/msalah0e/pocketllm/internal/modelcfg"
)

// FileName is the record's file name.
const FileName = "model_info.json"

const (
	gemmaName       = "Google Gemma 3n"
	gemmaMobileName = "Google Gemma 3n Mobile"
)

// Info is the model info record. Quantize records carry SizeGB, quick
// records carry ApproximateSizeMB.
type Info struct {
	ModelName          string   `json:"model_name"`
	Variant            string   `json:"variant"`
	QuantizationMethod string   `json:"quantization_method"`
	SizeGB             *float64 `json:"size_gb,omitempty"`
	ApproximateSizeMB  *int     `json:"approximate_size_mb,omitempty"`
	MobileOptimized    bool     `json:"mobile_optimized"`
	Status             string   `json:"status"`
	Location           string   `json:"location,omitempty"`
	Description        string   `json:"description"`
	InferenceNote      string   `json:"inference_note,omitempty"`
}

// ForMethod is the record written after a quantization method succeeds.
// sizeGB is rounded to two decimals.
func ForMethod(method string, sizeGB float64) Info {
	size := math.Round(sizeGB*100) / 100
	return Info{
		ModelName:          gemmaName,
		Variant:            "quantized",
		QuantizationMethod: method,
		SizeGB:             &size,
		MobileOptimized:    true,
		Status:             "ready",
		Description:        fmt.Sprintf("Quantized Gemma 3n model using %s quantization", method),
	}
}

// ForQuick is the record written by the quick command at location.
func ForQuick(location string) Info {
	mb := modelcfg.QuickApproximateSizeMB
	return Info{
		ModelName:          gemmaMobileName,
		Variant:            "mobile_optimized",
		QuantizationMethod: "mobile_ready",
		ApproximateSizeMB:  &mb,
		MobileOptimized:    true,
		Status:             "ready",
		Location:           location,
		Description:        "Mobile-optimized Gemma 3n with reduced parameters for React Native deployment",
		InferenceNote:      "Uses placeholder weights - implement actual inference bridge for full functionality",
	}
}

// Size renders whichever size field is set.
func (i Info) Size() string {
	switch {
	case i.SizeGB != nil:
		return fmt.Sprintf("%.2f GB", *i.SizeGB)
	case i.ApproximateSizeMB != nil:
		return fmt.Sprintf("~%d MB", *i.ApproximateSizeMB)
	}
	return "unknown"
}

// Write writes the record into dir, replacing any previous one.
func Write(dir string, info Info) error {
	return modelcfg.WriteJSON(filepath.Join(dir, FileName), info)
}

// Read parses the record in dir.
func Read(dir string) (Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return info, nil
}
