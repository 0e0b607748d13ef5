// Package accel reports the accelerators a quantization run could use.
package accel

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// Info describes one detected accelerator.
type Info struct {
	Vendor  string // NVIDIA, AMD, Apple
	Model   string
	Memory  string
	Driver  string
	Compute string // CUDA 8.9, ROCm, Metal
}

// Detect returns accelerator information for the current system.
func Detect(ctx context.Context) []Info {
	switch runtime.GOOS {
	case "darwin":
		return detectMacOS(ctx)
	case "linux", "windows":
		if gpus := detectNvidia(ctx); len(gpus) > 0 {
			return gpus
		}
		return detectROCm(ctx)
	}
	return nil
}

func detectMacOS(ctx context.Context) []Info {
	out, err := exec.CommandContext(ctx, "system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return nil
	}
	return parseSystemProfiler(string(out), runtime.GOARCH)
}

func parseSystemProfiler(output, arch string) []Info {
	model := extractField(output, `Chipset Model:\s*(.+)`)
	if model == "" {
		return nil
	}
	info := Info{
		Model:   model,
		Memory:  extractField(output, `VRAM.*?:\s*(.+)`),
		Compute: extractField(output, `Metal.*?:\s*(.+)`),
	}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "apple") || arch == "arm64":
		info.Vendor = "Apple"
		if info.Memory == "" {
			info.Memory = "unified"
		}
	case strings.Contains(lower, "amd") || strings.Contains(lower, "radeon"):
		info.Vendor = "AMD"
	case strings.Contains(lower, "intel"):
		info.Vendor = "Intel"
	}
	if info.Compute == "" && info.Vendor == "Apple" {
		info.Compute = "Metal"
	}
	return []Info{info}
}

func detectNvidia(ctx context.Context) []Info {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total,driver_version,compute_cap",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		return nil
	}
	return parseNvidiaSMI(string(out))
}

// parseNvidiaSMI reads "name, memory, driver, compute_cap" CSV rows.
func parseNvidiaSMI(output string) []Info {
	var gpus []Info
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		info := Info{
			Vendor:  "NVIDIA",
			Model:   parts[0],
			Memory:  parts[1] + " MiB",
			Driver:  parts[2],
			Compute: "CUDA",
		}
		if len(parts) >= 4 && parts[3] != "" {
			info.Compute = "CUDA " + parts[3]
		}
		gpus = append(gpus, info)
	}
	return gpus
}

func detectROCm(ctx context.Context) []Info {
	out, err := exec.CommandContext(ctx, "rocm-smi", "--showproductname").Output()
	if err != nil {
		return nil
	}
	model := extractField(string(out), `Card series:\s*(.+)`)
	if model == "" {
		model = extractField(string(out), `Card.*?:\s*(.+)`)
	}
	return []Info{{Vendor: "AMD", Model: model, Compute: "ROCm"}}
}

func extractField(text, pattern string) string {
	re := regexp.MustCompile(pattern)
	matches := re.FindStringSubmatch(text)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// Recommend names the quantization method that fits the detected hardware.
// bitsandbytes needs CUDA, so NVIDIA gets int8. Other GPUs and arm64 hosts
// get ONNX; a plain CPU host gets the custom mobile config.
func Recommend(gpus []Info) string {
	for _, g := range gpus {
		if g.Vendor == "NVIDIA" {
			return "int8"
		}
	}
	if runtime.GOARCH == "arm64" || len(gpus) > 0 {
		return "onnx_int8"
	}
	return "custom_mobile"
}
