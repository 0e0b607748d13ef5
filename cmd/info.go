package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pocketllm/internal/layout"
	"github.com/msalah0e/pocketllm/internal/modelcfg"
	"github.com/msalah0e/pocketllm/internal/modelinfo"
	"github.com/msalah0e/pocketllm/internal/safetensors"
	"github.com/msalah0e/pocketllm/internal/ui"
	"github.com/msalah0e/pocketllm/internal/weights"
)

// infoKeys are the hyperparameters shown from config.json.
var infoKeys = []string{
	"model_type",
	"vocab_size",
	"hidden_size",
	"num_attention_heads",
	"num_hidden_layers",
	"intermediate_size",
	"max_position_embeddings",
	"torch_dtype",
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [dir]",
		Short: "Inspect a model directory (default: the assets directory)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := loadEnv().Dirs.Assets
			if len(args) == 1 {
				dir = args[0]
			}
			if st, err := os.Stat(dir); err != nil || !st.IsDir() {
				ui.Fail("%s is not a directory", dir)
				os.Exit(1)
			}

			ui.Banner(filepath.Base(dir))
			fmt.Printf("  %-22s %s\n", "Location:", dir)

			if info, err := modelinfo.Read(dir); err == nil {
				fmt.Printf("  %-22s %s\n", "Model:", ui.Brand.Sprint(info.ModelName))
				fmt.Printf("  %-22s %s\n", "Variant:", info.Variant)
				fmt.Printf("  %-22s %s\n", "Quantization:", info.QuantizationMethod)
				fmt.Printf("  %-22s %s\n", "Size:", info.Size())
				fmt.Printf("  %-22s %s\n", "Status:", info.Status)
				if info.Description != "" {
					fmt.Printf("  %-22s %s\n", "Description:", info.Description)
				}
				if info.InferenceNote != "" {
					fmt.Printf("  %-22s %s\n", "Note:", ui.Warn.Sprint(info.InferenceNote))
				}
			} else {
				fmt.Printf("  %s %s\n", ui.Subtle.Sprint("-"), ui.Subtle.Sprintf("no %s", modelinfo.FileName))
			}

			if src, err := modelcfg.Read(dir); err == nil {
				fmt.Println()
				fmt.Println("  " + ui.Info.Sprint("Configuration"))
				for _, key := range infoKeys {
					if v, ok := src.Value(key); ok {
						fmt.Printf("    %-28s %v\n", key, v)
					}
				}
			}

			fmt.Println()
			fmt.Println("  " + ui.Info.Sprint("Weights"))
			if marker, ok := placeholderMarker(filepath.Join(dir, weights.WeightsFile)); ok {
				fmt.Printf("    %s placeholder weights (%s), not usable for inference\n", ui.WarnIcon(), marker)
			}
			s, err := safetensors.Scan(dir)
			if err == nil {
				if len(s.Files) > 0 {
					fmt.Printf("    %-28s %d\n", "safetensors files", len(s.Files))
					fmt.Printf("    %-28s %d\n", "tensors", s.Tensors)
					fmt.Printf("    %-28s %s\n", "tensor data", ui.GB(s.Bytes))
					fmt.Printf("    %-28s %s\n", "dtypes", formatDTypes(s.DTypes))
				} else if len(s.Invalid) == 0 {
					fmt.Printf("    %s\n", ui.Subtle.Sprint("no safetensors files"))
				}
			}

			if total, err := layout.DirSize(dir); err == nil {
				fmt.Printf("\n  %-22s %s\n", "Disk usage:", ui.MB(total))
			}
		},
	}
}

// placeholderMarker reports which placeholder marker, if any, the weights file carries.
func placeholderMarker(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	// placeholders are at most a few MiB; anything larger is real data
	const limit = 8 << 20
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil || len(data) > limit {
		return "", false
	}
	for _, m := range weights.Markers() {
		if weights.IsPlaceholder(data, m) {
			return m, true
		}
	}
	return "", false
}

func formatDTypes(counts map[string]int) string {
	var parts []string
	for dt, n := range counts {
		parts = append(parts, fmt.Sprintf("%s×%d", dt, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
