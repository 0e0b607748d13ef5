package modelcfg

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/msalah0e/pocketllm/internal/config"
)

// Config is a generated configuration document. Keys keep insertion order.
type Config = orderedmap.OrderedMap[string, any]

// Defaults fill hyperparameters the source configuration does not declare.
type Defaults struct {
	ModelType             string
	Architectures         []string
	VocabSize             int64
	HiddenSize            int64
	NumAttentionHeads     int64
	NumHiddenLayers       int64
	IntermediateSize      int64
	MaxPositionEmbeddings int64
}

// GemmaDefaults are used when a Gemma checkpoint omits a field.
var GemmaDefaults = Defaults{
	ModelType:             "gemma",
	Architectures:         []string{"GemmaForCausalLM"},
	VocabSize:             256000,
	HiddenSize:            2048,
	NumAttentionHeads:     8,
	NumHiddenLayers:       18,
	IntermediateSize:      16384,
	MaxPositionEmbeddings: 8192,
}

const (
	// QuickNameOrPath names the quick-command model.
	QuickNameOrPath = "google/gemma-3n-mobile"
	// QuickTransformersVersion is the transformers release the quick config declares.
	QuickTransformersVersion = "4.38.0"
	// QuickApproximateSizeMB is the size the quick artifact advertises.
	QuickApproximateSizeMB = 50
)

// Mobile builds the custom-mobile configuration. name is the source model's
// name or path; the result is named "<name>-mobile".
func Mobile(src Source, caps config.Caps, name string) *Config {
	if n, ok := src.String("_name_or_path"); ok && n != "" {
		name = n
	}
	cfg := reduced(src, caps, GemmaDefaults)
	cfg.Set("torch_dtype", "float16")
	cfg.Set("use_cache", true)
	cfg.Set("_name_or_path", name+"-mobile")
	cfg.Set("mobile_optimized", true)
	cfg.Set("quantization", "custom_mobile")
	return cfg
}

// Quick builds the quick-command configuration.
func Quick(src Source, caps config.Caps) *Config {
	cfg := reduced(src, caps, GemmaDefaults)
	cfg.Set("torch_dtype", "float16")
	cfg.Set("transformers_version", QuickTransformersVersion)
	cfg.Set("_name_or_path", QuickNameOrPath)
	cfg.Set("use_cache", true)
	cfg.Set("mobile_optimized", true)
	cfg.Set("quantization", "mobile_ready")
	cfg.Set("approximate_size_mb", QuickApproximateSizeMB)
	return cfg
}

// reduced copies identity fields and caps the size hyperparameters.
func reduced(src Source, caps config.Caps, d Defaults) *Config {
	cfg := orderedmap.New[string, any]()

	modelType, ok := src.String("model_type")
	if !ok {
		modelType = d.ModelType
	}
	archs, ok := src.Strings("architectures")
	if !ok {
		archs = d.Architectures
	}
	cfg.Set("model_type", modelType)
	cfg.Set("architectures", archs)
	cfg.Set("vocab_size", intOr(src, "vocab_size", d.VocabSize))
	cfg.Set("hidden_size", capped(src, "hidden_size", d.HiddenSize, caps.HiddenSize))
	cfg.Set("num_attention_heads", capped(src, "num_attention_heads", d.NumAttentionHeads, caps.NumAttentionHeads))
	cfg.Set("num_hidden_layers", capped(src, "num_hidden_layers", d.NumHiddenLayers, caps.NumHiddenLayers))
	cfg.Set("intermediate_size", capped(src, "intermediate_size", d.IntermediateSize, caps.IntermediateSize))
	cfg.Set("max_position_embeddings", capped(src, "max_position_embeddings", d.MaxPositionEmbeddings, caps.MaxPositionEmbeddings))
	return cfg
}

func intOr(src Source, key string, def int64) int64 {
	if v, ok := src.Int(key); ok {
		return v
	}
	return def
}

func capped(src Source, key string, def int64, limit int) int64 {
	return min(intOr(src, key, def), int64(limit))
}

// Int reads an integer field back out of a generated configuration.
func Int(cfg *Config, key string) (int64, bool) {
	v, ok := cfg.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}
