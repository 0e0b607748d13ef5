package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds pocketllm configuration.
type Config struct {
	Paths    PathsConfig    `toml:"paths" yaml:"paths" json:"paths"`
	Python   PythonConfig   `toml:"python" yaml:"python" json:"python"`
	Mobile   Caps           `toml:"mobile" yaml:"mobile" json:"mobile"`
	Quick    Caps           `toml:"quick" yaml:"quick" json:"quick"`
	Parallel ParallelConfig `toml:"parallel" yaml:"parallel" json:"parallel"`
	Hooks    HooksConfig    `toml:"hooks" yaml:"hooks" json:"hooks"`
	Log      LogConfig      `toml:"log" yaml:"log" json:"log"`
}

// PathsConfig locates the model directories. Relative paths resolve against Root.
type PathsConfig struct {
	Root      string `toml:"root" yaml:"root" json:"root"`
	Source    string `toml:"source" yaml:"source" json:"source"`
	Quantized string `toml:"quantized" yaml:"quantized" json:"quantized"`
	Assets    string `toml:"assets" yaml:"assets" json:"assets"`
}

// PythonConfig names the external ML tooling.
type PythonConfig struct {
	Interpreter string `toml:"interpreter" yaml:"interpreter" json:"interpreter"`
	OptimumCLI  string `toml:"optimum_cli" yaml:"optimum_cli" json:"optimum_cli"`
}

// Caps bounds the hyperparameters of a reduced mobile configuration.
type Caps struct {
	HiddenSize            int `toml:"hidden_size" yaml:"hidden_size" json:"hidden_size"`
	NumAttentionHeads     int `toml:"num_attention_heads" yaml:"num_attention_heads" json:"num_attention_heads"`
	NumHiddenLayers       int `toml:"num_hidden_layers" yaml:"num_hidden_layers" json:"num_hidden_layers"`
	IntermediateSize      int `toml:"intermediate_size" yaml:"intermediate_size" json:"intermediate_size"`
	MaxPositionEmbeddings int `toml:"max_position_embeddings" yaml:"max_position_embeddings" json:"max_position_embeddings"`
}

// ParallelConfig controls the "all methods" run.
type ParallelConfig struct {
	Concurrency int `toml:"concurrency" yaml:"concurrency" json:"concurrency"`
}

// HooksConfig defines lifecycle hook scripts.
type HooksConfig struct {
	PreQuantize  string `toml:"pre_quantize" yaml:"pre_quantize" json:"pre_quantize"`
	PostQuantize string `toml:"post_quantize" yaml:"post_quantize" json:"post_quantize"`
	PostCopy     string `toml:"post_copy" yaml:"post_copy" json:"post_copy"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" json:"level"` // debug, info, warn, error
}

// MobileCaps are the limits applied by the custom mobile method.
var MobileCaps = Caps{
	HiddenSize:            1024,
	NumAttentionHeads:     8,
	NumHiddenLayers:       12,
	IntermediateSize:      4096,
	MaxPositionEmbeddings: 2048,
}

// QuickCaps are the tighter limits applied by the quick command.
var QuickCaps = Caps{
	HiddenSize:            1024,
	NumAttentionHeads:     6,
	NumHiddenLayers:       8,
	IntermediateSize:      2048,
	MaxPositionEmbeddings: 2048,
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Root:      ".",
			Source:    filepath.Join("models", "gemma3n"),
			Quantized: filepath.Join("models", "gemma3n_quantized"),
			Assets:    filepath.Join("assets", "models", "gemma3n"),
		},
		Python:   PythonConfig{Interpreter: "python3", OptimumCLI: "optimum-cli"},
		Mobile:   MobileCaps,
		Quick:    QuickCaps,
		Parallel: ParallelConfig{Concurrency: 1},
		Log:      LogConfig{Level: "warn"},
	}
}

// ConfigDir returns the pocketllm config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pocketllm")
}

// Path returns the location of the user config file.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the user config file, falling back to defaults if it doesn't exist.
func Load() *Config {
	cfg := Default()
	data, err := os.ReadFile(Path())
	if err != nil {
		return cfg
	}
	_ = toml.Unmarshal(data, cfg)
	cfg.fill()
	return cfg
}

// LoadFile reads an explicit config file. The format follows the extension:
// .toml, .yaml/.yml or .json.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(b, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	case ".json":
		err = json.Unmarshal(b, cfg)
	default:
		return nil, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.fill()
	return cfg, nil
}

// fill restores defaults for values a partial file zeroed out.
func (c *Config) fill() {
	d := Default()
	if c.Paths.Root == "" {
		c.Paths.Root = d.Paths.Root
	}
	if c.Paths.Source == "" {
		c.Paths.Source = d.Paths.Source
	}
	if c.Paths.Quantized == "" {
		c.Paths.Quantized = d.Paths.Quantized
	}
	if c.Paths.Assets == "" {
		c.Paths.Assets = d.Paths.Assets
	}
	if c.Python.Interpreter == "" {
		c.Python.Interpreter = d.Python.Interpreter
	}
	if c.Python.OptimumCLI == "" {
		c.Python.OptimumCLI = d.Python.OptimumCLI
	}
	c.Mobile = c.Mobile.orDefault(MobileCaps)
	c.Quick = c.Quick.orDefault(QuickCaps)
	if c.Parallel.Concurrency < 1 {
		c.Parallel.Concurrency = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

func (c Caps) orDefault(d Caps) Caps {
	if c.HiddenSize <= 0 {
		c.HiddenSize = d.HiddenSize
	}
	if c.NumAttentionHeads <= 0 {
		c.NumAttentionHeads = d.NumAttentionHeads
	}
	if c.NumHiddenLayers <= 0 {
		c.NumHiddenLayers = d.NumHiddenLayers
	}
	if c.IntermediateSize <= 0 {
		c.IntermediateSize = d.IntermediateSize
	}
	if c.MaxPositionEmbeddings <= 0 {
		c.MaxPositionEmbeddings = d.MaxPositionEmbeddings
	}
	return c
}

// Save writes the config to the user config file.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
