package cmd

import (
	"context"
	"io/fs"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pocketllm/internal/catalog"
	"github.com/msalah0e/pocketllm/internal/config"
	"github.com/msalah0e/pocketllm/internal/deps"
	"github.com/msalah0e/pocketllm/internal/logging"
	"github.com/msalah0e/pocketllm/internal/pipeline"
	"github.com/msalah0e/pocketllm/internal/ui"
)

var version = "0.3.0"

var (
	cat       *catalog.Catalog
	catalogFS fs.FS
	cfg       *config.Config

	configFile string
	rootDir    string
	logLevel   string
)

// SetCatalogFS sets the filesystem holding the methods/*.toml catalog.
func SetCatalogFS(fsys fs.FS) {
	catalogFS = fsys
}

func loadCatalog() *catalog.Catalog {
	if cat != nil {
		return cat
	}
	c, err := catalog.LoadFromFS(catalogFS, "methods")
	if err != nil {
		ui.Bad.Printf("pocketllm: failed to load method catalog: %v\n", err)
		os.Exit(1)
	}
	cat = c
	return cat
}

// loadConfig returns the effective configuration: --config or the user
// file, then flag overrides.
func loadConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	c := config.Load()
	if configFile != "" {
		var err error
		if c, err = config.LoadFile(configFile); err != nil {
			ui.Bad.Printf("pocketllm: %v\n", err)
			os.Exit(1)
		}
	}
	if rootDir != "" {
		c.Paths.Root = rootDir
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	cfg = c
	return cfg
}

func loadEnv() pipeline.Env {
	env, err := pipeline.NewEnv(loadConfig(), loadCatalog())
	if err != nil {
		ui.Bad.Printf("pocketllm: %v\n", err)
		os.Exit(1)
	}
	return env
}

func checker() deps.Checker {
	c := loadConfig()
	return deps.Checker{
		Python:   c.Python.Interpreter,
		Binaries: map[string]string{"optimum-cli": c.Python.OptimumCLI},
	}
}

var rootCmd = &cobra.Command{
	Use:   "pocketllm",
	Short: "pocketllm — shrink Gemma 3n checkpoints for mobile",
	Long: ui.Brand.Sprint(ui.Phone+" pocketllm") + " — quantize and package LLM checkpoints for on-device apps\n" +
		ui.Subtle.Sprint("INT8, INT4, FP16, ONNX and mobile scaffolds from one command"),
	Version: version + " " + ui.Phone,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(loadConfig().Log.Level)
	},
}

func init() {
	rootCmd.SetVersionTemplate("pocketllm {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (.toml, .yaml or .json)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root the model paths are relative to")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error, off)")

	rootCmd.AddCommand(
		quantizeCmd(),
		quickCmd(),
		doctorCmd(),
		methodsCmd(),
		infoCmd(),
		historyCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command. Ctrl-C cancels running tools.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
