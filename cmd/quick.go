package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pocketllm/internal/pipeline"
	"github.com/msalah0e/pocketllm/internal/ui"
)

func quickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quick",
		Short: "Write a mobile-ready scaffold with placeholder weights",
		Long: `Write a reduced configuration, tokenizer files and placeholder weights into
both the quantized and the assets directory. No Python tooling is needed and
the source directory is optional.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := pipeline.Quick(cmd.Context(), loadEnv()); err != nil {
				ui.Fail("Mobile model creation failed: %v", err)
				os.Exit(1)
			}
		},
	}
}
