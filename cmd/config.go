package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/pocketllm/internal/config"
	"github.com/msalah0e/pocketllm/internal/layout"
	"github.com/msalah0e/pocketllm/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the pocketllm configuration",
	}
	cmd.AddCommand(configShowCmd(), configInitCmd(), configPathCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Run: func(cmd *cobra.Command, args []string) {
			c := loadConfig()
			if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(c); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if dirs, err := layout.Resolve(c.Paths); err == nil {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintf(cmd.OutOrStdout(), "# source    = %s\n", dirs.Source)
				fmt.Fprintf(cmd.OutOrStdout(), "# quantized = %s\n", dirs.Quantized)
				fmt.Fprintf(cmd.OutOrStdout(), "# assets    = %s\n", dirs.Assets)
			}
		},
	}
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file if none exists",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.EnsureExists(); err != nil {
				ui.Bad.Printf("  Failed to write config: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Config at %s\n", ui.StatusIcon(true), config.Path())
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Path())
		},
	}
}
