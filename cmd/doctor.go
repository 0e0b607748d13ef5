package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pocketllm/internal/accel"
	"github.com/msalah0e/pocketllm/internal/deps"
	"github.com/msalah0e/pocketllm/internal/ui"
)

func doctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"dr"},
		Short:   "Health check — Python packages, runtimes and accelerators",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			c := loadCatalog()
			conf := loadConfig()

			ui.Banner("health check")

			statuses := checker().Check(ctx, c.Dependencies())
			printStatuses(statuses)

			missing := deps.Missing(statuses)
			if len(missing) > 0 && fix {
				fmt.Println()
				pkgs := deps.Packages(missing)
				ui.Step("📦", "Installing %d package(s)...", len(pkgs))
				out, err := deps.Install(ctx, conf.Python.Interpreter, pkgs)
				if err != nil {
					fmt.Println(ui.Subtle.Sprint(out))
					ui.Fail("Install failed: %v", err)
					os.Exit(1)
				}
				ui.Done("Installed %d package(s)", len(pkgs))
				statuses = checker().Check(ctx, c.Dependencies())
				missing = deps.Missing(statuses)
			}

			fmt.Println()
			checkRuntime(ctx, "Python", conf.Python.Interpreter, "--version")
			checkRuntime(ctx, "uv", "uv", "--version")
			checkRuntime(ctx, "pip", conf.Python.Interpreter, "-m", "pip", "--version")

			fmt.Println()
			gpus := accel.Detect(ctx)
			if len(gpus) == 0 {
				fmt.Printf("  %s Accelerator: none detected (CPU only)\n", ui.Subtle.Sprint("-"))
			}
			for _, g := range gpus {
				fmt.Printf("  %s %s %s", ui.StatusIcon(true), g.Vendor, g.Model)
				if g.Memory != "" {
					fmt.Printf(" · %s", g.Memory)
				}
				if g.Compute != "" {
					fmt.Printf(" · %s", g.Compute)
				}
				fmt.Println()
			}
			fmt.Printf("  Suggested method: %s\n", ui.Info.Sprint(accel.Recommend(gpus)))

			found := len(statuses) - len(missing)
			fmt.Printf("\n  %d/%d dependencies found", found, len(statuses))
			if len(missing) > 0 {
				fmt.Printf(" · install with: %s", deps.InstallHint(missing))
			}
			fmt.Println()
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "pip-install missing Python packages")
	return cmd
}

func printStatuses(statuses []deps.Status) {
	for _, s := range statuses {
		if !s.Found {
			fmt.Printf("  %s %s %s\n", ui.StatusIcon(false), s.Dep.Title(), ui.Subtle.Sprint("missing"))
			continue
		}
		ver := s.Version
		if ver == "" {
			ver = "?"
		}
		extra := ""
		if s.Path != "" {
			extra = " " + ui.Subtle.Sprint(s.Path)
		}
		fmt.Printf("  %s %s %s%s\n", ui.StatusIcon(true), s.Dep.Title(), ver, extra)
	}
}

func checkRuntime(ctx context.Context, name, bin string, args ...string) {
	if path, err := exec.LookPath(bin); err == nil {
		out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
		if err != nil {
			fmt.Printf("  %s %s: %s\n", ui.WarnIcon(), name, ui.Subtle.Sprint("not working"))
			return
		}
		fmt.Printf("  %s %s: %s\n", ui.StatusIcon(true), name, deps.ExtractVersion(string(out)))
	} else {
		fmt.Printf("  %s %s: not found\n", ui.Subtle.Sprint("-"), name)
	}
}
