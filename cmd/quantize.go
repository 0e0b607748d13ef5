package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/msalah0e/pocketllm/internal/catalog"
	"github.com/msalah0e/pocketllm/internal/deps"
	"github.com/msalah0e/pocketllm/internal/layout"
	"github.com/msalah0e/pocketllm/internal/pipeline"
	"github.com/msalah0e/pocketllm/internal/ui"
)

func quantizeCmd() *cobra.Command {
	var methodName string

	cmd := &cobra.Command{
		Use:     "quantize",
		Aliases: []string{"q"},
		Short:   "Quantize the source model and copy it to the app assets",
		Long: `Quantize the model in the source directory with one of the catalogued
methods. Without --method a numbered menu is read from stdin; an empty or
unknown answer selects method 1.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("Gemma 3n model quantization")

			c := loadCatalog()
			env := loadEnv()
			ctx := cmd.Context()

			if err := layout.Setup(env.Dirs); err != nil {
				ui.Fail("%v", err)
				os.Exit(1)
			}
			if err := layout.CheckSource(env.Dirs); err != nil {
				ui.Fail("Source model not found at %s", env.Dirs.Source)
				fmt.Println("Please ensure your Gemma 3n model is in the source directory (see `pocketllm config show`)")
				os.Exit(1)
			}

			ui.Step("📁", "Source model: %s", env.Dirs.Source)
			ui.Step("📁", "Output directory: %s", env.Dirs.Quantized)

			var (
				selected catalog.Method
				all      bool
			)
			if methodName != "" {
				m, err := c.Get(methodName)
				if err != nil {
					ui.Fail("%v", err)
					os.Exit(1)
				}
				selected = m
			} else {
				printMenu(c)
				fmt.Print(menuPrompt(c))
				in := cmd.InOrStdin()
				choice := readChoice(in)
				if !isTerminal(in) {
					// piped answers are not echoed by a tty
					fmt.Println(choice)
				}
				selected, all = resolveChoice(c, choice)
			}

			if all {
				// missing tools fail their own method only
				reportDependencies(ctx, c, c.Menu()...)
				if pipeline.QuantizeAll(ctx, env) == 0 {
					os.Exit(1)
				}
				return
			}

			if !reportDependencies(ctx, c, selected) {
				os.Exit(1)
			}
			if err := pipeline.Quantize(ctx, env, selected); err != nil {
				fmt.Println()
				ui.Fail("Quantization failed.")
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&methodName, "method", "m", "", "Method name, skipping the menu (see `pocketllm methods`)")
	_ = cmd.RegisterFlagCompletionFunc("method", methodCompletionFunc)
	return cmd
}

// allKey is the menu number that runs every method.
func allKey(c *catalog.Catalog) string {
	return strconv.Itoa(len(c.Menu()) + 1)
}

func printMenu(c *catalog.Catalog) {
	fmt.Println("\n📋 Available quantization methods:")
	for _, m := range c.Menu() {
		fmt.Printf("%s. %s (%s)\n", m.Key, m.Label, m.Summary)
	}
	fmt.Printf("%s. All methods (for comparison)\n", allKey(c))
}

func menuPrompt(c *catalog.Catalog) string {
	menu := c.Menu()
	first := "1"
	if len(menu) > 0 {
		first = menu[0].Key
	}
	return fmt.Sprintf("\nChoose method (%s-%s, default=%s): ", first, allKey(c), first)
}

// readChoice reads one line; EOF counts as an empty answer.
func readChoice(r io.Reader) string {
	line, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(line)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveChoice maps a menu answer to a method. Anything unrecognised
// selects the first menu entry.
func resolveChoice(c *catalog.Catalog, choice string) (catalog.Method, bool) {
	if choice == allKey(c) {
		return catalog.Method{}, true
	}
	if m, ok := c.ByKey(choice); ok {
		return m, false
	}
	menu := c.Menu()
	if len(menu) == 0 {
		return catalog.Method{}, false
	}
	return menu[0], false
}

// reportDependencies checks what the given methods need and prints one line
// per dependency. It reports whether everything was found.
func reportDependencies(ctx context.Context, c *catalog.Catalog, methods ...catalog.Method) bool {
	required := c.Requirements(methods...)
	if len(required) == 0 {
		return true
	}

	statuses := checker().Check(ctx, required)
	for _, s := range statuses {
		if s.Found {
			fmt.Printf("%s %s found\n", ui.StatusIcon(true), s.Dep.Title())
		} else {
			fmt.Printf("%s %s missing\n", ui.StatusIcon(false), s.Dep.Title())
		}
	}

	missing := deps.Missing(statuses)
	if len(missing) == 0 {
		return true
	}
	var names []string
	for _, d := range missing {
		names = append(names, d.Name)
	}
	fmt.Println()
	ui.Fail("Missing packages: %s", strings.Join(names, ", "))
	fmt.Printf("Install with: %s\n", deps.InstallHint(missing))
	fmt.Println(ui.Subtle.Sprint("Or run `pocketllm doctor --fix`"))
	return false
}
