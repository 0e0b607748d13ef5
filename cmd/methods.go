package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pocketllm/internal/catalog"
	"github.com/msalah0e/pocketllm/internal/ui"
)

func methodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "methods",
		Aliases: []string{"ls"},
		Short:   "List quantization methods",
		Run: func(cmd *cobra.Command, args []string) {
			c := loadCatalog()
			ui.Banner("quantization methods")

			var rows [][]string
			for _, m := range c.All() {
				key := m.Key
				if key == "" {
					key = "-"
				}
				reqs := strings.Join(m.Requires, ", ")
				if reqs == "" {
					reqs = "none"
				}
				rows = append(rows, []string{key, m.Name, m.Backend, runsOn(m), m.Label, reqs})
			}
			ui.Table([]string{"#", "Name", "Backend", "Runs", "Description", "Requires"}, rows)
			fmt.Printf("\n  %s\n", ui.Subtle.Sprint("Methods without a number run via `pocketllm quantize --method NAME`"))
		},
	}
}

// runsOn tells native methods apart from those that shell out to Python tooling.
func runsOn(m catalog.Method) string {
	if m.Delegated() {
		return "external"
	}
	return "native"
}
