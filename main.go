package main

import (
	"embed"
	"os"

	"github.com/msalah0e/pocketllm/cmd"
)

//go:embed methods/*.toml
var methodsFS embed.FS

func main() {
	cmd.SetCatalogFS(methodsFS)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
