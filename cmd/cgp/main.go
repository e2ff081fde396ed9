// Command cgp runs the comparative genomics pipeline: cross-species
// conservation scoring with clinical variant mapping.
package main

import (
	"os"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
