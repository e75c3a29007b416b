package main

import (
	"os"

	"github.com/mural-labs/mural/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
