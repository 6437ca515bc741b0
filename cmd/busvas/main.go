package main

import (
	"os"

	"github.com/busvas-search/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
