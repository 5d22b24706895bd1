package main

import (
	"os"

	"github.com/uplift-stats/uplift/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
