package main

import (
	"os"

	"github.com/luvatrix/planops/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
