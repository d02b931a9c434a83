package main

import (
	"os"

	"github.com/mindhaven/therapy-memory/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
