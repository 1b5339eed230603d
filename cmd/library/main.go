package main

import (
	"os"

	"github.com/niravrohra/library-circulation/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
