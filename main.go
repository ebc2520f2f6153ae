package main

import (
	"os"

	"github.com/consorcio/backend/internal/cli"
)

// This is set at build time with -ldflags.
var version = "0.0.0"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
