package main

import (
	"os"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driving/cli"
)

// version is set via -ldflags at release build time.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
