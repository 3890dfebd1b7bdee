// cmd/minindk/main.go
package main

import (
	"os"

	"github.com/arc-language/minindk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
