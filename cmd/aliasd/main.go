package main

import (
	"fmt"
	"os"

	"github.com/marmos91/aliasd/cmd/aliasd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
