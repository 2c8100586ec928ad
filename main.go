package main

import (
	"os"

	"github.com/medpilot/medpilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
