// Package main is the entry point for the researchdeck CLI.
package main

import (
	"os"

	"github.com/ResearchDeck/ResearchDeck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
