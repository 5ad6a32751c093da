// Package cli implements the researchdeck command tree.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/ResearchDeck/ResearchDeck/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"  ____                               _     ____            _\n" +
		" |  _ \\ ___  ___  ___  __ _ _ __ ___| |__ |  _ \\  ___  ___| | __\n" +
		" | |_) / _ \\/ __|/ _ \\/ _` | '__/ __| '_ \\| | | |/ _ \\/ __| |/ /\n" +
		" |  _ <  __/\\__ \\  __/ (_| | | | (__| | | | |_| |  __/ (__|   <\n" +
		" |_| \\_\\___||___/\\___|\\__,_|_|  \\___|_| |_|____/ \\___|\\___|_|\\_\\\n"
)

var rootCmd = &cobra.Command{
	Use:   "researchdeck",
	Short: "ResearchDeck - Deep Research Client",
	Long:  color.CyanString(logo) + "\nA terminal client for the multi-agent deep-research pipeline.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("researchdeck %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
}
