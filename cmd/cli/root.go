package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/usherbot/usher/internal/version"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "usher",
		Short: "Usher greeter robot agent server",
		Long: `Usher is an OpenAI-compatible agent server that drives a greeter robot.
It plans over conversation memory, invokes robot and local tools, and keeps
per-session state across requests.`,
		Version:       version.GetShortVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewToolsCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
