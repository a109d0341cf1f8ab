package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func Main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hlreel",
		Short:        "Turn a video into a vertical, subtitled highlight reel",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(), newRunCmd())
	return root
}
