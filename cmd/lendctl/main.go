// Command lendctl is the operator CLI for the sBTC lending pool backend.
package main

import (
	"fmt"
	"os"

	"github.com/giantgun/BareBtc/internal/config"
	"github.com/giantgun/BareBtc/internal/version"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "lendctl",
	Short:         "Operate the sBTC lending pool backend",
	Version:       version.Version + " (" + version.Commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		cfg = config.Load()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd, convertCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
