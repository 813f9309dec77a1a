package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "citadel",
	Short: "Citadel - password policy governance for directory stores",
	Long: `Citadel manages password policies stored in a directory-backed policy
store. It validates policy attribute bounds before any write, answers fast
policy-name membership checks from a process-wide cache, and keeps that
cache consistent with the mutations it performs.

It provides an HTTP admin API, a direct CLI for policy administration, a
bulk deletion loader, and a durable audit trail of every mutation.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
