// Ohap-cli is a command-line client for OHAP central units.
//
// It provides mDNS discovery of central units on the local network, a live
// view of a unit's item tree, and direct actuator commands. Known units are
// remembered in a per-user configuration file between runs.
//
// Usage:
//
//	ohap-cli [command] [flags]
//
// See 'ohap-cli --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opimobi/ohap-go/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ohap-cli",
	Short: "OHAP Central Unit Client",
	Long: `A command-line client for OHAP central units.

Provides mDNS discovery, a live view of a central unit's item tree,
and direct actuator commands. Central units you have connected to are
remembered in the configuration file for later runs.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ohap-cli %s (commit: %s)\n", version.Version, version.Commit)
	},
}
