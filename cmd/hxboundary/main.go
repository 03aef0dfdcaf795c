package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "hxboundary",
		Short: "Inspect and serve interactive boundary markers",
		Long: `hxboundary works with the markers a server writes into rendered pages
to hand interactive regions over to a client runtime.

  inspect   list the boundaries found in a rendered document
  key       compute the stable key of a declaration
  keygen    generate a descriptor protection key
  verify    unprotect session-hosted descriptors
  serve     run a demo server with the verification endpoint`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(
		inspectCmd(),
		keyCmd(),
		keygenCmd(),
		verifyCmd(&configPath),
		serveCmd(&configPath),
	)
	return rootCmd
}
