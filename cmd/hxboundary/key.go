package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/pthm/hxboundary"
	"github.com/spf13/cobra"
)

func keyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key <type-name> <sequence> [key]",
		Short: "Compute the stable key of a declaration",
		Long: `Print the stable key a boundary gets for a component type name, its
declaration sequence and an optional list key.

Example:
  hxboundary key Widgets.Clock 3 row-5`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sequence, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("sequence must be an integer: %w", err)
			}
			var key any
			if len(args) == 3 {
				key = args[2]
			}
			k, err := hxboundary.StableKey(hxboundary.ComponentType{Name: args[0]}, sequence, key)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), k)
			return err
		},
	}
}

func keygenCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a descriptor protection key",
		Long: `Print a random base64 key suitable for descriptors.key in the config
file or the HXBOUNDARY_KEY environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 32 {
				return fmt.Errorf("key size must be at least 32 bytes")
			}
			key := make([]byte, size)
			if _, err := rand.Read(key); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(key))
			return err
		},
	}

	cmd.Flags().IntVarP(&size, "size", "n", 32, "Key size in bytes")
	return cmd
}
