package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pthm/hxboundary"
	"github.com/pthm/hxboundary/internal/config"
	"github.com/spf13/cobra"
)

func verifyCmd(configPath *string) *cobra.Command {
	var batch bool

	cmd := &cobra.Command{
		Use:   "verify <descriptor>...",
		Short: "Unprotect session-hosted descriptors",
		Long: `Check descriptors with the configured key and print the invocation
sealed inside each one. With --batch the descriptors are checked together
the way a session host does when a session starts: they must come from the
same page and carry distinct sequence numbers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			key, ok, err := cfg.DescriptorKey()
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("no descriptor key configured (descriptors.key, descriptors.key_file or " + config.EnvKey + ")")
			}
			protector, err := cfg.Protector(key)
			if err != nil {
				return err
			}
			return runVerify(cmd.OutOrStdout(), protector, args, batch)
		},
	}

	cmd.Flags().BoolVar(&batch, "batch", false, "Verify the descriptors as one page")
	return cmd
}

func runVerify(out io.Writer, protector hxboundary.Protector, descriptors []string, batch bool) error {
	var components []hxboundary.ServerComponent
	if batch {
		var err error
		components, err = hxboundary.VerifyBatch(protector, descriptors)
		if err != nil {
			return err
		}
	} else {
		for i, d := range descriptors {
			sc, err := protector.Unprotect(d)
			if err != nil {
				return fmt.Errorf("descriptor %d: %w", i, err)
			}
			components = append(components, sc)
		}
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tCOMPONENT\tPRERENDERED\tINVOCATION\tEXPIRES\tPARAMETERS")
	for _, sc := range components {
		params, err := sc.Parameters()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\t%v\n",
			sc.Sequence, sc.TypeName, sc.Prerendered, sc.InvocationID, sc.ExpiresAt.Format(time.RFC3339), params.Names())
	}
	return tw.Flush()
}
