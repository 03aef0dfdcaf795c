package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/pthm/hxboundary/client"
	"github.com/spf13/cobra"
)

type inspectedBoundary struct {
	Kind        string         `json:"kind"`
	Sequence    int            `json:"sequence"`
	Key         string         `json:"key"`
	Offset      int            `json:"offset"`
	Prerendered bool           `json:"prerendered"`
	Component   string         `json:"component,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

func inspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "List the boundaries in a rendered document",
		Long: `Read a rendered HTML document (from a file or stdin) and list every
boundary marker in declaration order. Locally-hosted boundaries also show
their component and decoded parameters.

Examples:
  hxboundary inspect page.html
  curl -s localhost:8080 | hxboundary inspect --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runInspect(in, cmd.OutOrStdout(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// allBoundaries lists server boundaries, then webassembly ones, without
// touching doc.
func allBoundaries(doc *client.Document) []*client.Descriptor {
	return slices.Concat(doc.Server, doc.WebAssembly)
}

func runInspect(in io.Reader, out io.Writer, asJSON bool) error {
	doc, err := client.Discover(in)
	if err != nil {
		return err
	}

	boundaries := make([]inspectedBoundary, 0, doc.Len())
	for _, d := range allBoundaries(doc) {
		b := inspectedBoundary{
			Kind:        d.Kind,
			Sequence:    d.Sequence,
			Key:         d.Key(),
			Offset:      d.Start.Offset,
			Prerendered: d.Prerendered(),
		}
		if d.Marker.TypeName != nil {
			b.Component = d.Marker.ComponentType().Name
			params, err := d.Marker.Parameters()
			if err != nil {
				return fmt.Errorf("%s boundary %d: %w", d.Kind, d.Sequence, err)
			}
			b.Parameters = params
		}
		boundaries = append(boundaries, b)
	}

	if asJSON {
		data, err := sonic.ConfigStd.MarshalIndent(boundaries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSEQ\tPRERENDERED\tOFFSET\tCOMPONENT\tKEY")
	for _, b := range boundaries {
		component := b.Component
		if component == "" {
			component = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%t\t%d\t%s\t%s\n", b.Kind, b.Sequence, b.Prerendered, b.Offset, component, b.Key)
	}
	return tw.Flush()
}
