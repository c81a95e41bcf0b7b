package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/synconf/synconf/pkg/signature"
)

func newDescribeCommand(descriptors *signature.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <descriptor>",
		Short: "Show the parameter chain of a registered descriptor",
		Long: `Describe prints each callable along the descriptor's forwarding
chain with its parameters, type constraints, and defaults. Without an
argument it lists every registered descriptor.`,
		Example: `  # List registered descriptors
  synconf describe

  # Show the parameters of one descriptor
  synconf describe demo.Model`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range descriptors.Descriptors() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			sigs, err := signature.Chain(descriptors, args[0])
			if err != nil {
				return err
			}
			for i, sig := range sigs {
				if i > 0 {
					fmt.Fprintln(out)
				}
				renderSignature(out, sig)
			}
			return nil
		},
	}
	return cmd
}

func renderSignature(w io.Writer, sig *signature.Signature) {
	header := sig.Descriptor
	if sig.Receiver != "" {
		header += " (bound to " + sig.Receiver + ")"
	}
	fmt.Fprintln(w, header)
	for _, param := range sig.Parameters {
		if param.ForwardsTo != "" {
			fmt.Fprintf(w, "  %-20s -> %s\n", param.Name, param.ForwardsTo)
			continue
		}
		constraint := "any"
		if param.Type != nil {
			constraint = param.Type.String()
		}
		detail := "required"
		if param.HasDefault {
			detail = fmt.Sprintf("default %v", param.Default)
		}
		fmt.Fprintf(w, "  %-20s %-16s %s\n", param.Name, constraint, detail)
	}
	if sig.AcceptsAnyForward {
		fmt.Fprintln(w, "  (accepts arbitrary extra parameters)")
	}
}
