package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/synconf/synconf/pkg/parser"
	"github.com/synconf/synconf/pkg/signature"
	"github.com/synconf/synconf/pkg/sweep"
)

func newSweepCommand(descriptors *signature.Registry, generators *sweep.Registry) *cobra.Command {
	var (
		set       []string
		generator string
	)

	cmd := &cobra.Command{
		Use:   "sweep [sources...]",
		Short: "Expand a parameter sweep into resolved variants",
		Long: `Sweep parses the base sources once per variant. Variants come from
either the cartesian product of --set value lists (the first --set
varies slowest) or a registered generator named with --generator.
Each variant is printed as a YAML document headed by its run ID.`,
		Example: `  # Four variants: the product of two value lists
  synconf sweep base.yaml --set 'model.lr=[0.1, 0.01]' --set 'model.layers=[2, 4]'

  # Variants from a registered generator
  synconf sweep base.yaml --generator nightly`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if generator != "" && len(set) > 0 {
				return fmt.Errorf("--set and --generator are mutually exclusive")
			}

			var combos [][]string
			var err error
			switch {
			case generator != "":
				combos, err = sweep.Generate(generators, generator)
			case len(set) > 0:
				combos, err = sweep.Cartesian(set)
			default:
				return fmt.Errorf("either --set or --generator is required")
			}
			if err != nil {
				return err
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			p, err := parser.New(parser.Options{
				Provider: descriptors,
				Env:      parser.EnvSnapshot(),
				Logger:   log,
			})
			if err != nil {
				return err
			}

			results, err := sweep.Run(p, args, combos)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(out, "---")
				}
				fmt.Fprintf(out, "# run %s: %s\n", res.RunID, strings.Join(res.Overrides, " "))
				doc, err := res.Config.YAML()
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(doc))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&set, "set", nil, "sweep spec path=[v1, v2, ...] (repeatable)")
	cmd.Flags().StringVar(&generator, "generator", "", "registered generator name")

	return cmd
}
