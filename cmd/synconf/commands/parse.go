package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synconf/synconf/pkg/parser"
	"github.com/synconf/synconf/pkg/signature"
)

func newParseCommand(descriptors *signature.Registry) *cobra.Command {
	var (
		printTree    bool
		checkTypes   bool
		checkMapping bool
		exclude      []string
	)

	cmd := &cobra.Command{
		Use:   "parse [sources...]",
		Short: "Merge, resolve, and validate configuration sources",
		Long: `Parse builds one configuration from the ordered source tokens.

Tokens ending in .yaml/.yml or .cue load documents; tokens of the
form path=value are overrides. Later tokens win. After merging, the
tree is finalized (REMOVE deletion, list conversion), interpolation
markers are resolved, defaults are completed, and the tree is
optionally validated.`,
		Example: `  # Layer two documents and pin one value
  synconf parse base.yaml site.yaml server.port=9090

  # Validate against registered descriptors and print the result
  synconf parse config.yaml --check-types --check-mapping --print

  # Skip validation for experimental paths
  synconf parse config.yaml --check-mapping --exclude 'model.**'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}

			p, err := parser.New(parser.Options{
				Provider:        descriptors,
				ValidateTypes:   checkTypes,
				ValidateMapping: checkMapping,
				Exclude:         exclude,
				Env:             parser.EnvSnapshot(),
				Logger:          log,
			})
			if err != nil {
				return err
			}

			cfg, err := p.Parse(args)
			if err != nil {
				return err
			}

			if printTree {
				out, err := cfg.YAML()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(out))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printTree, "print", false, "print the resolved tree as YAML")
	cmd.Flags().BoolVar(&checkTypes, "check-types", false, "validate values against declared type constraints")
	cmd.Flags().BoolVar(&checkMapping, "check-mapping", false, "report missing and unexpected parameters")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "dotted paths (or globs) exempt from validation")

	return cmd
}
