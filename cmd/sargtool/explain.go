package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) explainCommand() *cobra.Command {
	var src sargSource
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "print the search argument of a predicate",
		Long: `
  Prints the leaves and the CNF expression of the search argument built from
  a YAML predicate or a WHERE clause, or from a serialized search argument.
  Columns of a WHERE clause are typed with --schema.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSearchArgument(src, nil)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.String())
			return err
		},
	}
	f := cmd.Flags()
	src.registerFlags(f)
	f.BoolVar(&asJSON, "json", false, "Print the serialized search argument.")
	return cmd
}
