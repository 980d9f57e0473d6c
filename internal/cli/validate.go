package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tobsdb/memdb/internal/parser"
)

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "validate [schema-file]",
		Short:         "Check a schema file for errors",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema_path := "./schema.tdb"
			if len(args) > 0 {
				schema_path = args[0]
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Checking %s for errors\n", schema_path)
			desc, err := parser.LoadSchemaFile(schema_path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Invalid schema; %s\n", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema checks successful: %d tables\n", len(desc.Tables))
			return nil
		},
	}
	return cmd
}
