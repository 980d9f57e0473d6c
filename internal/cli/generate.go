package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tobsdb/memdb/internal/parser"
	"github.com/tobsdb/memdb/tools/generate"
)

type GenerateOptions struct {
	SchemaPath string
	Out        string
	Lang       string
	Package    string
}

func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate record types from a schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := parser.LoadSchemaFile(opts.SchemaPath)
			if err != nil {
				return err
			}

			var data []byte
			switch opts.Lang {
			case "go", "golang":
				data, err = generate.SchemaToGoPackage(desc, opts.Package)
			default:
				data, err = generate.SchemaToLang(desc, opts.Lang)
			}
			if err != nil {
				return err
			}

			if len(opts.Out) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return os.WriteFile(opts.Out, data, 0o644)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaPath, "schema", "./schema.tdb", "schema file")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output file, stdout if empty")
	cmd.Flags().StringVar(&opts.Lang, "lang", "json", "output language (json|typescript|rust|go)")
	cmd.Flags().StringVar(&opts.Package, "package", generate.DefaultGoPackage, "package name for go output")

	return cmd
}
