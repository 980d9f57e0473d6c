package cli

import (
	"github.com/spf13/cobra"
	"github.com/tobsdb/memdb/pkg"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Log   bool
	Debug bool
}

func (o *RootOptions) logLevel() pkg.LogLevel {
	switch {
	case o.Debug:
		return pkg.LogLevelDebug
	case o.Log:
		return pkg.LogLevelInfo
	default:
		return pkg.LogLevelErrOnly
	}
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tdb-mem",
		Short: "In-memory indexed table store",
		Long:  "An in-memory table store with primary and secondary indexes, joins, eviction, transactions and change streams.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			pkg.SetLogLevel(opts.logLevel())
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.Log, "log", false, "log requests and connections")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "show debug logs")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))

	return cmd
}
