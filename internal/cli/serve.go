package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tobsdb/memdb/internal/auth"
	"github.com/tobsdb/memdb/internal/builder"
	"github.com/tobsdb/memdb/internal/conn"
	"github.com/tobsdb/memdb/internal/parser"
	"github.com/tobsdb/memdb/internal/store"
)

const DefaultPort = 7085

type ServeOptions struct {
	Port       int
	SchemaPath string
	MaxEntries int
	Eviction   string
	Username   string
	Password   string
	TxTimeout  time.Duration
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve a store over websockets",
		Long:         "Serve a store over websockets. Credentials default to the TDB_USER and TDB_PASS environment variables; with neither set, connections are not authenticated.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := NewServer(opts)
			if err != nil {
				return err
			}
			srv.Listen(opts.Port)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", DefaultPort, "listening port")
	cmd.Flags().StringVar(&opts.SchemaPath, "schema", "", "schema file (.tdb, .yaml or .json)")
	cmd.Flags().IntVar(&opts.MaxEntries, "max-entries", 0, "maximum records per table, 0 for no limit")
	cmd.Flags().StringVar(&opts.Eviction, "eviction", string(store.EvictionLRU), "eviction policy (lru|fifo)")
	cmd.Flags().DurationVar(&opts.TxTimeout, "tx-timeout", conn.DefaultTxTimeout, "idle time allowed inside a transaction before it is rolled back")
	cmd.Flags().StringVar(&opts.Username, "username", os.Getenv("TDB_USER"), "server username")
	cmd.Flags().StringVar(&opts.Password, "password", os.Getenv("TDB_PASS"), "server password")

	return cmd
}

// NewServer builds the store and server the serve command runs.
func NewServer(opts *ServeOptions) (*conn.Server, error) {
	policy, err := builder.ParseEvictionPolicy(opts.Eviction)
	if err != nil {
		return nil, err
	}

	options := store.Options{MaxEntries: opts.MaxEntries, Eviction: policy}
	if len(opts.SchemaPath) > 0 {
		desc, err := parser.LoadSchemaFile(opts.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
		options.Schema = desc
	}

	users := auth.NewUsers()
	if len(opts.Username) > 0 || len(opts.Password) > 0 {
		if _, err := users.Add(opts.Username, opts.Password, auth.TdbUserRoleAdmin); err != nil {
			return nil, err
		}
	}

	srv := conn.NewServer(store.New(options), users)
	if opts.TxTimeout > 0 {
		srv.TxTimeout = opts.TxTimeout
	}
	return srv, nil
}
