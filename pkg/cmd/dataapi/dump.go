package dataapi

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/internal/infrastructure/workspace/pg"
	"github.com/realmarcin/data-api/internal/infrastructure/workspace/sqlite"
	"github.com/realmarcin/data-api/pkg/workspace"
)

func newDumpCommand(opts *options) *cobra.Command {
	var (
		out   string
		toPG  string
		depth int
	)

	cmd := &cobra.Command{
		Use:   "dump <ref>...",
		Short: "Copy objects and their neighbourhood into a SQLite snapshot or a PostgreSQL mirror",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if (out == "") == (toPG == "") {
				return errors.New("exactly one of --out or --to-pg is required")
			}
			roots := make([]workspace.Ref, 0, len(args))
			for _, arg := range args {
				ref, err := workspace.ParseRef(arg)
				if err != nil {
					return err
				}
				roots = append(roots, ref)
			}

			ctx := c.Context()
			stack, err := opts.stack(ctx, nil)
			if err != nil {
				return err
			}
			defer stack.Close()

			var sink sqlite.Sink
			if out != "" {
				store, err := sqlite.Open(out)
				if err != nil {
					return err
				}
				defer store.Close()
				sink = store
			} else {
				connCfg := pg.DefaultConnectionConfig()
				connCfg.URI = toPG
				cm := pg.NewConnectionManager(connCfg)
				if err := cm.Connect(ctx); err != nil {
					return errors.Wrap(err, "connect dump target")
				}
				defer cm.Close()
				mirror := pg.NewMirror(cm)
				if err := mirror.EnsureSchema(ctx); err != nil {
					return err
				}
				sink = mirror
			}

			stats, err := sqlite.Dump(ctx, stack.Client, sink, roots, depth)
			if err != nil {
				return err
			}
			klog.InfoS("Dump finished", "objects", stats.Objects, "references", stats.References)
			_, err = fmt.Fprintf(c.OutOrStdout(), "%d objects, %d references\n", stats.Objects, stats.References)
			return err
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "SQLite snapshot file to write")
	cmd.Flags().StringVar(&toPG, "to-pg", "", "PostgreSQL URI of the mirror to write")
	cmd.Flags().IntVar(&depth, "depth", 1, "How many link hops to follow from each root")
	return cmd
}
