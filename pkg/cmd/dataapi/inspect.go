package dataapi

import (
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/internal/api/dataapi"
	"github.com/realmarcin/data-api/pkg/assembly"
	"github.com/realmarcin/data-api/pkg/genome"
	"github.com/realmarcin/data-api/pkg/taxon"
	"github.com/realmarcin/data-api/pkg/workspace"
)

func newTaxonCommand(opts *options) *cobra.Command {
	var lineage, children bool

	cmd := &cobra.Command{
		Use:   "taxon <ref>",
		Short: "Print a taxon, its ancestors or its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			stack, err := opts.stack(ctx, nil)
			if err != nil {
				return err
			}
			defer stack.Close()

			tx, err := taxon.New(ctx, stack.Client, args[0], taxon.WithLogger(klog.NewKlogr().WithName("taxon")))
			if err != nil {
				return err
			}

			var related []*taxon.API
			switch {
			case lineage:
				for cur := tx; cur != nil; {
					related = append(related, cur)
					if cur, err = cur.GetParent(ctx); err != nil {
						return err
					}
				}
			case children:
				if related, err = tx.GetChildren(ctx); err != nil {
					return err
				}
			default:
				resp, err := dataapi.NewTaxonResponse(ctx, tx)
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), resp)
			}

			out := make([]*dataapi.TaxonResponse, 0, len(related))
			for _, r := range related {
				resp, err := dataapi.NewTaxonResponse(ctx, r)
				if err != nil {
					return err
				}
				out = append(out, resp)
			}
			return printJSON(c.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&lineage, "lineage", false, "Walk parent links up to the root")
	cmd.Flags().BoolVar(&children, "children", false, "Print the child taxa")
	cmd.MarkFlagsMutuallyExclusive("lineage", "children")
	return cmd
}

func newGenomeCommand(opts *options) *cobra.Command {
	var features []string
	var allFeatures bool

	cmd := &cobra.Command{
		Use:   "genome <ref>",
		Short: "Print a genome annotation or its features",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			stack, err := opts.stack(ctx, nil)
			if err != nil {
				return err
			}
			defer stack.Close()

			g, err := genome.New(ctx, stack.Client, args[0], genome.WithLogger(klog.NewKlogr().WithName("genome")))
			if err != nil {
				return err
			}
			if allFeatures || len(features) > 0 {
				found, err := g.GetFeatures(ctx, features)
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), found)
			}
			resp, err := dataapi.NewGenomeResponse(ctx, g)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringSliceVar(&features, "feature", nil, "Feature ids to print")
	cmd.Flags().BoolVar(&allFeatures, "all-features", false, "Print every feature")
	return cmd
}

func newAssemblyCommand(opts *options) *cobra.Command {
	var contigs []string
	var allContigs bool

	cmd := &cobra.Command{
		Use:   "assembly <ref>",
		Short: "Print an assembly or its contigs",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			stack, err := opts.stack(ctx, nil)
			if err != nil {
				return err
			}
			defer stack.Close()

			a, err := assembly.New(ctx, stack.Client, args[0], assembly.WithLogger(klog.NewKlogr().WithName("assembly")))
			if err != nil {
				return err
			}
			if allContigs || len(contigs) > 0 {
				found, err := a.GetContigs(ctx, contigs)
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), found)
			}
			resp, err := dataapi.NewAssemblyResponse(ctx, a)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringSliceVar(&contigs, "contig", nil, "Contig ids to print")
	cmd.Flags().BoolVar(&allContigs, "all-contigs", false, "Print every contig")
	return cmd
}

func newDescribeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <ref>...",
		Short: "Print any supported object, whichever vertical it belongs to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			stack, err := opts.stack(ctx, nil)
			if err != nil {
				return err
			}
			defer stack.Close()

			out := make([]*dataapi.Description, 0, len(args))
			for _, arg := range args {
				ref, err := workspace.ParseRef(arg)
				if err != nil {
					return err
				}
				d, err := dataapi.Describe(ctx, stack.Client, ref, klog.NewKlogr())
				if err != nil {
					return err
				}
				out = append(out, d)
			}
			return printJSON(c.OutOrStdout(), out)
		},
	}
}
