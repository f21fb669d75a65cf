package dataapi

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/internal/api/dataapi"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// BenchResult summarises a bench run.
type BenchResult struct {
	Requests int64         `json:"requests"`
	Failures int64         `json:"failures"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Calls    float64       `json:"workspace_calls"`
}

func newBenchCommand(opts *options) *cobra.Command {
	var (
		concurrency int
		rounds      int
		keepGoing   bool
	)

	cmd := &cobra.Command{
		Use:   "bench <ref>...",
		Short: "Describe the given objects repeatedly from concurrent workers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			refs := make([]workspace.Ref, 0, len(args))
			for _, arg := range args {
				ref, err := workspace.ParseRef(arg)
				if err != nil {
					return err
				}
				refs = append(refs, ref)
			}

			reg := prometheus.NewRegistry()
			opts.cfg.Metrics.Enabled = true
			ctx := c.Context()
			stack, err := opts.stack(ctx, reg)
			if err != nil {
				return err
			}
			defer stack.Close()

			var res BenchResult
			logger := klog.NewKlogr().WithName("bench")
			start := time.Now()

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(concurrency)
			for round := 0; round < rounds; round++ {
				for _, ref := range refs {
					ref := ref
					g.Go(func() error {
						atomic.AddInt64(&res.Requests, 1)
						if _, err := dataapi.Describe(gctx, stack.Client, ref, logger); err != nil {
							atomic.AddInt64(&res.Failures, 1)
							if !keepGoing {
								return err
							}
							logger.V(1).Info("Describe failed", "ref", ref.String(), "error", err.Error())
						}
						return nil
					})
				}
			}
			err = g.Wait()
			res.Elapsed = time.Since(start)
			res.Calls = countCalls(reg, opts.cfg.Metrics.Namespace)
			if perr := printJSON(c.OutOrStdout(), res); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "Concurrent workers")
	cmd.Flags().IntVar(&rounds, "rounds", 10, "How many times each ref is described")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Count failures instead of stopping at the first one")
	return cmd
}

// countCalls sums the workspace call counter across operations and results.
func countCalls(g prometheus.Gatherer, namespace string) float64 {
	families, err := g.Gather()
	if err != nil {
		return 0
	}
	var total float64
	for _, f := range families {
		if f.GetName() != fmt.Sprintf("%s_workspace_calls_total", namespace) {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
