package dataapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/internal/api/dataapi"
	"github.com/realmarcin/data-api/internal/app/server"
)

func newServeCommand(opts *options) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the data API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			if httpAddr != "" {
				opts.cfg.HTTP.Addr = httpAddr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			stack, err := opts.stack(ctx, reg)
			if err != nil {
				return err
			}
			defer stack.Close()

			api := dataapi.NewHandler(stack.Client, klog.NewKlogr().WithName("dataapi"))
			var gatherer prometheus.Gatherer
			if opts.cfg.Metrics.Enabled {
				gatherer = reg
			}
			httpServer := server.SetupServer(opts.cfg.HTTP.Addr, api, gatherer, stack.Health)

			errCh := make(chan error, 1)
			go func() {
				klog.InfoS("Serving data API", "addr", httpServer.Addr, "backend", stack.Backend)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			klog.InfoS("Shutting down data API")
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP server address (overrides config)")
	return cmd
}
