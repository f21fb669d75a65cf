package dataapi

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/go-logr/stdr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	appclient "github.com/realmarcin/data-api/internal/app/client"
	"github.com/realmarcin/data-api/internal/config"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	backend    string
	url        string
	fixtures   string
	sqlitePath string
	pgURI      string

	cfg *config.Config
}

// NewCommand creates the dataapi root command with all subcommands attached.
func NewCommand(ctx context.Context, out, errOut io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "dataapi",
		Short:         "Read KBase taxon, genome and assembly objects across schema generations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return opts.complete(c)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetContext(ctx)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.backend, "backend", "", "Workspace backend (overrides config): jsonrpc, memory, postgres or sqlite")
	flags.StringVar(&opts.url, "ws-url", "", "Workspace service URL (overrides config)")
	flags.StringVar(&opts.fixtures, "fixtures", "", "Fixture file for the memory backend (overrides config)")
	flags.StringVar(&opts.sqlitePath, "sqlite", "", "Snapshot file for the sqlite backend (overrides config)")
	flags.StringVar(&opts.pgURI, "pg-uri", "", "PostgreSQL connection URI for the postgres backend (overrides config)")

	// Make Go standard flags (including klog) available so users can use -v, --v etc.
	goFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(goFlags)
	flags.AddGoFlagSet(goFlags)

	cmd.AddCommand(
		newTaxonCommand(opts),
		newGenomeCommand(opts),
		newAssemblyCommand(opts),
		newDescribeCommand(opts),
		newDumpCommand(opts),
		newBenchCommand(opts),
		newServeCommand(opts),
		newConfigCommand(),
	)
	return cmd
}

func (o *options) complete(c *cobra.Command) error {
	cfg, err := config.NewConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.backend != "" {
		cfg.Workspace.Backend = o.backend
	}
	if o.url != "" {
		cfg.Workspace.URL = o.url
	}
	if o.fixtures != "" {
		cfg.Workspace.Memory.Fixtures = o.fixtures
	}
	if o.sqlitePath != "" {
		cfg.Workspace.SQLite.Path = o.sqlitePath
	}
	if o.pgURI != "" {
		cfg.Workspace.Postgres.URI = o.pgURI
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := setupLogging(c, cfg.Log); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// setupLogging applies the configured level unless -v was given explicitly.
func setupLogging(c *cobra.Command, cfg config.Log) error {
	if cfg.Format == config.LogFormatStd {
		klog.SetLogger(stdr.New(log.Default()))
	}
	if f := c.Flags().Lookup("v"); f != nil && !f.Changed {
		level, err := verbosity(cfg.Level)
		if err != nil {
			return err
		}
		if err := f.Value.Set(strconv.Itoa(level)); err != nil {
			return err
		}
	}
	return nil
}

func verbosity(level string) (int, error) {
	switch level {
	case "", "error", "warning", "info":
		return 0, nil
	case "debug":
		return 2, nil
	case "trace":
		return 4, nil
	}
	v, err := strconv.Atoi(level)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
	return v, nil
}

// stack opens the configured workspace client. reg may be nil.
func (o *options) stack(ctx context.Context, reg prometheus.Registerer) (*appclient.Stack, error) {
	return appclient.SetupWorkspace(ctx, o.cfg, reg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
