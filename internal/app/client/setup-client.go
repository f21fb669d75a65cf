package client

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/internal/config"
	"github.com/realmarcin/data-api/internal/infrastructure/workspace/cache"
	"github.com/realmarcin/data-api/internal/infrastructure/workspace/metrics"
	"github.com/realmarcin/data-api/internal/infrastructure/workspace/pg"
	"github.com/realmarcin/data-api/internal/infrastructure/workspace/sqlite"
	"github.com/realmarcin/data-api/pkg/workspace"
	"github.com/realmarcin/data-api/pkg/workspace/jsonrpc"
	"github.com/realmarcin/data-api/pkg/workspace/mem"
)

// Stack is the workspace client handed to the facades, decorated according
// to the configuration, together with the resources behind it.
type Stack struct {
	Client  workspace.Client
	Backend string

	// Sink is set for backends that can also receive dumped objects.
	Sink sqlite.Sink

	health  func(ctx context.Context) error
	closers []func() error
}

// Health reports whether the backend can serve requests.
func (s *Stack) Health(ctx context.Context) error {
	if s.health == nil {
		return nil
	}
	return s.health(ctx)
}

// Close releases the backend resources in reverse order.
func (s *Stack) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// SetupWorkspace builds the configured backend and wraps it with metrics
// (when reg is not nil and metrics are enabled) and the metadata cache.
func SetupWorkspace(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Stack, error) {
	stack, err := setupBackend(ctx, cfg.Workspace)
	if err != nil {
		return nil, err
	}

	if reg != nil && cfg.Metrics.Enabled {
		m, err := metrics.New(reg, cfg.Metrics.Namespace)
		if err != nil {
			_ = stack.Close()
			return nil, err
		}
		stack.Client = m.Instrument(stack.Client)
	}
	if c := cfg.Workspace.Cache; c.Enabled {
		stack.Client = cache.New(stack.Client, c.Size, c.TTL)
	}

	klog.InfoS("Workspace client ready", "backend", stack.Backend,
		"cache", cfg.Workspace.Cache.Enabled, "metrics", reg != nil && cfg.Metrics.Enabled)
	return stack, nil
}

func setupBackend(ctx context.Context, cfg config.Workspace) (*Stack, error) {
	stack := &Stack{Backend: cfg.Backend}
	switch cfg.Backend {
	case config.BackendJSONRPC:
		c, err := jsonrpc.NewClient(jsonrpc.Config{
			URL:            cfg.URL,
			Token:          cfg.Token,
			ConnectTimeout: cfg.ConnectTimeout,
			RequestTimeout: cfg.RequestTimeout,
			RateLimit:      cfg.RateLimit,
			RateBurst:      cfg.RateBurst,
			MaxRetries:     cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		stack.Client = c
		stack.health = func(ctx context.Context) error {
			_, err := c.Version(ctx)
			return err
		}

	case config.BackendMemory:
		ws := mem.NewWorkspace()
		if cfg.Memory.Fixtures != "" {
			var err error
			if ws, err = mem.NewWorkspaceFromFile(cfg.Memory.Fixtures); err != nil {
				return nil, err
			}
		}
		stack.Client = ws
		stack.closers = append(stack.closers, ws.Close)

	case config.BackendPostgres:
		connCfg := pg.DefaultConnectionConfig()
		connCfg.URI = cfg.Postgres.URI
		connCfg.MaxConns = cfg.Postgres.MaxConns
		connCfg.MinConns = cfg.Postgres.MinConns
		cm := pg.NewConnectionManager(connCfg)
		if err := cm.Connect(ctx); err != nil {
			return nil, errors.Wrap(err, "connect workspace mirror")
		}
		stack.closers = append(stack.closers, cm.Close)
		mirror := pg.NewMirror(cm)
		if err := mirror.EnsureSchema(ctx); err != nil {
			_ = stack.Close()
			return nil, err
		}
		stack.Client = mirror
		stack.Sink = mirror
		stack.health = func(context.Context) error {
			if !cm.IsHealthy() {
				return errors.New("workspace mirror is unhealthy")
			}
			return nil
		}

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		stack.Client = store
		stack.Sink = store
		stack.closers = append(stack.closers, store.Close)

	default:
		return nil, errors.Errorf("unknown workspace backend %q", cfg.Backend)
	}
	return stack, nil
}
