package pg

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ConnectionConfig holds PostgreSQL connection configuration
type ConnectionConfig struct {
	URI             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	HealthTimeout   time.Duration
}

// DefaultConnectionConfig returns defaults for a read-mostly mirror
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		HealthTimeout:   5 * time.Second,
	}
}

// ConnectionManager owns the pool and tracks its health
type ConnectionManager struct {
	config ConnectionConfig
	pool   atomic.Pointer[pgxpool.Pool]

	healthTicker *time.Ticker
	stopHealth   chan struct{}
	isHealthy    atomic.Bool
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		config:     config,
		stopHealth: make(chan struct{}),
	}
}

// Connect opens the pool, pings the database and starts health monitoring
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(cm.config.URI)
	if err != nil {
		return errors.Wrap(err, "failed to parse connection URI")
	}
	if cm.config.MaxConns > 0 {
		poolConfig.MaxConns = cm.config.MaxConns
	}
	poolConfig.MinConns = cm.config.MinConns
	if cm.config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cm.config.MaxConnLifetime
	}
	if cm.config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cm.config.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return errors.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return errors.Wrap(err, "failed to ping database")
	}

	cm.pool.Store(pool)
	cm.isHealthy.Store(true)
	cm.startHealthMonitoring()
	klog.V(2).InfoS("Connected to workspace mirror", "maxConns", poolConfig.MaxConns)
	return nil
}

// Close stops health monitoring and closes the pool
func (cm *ConnectionManager) Close() error {
	if cm.healthTicker != nil {
		cm.healthTicker.Stop()
		close(cm.stopHealth)
		cm.healthTicker = nil
	}
	if pool := cm.pool.Swap(nil); pool != nil {
		pool.Close()
	}
	cm.isHealthy.Store(false)
	return nil
}

// Pool returns the current connection pool
func (cm *ConnectionManager) Pool() *pgxpool.Pool {
	return cm.pool.Load()
}

// IsHealthy returns the result of the last health check
func (cm *ConnectionManager) IsHealthy() bool {
	return cm.isHealthy.Load()
}

// WithTx executes fn within a read committed transaction
func (cm *ConnectionManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	pool := cm.Pool()
	if pool == nil {
		return errors.New("connection pool not initialized")
	}
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

func (cm *ConnectionManager) startHealthMonitoring() {
	cm.healthTicker = time.NewTicker(30 * time.Second)
	ticker, stop := cm.healthTicker, cm.stopHealth
	go func() {
		for {
			select {
			case <-ticker.C:
				cm.performHealthCheck()
			case <-stop:
				return
			}
		}
	}()
}

func (cm *ConnectionManager) performHealthCheck() {
	pool := cm.Pool()
	if pool == nil {
		cm.isHealthy.Store(false)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cm.config.HealthTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		klog.ErrorS(err, "Workspace mirror health check failed")
		cm.isHealthy.Store(false)
		return
	}
	cm.isHealthy.Store(true)
}
