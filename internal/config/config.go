package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Бэкенды workspace клиента
const (
	BackendJSONRPC  = "jsonrpc"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Форматы логирования
const (
	LogFormatKlog = "klog"
	LogFormatStd  = "std"
)

type (
	// Config - основная конфигурация приложения
	Config struct {
		App       `yaml:"app"`
		Log       `yaml:"logger"`
		Workspace Workspace `yaml:"workspace"`
		Metrics   Metrics   `yaml:"metrics"`
		HTTP      HTTP      `yaml:"http"`
	}

	// App - конфигурация приложения
	App struct {
		Name    string `yaml:"name" env:"APP_NAME" env-description:"Application name"`
		Version string `yaml:"version" env:"APP_VERSION" env-description:"Application version"`
	}

	// Log - конфигурация логирования
	Log struct {
		Level  string `yaml:"log-level" env:"LOG_LEVEL" env-description:"Log level: error, warning, info, debug or a klog verbosity number"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-description:"Library logger: klog or std"`
	}

	// Workspace - подключение к хранилищу объектов
	Workspace struct {
		Backend        string        `yaml:"backend" env:"WORKSPACE_BACKEND" env-description:"Workspace backend: jsonrpc, memory, postgres or sqlite"`
		URL            string        `yaml:"url" env:"WORKSPACE_URL" env-description:"Workspace service JSON-RPC endpoint"`
		Token          string        `yaml:"token" env:"KB_AUTH_TOKEN" env-description:"Workspace auth token"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" env:"WORKSPACE_CONNECT_TIMEOUT" env-description:"Connection timeout"`
		RequestTimeout time.Duration `yaml:"request_timeout" env:"WORKSPACE_REQUEST_TIMEOUT" env-description:"Per call timeout"`
		RateLimit      float64       `yaml:"rate_limit" env:"WORKSPACE_RATE_LIMIT" env-description:"Rate limit (calls per second)"`
		RateBurst      int           `yaml:"rate_burst" env:"WORKSPACE_RATE_BURST" env-description:"Rate burst size"`
		MaxRetries     int           `yaml:"max_retries" env:"WORKSPACE_MAX_RETRIES" env-description:"Retries of transient transport failures, 0 disables"`

		Cache    Cache    `yaml:"cache"`
		Memory   Memory   `yaml:"memory"`
		Postgres Postgres `yaml:"postgres"`
		SQLite   SQLite   `yaml:"sqlite"`
	}

	// Cache - кеш метаданных объектов
	Cache struct {
		Enabled bool          `yaml:"enabled" env:"WORKSPACE_CACHE_ENABLED" env-description:"Cache object metadata between facades"`
		Size    int           `yaml:"size" env:"WORKSPACE_CACHE_SIZE" env-description:"Maximum cached entries"`
		TTL     time.Duration `yaml:"ttl" env:"WORKSPACE_CACHE_TTL" env-description:"Cached entry lifetime"`
	}

	// Memory - in-memory workspace из фикстур
	Memory struct {
		Fixtures string `yaml:"fixtures" env:"WORKSPACE_FIXTURES" env-description:"JSON fixture file; empty starts an empty workspace"`
	}

	// Postgres - зеркало workspace в PostgreSQL
	Postgres struct {
		URI      string `yaml:"uri" env:"WORKSPACE_PG_URI" env-description:"PostgreSQL connection URI"`
		MaxConns int32  `yaml:"max_conns" env:"WORKSPACE_PG_MAX_CONNS" env-description:"Maximum pool connections"`
		MinConns int32  `yaml:"min_conns" env:"WORKSPACE_PG_MIN_CONNS" env-description:"Minimum pool connections"`
	}

	// SQLite - офлайн снапшот
	SQLite struct {
		Path string `yaml:"path" env:"WORKSPACE_SQLITE_PATH" env-description:"Snapshot file"`
	}

	// Metrics - prometheus метрики
	Metrics struct {
		Enabled   bool   `yaml:"enabled" env:"METRICS_ENABLED" env-description:"Expose Prometheus metrics"`
		Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-description:"Metric name prefix"`
	}

	// HTTP - HTTP сервер
	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR" env-description:"HTTP listen address"`
	}
)

// NewConfig создает новую конфигурацию
func NewConfig(path string) (*Config, error) {
	cfg := Default()

	// Загрузка из файла конфигурации
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	// Загрузка из переменных окружения
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config env error: %w", err)
	}

	return cfg, nil
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.App.Name = "dataapi"
	cfg.App.Version = "v0.1.0"
	cfg.Log.Level = "info"
	cfg.Log.Format = LogFormatKlog
	cfg.Workspace.Backend = BackendJSONRPC
	cfg.Workspace.URL = "https://kbase.us/services/ws"
	cfg.Workspace.ConnectTimeout = 10 * time.Second
	cfg.Workspace.RequestTimeout = 60 * time.Second
	cfg.Workspace.RateLimit = 20
	cfg.Workspace.RateBurst = 40
	cfg.Workspace.Cache.Enabled = true
	cfg.Workspace.Cache.Size = 4096
	cfg.Workspace.Cache.TTL = 10 * time.Minute
	cfg.Workspace.Postgres.MaxConns = 10
	cfg.Workspace.Postgres.MinConns = 1
	cfg.Workspace.SQLite.Path = "dataapi.db"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "dataapi"
	cfg.HTTP.Addr = ":8080"
	return cfg
}

// Usage возвращает описание всех переменных окружения
func Usage() string {
	usage, _ := cleanenv.GetDescription(Default(), nil)
	return usage
}

// Validate валидирует конфигурацию
func (c *Config) Validate() error {
	switch c.Log.Format {
	case LogFormatKlog, LogFormatStd:
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}

	w := c.Workspace
	switch w.Backend {
	case BackendJSONRPC:
		if w.URL == "" {
			return fmt.Errorf("workspace url is required for the %s backend", w.Backend)
		}
		if w.RequestTimeout <= 0 {
			return fmt.Errorf("request_timeout must be positive")
		}
		if w.RateLimit <= 0 || w.RateBurst <= 0 {
			return fmt.Errorf("rate_limit and rate_burst must be positive")
		}
		if w.MaxRetries < 0 {
			return fmt.Errorf("max_retries cannot be negative")
		}
	case BackendMemory:
	case BackendPostgres:
		if w.Postgres.URI == "" {
			return fmt.Errorf("postgres uri is required for the %s backend", w.Backend)
		}
	case BackendSQLite:
		if w.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required for the %s backend", w.Backend)
		}
	default:
		return fmt.Errorf("unknown workspace backend: %s", w.Backend)
	}

	if w.Cache.Enabled && (w.Cache.Size <= 0 || w.Cache.TTL <= 0) {
		return fmt.Errorf("cache size and ttl must be positive when the cache is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics namespace is required")
	}
	return nil
}
