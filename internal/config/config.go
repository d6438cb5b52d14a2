package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Taxonomy TaxonomyConfig `yaml:"taxonomy" mapstructure:"taxonomy"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// TaxonomyConfig points at the label taxonomy. An empty path selects the
// embedded default.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the result sink.
type StoreConfig struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig  `yaml:"pool" mapstructure:"pool"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// PoolConfig tunes the Postgres connection pool. Zero values keep the
// store's defaults.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// RetryConfig controls retries of result saves on transient database errors.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
	DocumentTimeoutSecs    int `yaml:"document_timeout_secs" mapstructure:"document_timeout_secs"`
}

// OutputConfig configures where records and reports are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Store drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Validate rejects settings the commands cannot act on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverNone, DriverSQLite, DriverPostgres:
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != DriverNone && c.Store.DatabaseURL == "" {
		return eris.Errorf("config: store.database_url is required for driver %q", c.Store.Driver)
	}
	if c.Store.Retry.MaxAttempts < 0 {
		return eris.New("config: store.retry.max_attempts must not be negative")
	}
	if c.Batch.MaxConcurrentDocuments < 1 {
		return eris.New("config: batch.max_concurrent_documents must be at least 1")
	}
	if c.Batch.DocumentTimeoutSecs < 0 {
		return eris.New("config: batch.document_timeout_secs must not be negative")
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RERA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("taxonomy.path", "")
	v.SetDefault("store.driver", DriverNone)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.pool.max_conns", 0)
	v.SetDefault("store.pool.min_conns", 0)
	v.SetDefault("store.retry.max_attempts", 3)
	v.SetDefault("store.retry.initial_backoff", "200ms")
	v.SetDefault("store.retry.max_backoff", "5s")
	v.SetDefault("batch.max_concurrent_documents", 8)
	v.SetDefault("batch.document_timeout_secs", 10)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.pretty", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
