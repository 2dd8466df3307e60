// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Source, Ingest, Store, Benchmark, Scoring, Redis, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Store     StoreConfig     `yaml:"store"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	FileScore FileScoreConfig `yaml:"fileScore"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

// SourceConfig describes the tabular review input.
type SourceConfig struct {
	Path       string `yaml:"path"`
	TextColumn string `yaml:"textColumn"`
	Encoding   string `yaml:"encoding"`
}

// IngestConfig bounds the ingestion run. MaxRows of 0 means no cap.
type IngestConfig struct {
	ChunkSize int `yaml:"chunkSize"`
	MaxRows   int `yaml:"maxRows"`
}

// StoreConfig selects the results database.
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// BenchmarkConfig controls how often each benchmark query is executed.
type BenchmarkConfig struct {
	Runs int `yaml:"runs"`
}

// ScoringConfig exposes the label thresholds.
type ScoringConfig struct {
	PositiveThreshold int `yaml:"positiveThreshold"`
	NegativeThreshold int `yaml:"negativeThreshold"`
}

// FileScoreConfig controls the directory scorer. Workers of 0 means one per CPU.
type FileScoreConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
	Workers   int    `yaml:"workers"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// RedisConfig holds the optional report cache connection.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	ReportTTL time.Duration `yaml:"reportTTL"`
}

// KafkaConfig holds the optional report topic settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path:       "Reviews.csv",
			TextColumn: "Text",
			Encoding:   "utf-8",
		},
		Ingest: IngestConfig{
			ChunkSize: 10000,
			MaxRows:   1000000,
		},
		Store: StoreConfig{
			Driver: "sqlite3",
			Path:   "performance_test.db",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				Database:        "sentiment",
				User:            "sentiment",
				Password:        "localdev",
				SSLMode:         "disable",
				MaxOpenConns:    1,
				MaxIdleConns:    1,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Benchmark: BenchmarkConfig{
			Runs: 1,
		},
		Scoring: ScoringConfig{
			PositiveThreshold: 1,
			NegativeThreshold: -1,
		},
		FileScore: FileScoreConfig{
			Dir:       ".",
			Extension: ".txt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  2,
			ReportTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "sentiment-benchmark-reports",
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Source.TextColumn) == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "source.textColumn must not be empty")
	case c.Ingest.ChunkSize < 1:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "ingest.chunkSize must be >= 1, got %d", c.Ingest.ChunkSize)
	case c.Ingest.MaxRows < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "ingest.maxRows must be >= 0, got %d", c.Ingest.MaxRows)
	case c.Benchmark.Runs < 1:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "benchmark.runs must be >= 1, got %d", c.Benchmark.Runs)
	case c.Scoring.NegativeThreshold >= c.Scoring.PositiveThreshold:
		return apperrors.Newf(apperrors.ErrInvalidConfig,
			"scoring.negativeThreshold (%d) must be below scoring.positiveThreshold (%d)",
			c.Scoring.NegativeThreshold, c.Scoring.PositiveThreshold)
	case c.FileScore.Workers < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "fileScore.workers must be >= 0, got %d", c.FileScore.Workers)
	case strings.TrimSpace(c.FileScore.Dir) == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "fileScore.dir must not be empty")
	case c.FileScore.Extension == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "fileScore.extension must not be empty")
	case c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535):
		return apperrors.Newf(apperrors.ErrInvalidConfig, "metrics.port must be in 1..65535, got %d", c.Metrics.Port)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "logging.format must be 'text' or 'json', got %q", c.Logging.Format)
	}
	switch c.Store.Driver {
	case "sqlite3":
		if c.Store.Path == "" {
			return apperrors.New(apperrors.ErrInvalidConfig, "store.path is required for sqlite3")
		}
	case "postgres":
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "store.driver must be 'sqlite3' or 'postgres', got %q", c.Store.Driver)
	}
	return nil
}

// applyEnvOverrides reads SENT_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENT_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("SENT_SOURCE_TEXT_COLUMN"); v != "" {
		cfg.Source.TextColumn = v
	}
	if v := os.Getenv("SENT_SOURCE_ENCODING"); v != "" {
		cfg.Source.Encoding = v
	}
	if v := os.Getenv("SENT_INGEST_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.ChunkSize = n
		}
	}
	if v := os.Getenv("SENT_INGEST_MAX_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.MaxRows = n
		}
	}
	if v := os.Getenv("SENT_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("SENT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SENT_POSTGRES_HOST"); v != "" {
		cfg.Store.Postgres.Host = v
	}
	if v := os.Getenv("SENT_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.Port = port
		}
	}
	if v := os.Getenv("SENT_POSTGRES_DATABASE"); v != "" {
		cfg.Store.Postgres.Database = v
	}
	if v := os.Getenv("SENT_POSTGRES_USER"); v != "" {
		cfg.Store.Postgres.User = v
	}
	if v := os.Getenv("SENT_POSTGRES_PASSWORD"); v != "" {
		cfg.Store.Postgres.Password = v
	}
	if v := os.Getenv("SENT_POSTGRES_SSLMODE"); v != "" {
		cfg.Store.Postgres.SSLMode = v
	}
	if v := os.Getenv("SENT_BENCHMARK_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Benchmark.Runs = n
		}
	}
	if v := os.Getenv("SENT_FILESCORE_DIR"); v != "" {
		cfg.FileScore.Dir = v
	}
	if v := os.Getenv("SENT_FILESCORE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FileScore.Workers = n
		}
	}
	if v := os.Getenv("SENT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SENT_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SENT_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("SENT_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("SENT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SENT_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SENT_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("SENT_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SENT_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
}
