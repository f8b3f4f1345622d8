package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Workload sources accepted by SnapshotConfig.WorkloadSource.
const (
	WorkloadFromPostgres = "postgres"
	WorkloadFromQueue    = "queue"
)

// Config captures the settings required to boot the SDA engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Clients  ClientsConfig  `yaml:"clients"`
	Database DatabaseConfig `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
	Rules    RulesConfig    `yaml:"rules"`
	Cache    CacheConfig    `yaml:"cache"`
	Events   EventsConfig   `yaml:"events"`
}

// ServerConfig controls the gRPC, REST and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups outbound HTTP integrations.
type ClientsConfig struct {
	Queue QueueClientConfig `yaml:"queue"`
}

// QueueClientConfig configures access to the approvals queue API.
type QueueClientConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	PendingPath string        `yaml:"pendingPath"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DatabaseConfig configures the Postgres decision history.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// SnapshotConfig controls the historical/workload snapshot refresh.
type SnapshotConfig struct {
	Interval       time.Duration `yaml:"interval"`
	Lookback       time.Duration `yaml:"lookback"`
	MinSamples     int           `yaml:"minSamples"`
	StaleAfter     time.Duration `yaml:"staleAfter"`
	WorkloadSource string        `yaml:"workloadSource"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RulesConfig controls prediction rule-pack loading.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls caching of upstream lookups. With Enabled and Addr set the
// Valkey cache is used; otherwise an in-process LRU serves when LocalSize > 0.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	LocalSize    int           `yaml:"localSize"`
	LocalTTL     time.Duration `yaml:"localTTL"`
	WorkloadTTL  time.Duration `yaml:"workloadTTL"`
}

// EventsConfig controls publication of evaluation events.
type EventsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SDA_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot boot with.
func (c *Config) Validate() error {
	switch c.Snapshot.WorkloadSource {
	case WorkloadFromPostgres, WorkloadFromQueue:
	default:
		return fmt.Errorf("snapshot.workloadSource must be %q or %q, got %q", WorkloadFromPostgres, WorkloadFromQueue, c.Snapshot.WorkloadSource)
	}
	if c.Events.Enabled && (len(c.Events.Brokers) == 0 || c.Events.Topic == "") {
		return errors.New("events.brokers and events.topic are required when events are enabled")
	}
	if c.Snapshot.Interval <= 0 {
		return errors.New("snapshot.interval must be positive")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":2112",
			RequestTimeout:  30 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			Queue: QueueClientConfig{
				PendingPath: "/api/v1/approvals/pending",
				Timeout:     5 * time.Second,
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Snapshot: SnapshotConfig{
			Interval:       5 * time.Minute,
			Lookback:       180 * 24 * time.Hour,
			MinSamples:     1,
			StaleAfter:     30 * time.Minute,
			WorkloadSource: WorkloadFromPostgres,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Rules:   RulesConfig{Path: "configs/rules/default.yaml"},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			LocalSize:    128,
			LocalTTL:     time.Minute,
			WorkloadTTL:  time.Minute,
		},
		Events: EventsConfig{
			Topic:        "sda.evaluations",
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Address, "SDA_ENGINE_SERVER_ADDRESS")
	setString(&cfg.Server.HTTPAddress, "SDA_ENGINE_HTTP_ADDRESS")
	setString(&cfg.Server.MetricsAddress, "SDA_ENGINE_METRICS_ADDRESS")
	setDuration(&cfg.Server.GracefulTimeout, "SDA_ENGINE_GRACEFUL_TIMEOUT")

	setString(&cfg.Clients.Queue.BaseURL, "SDA_QUEUE_BASE_URL")
	setString(&cfg.Clients.Queue.PendingPath, "SDA_QUEUE_PENDING_PATH")
	setDuration(&cfg.Clients.Queue.Timeout, "SDA_QUEUE_TIMEOUT")

	setString(&cfg.Database.DSN, "SDA_ENGINE_DATABASE_DSN")

	setDuration(&cfg.Snapshot.Interval, "SDA_ENGINE_SNAPSHOT_INTERVAL")
	setDuration(&cfg.Snapshot.Lookback, "SDA_ENGINE_SNAPSHOT_LOOKBACK")
	setInt(&cfg.Snapshot.MinSamples, "SDA_ENGINE_SNAPSHOT_MIN_SAMPLES")
	setDuration(&cfg.Snapshot.StaleAfter, "SDA_ENGINE_SNAPSHOT_STALE_AFTER")
	if v := os.Getenv("SDA_ENGINE_WORKLOAD_SOURCE"); v != "" {
		cfg.Snapshot.WorkloadSource = strings.ToLower(v)
	}

	setString(&cfg.Logging.Level, "SDA_ENGINE_LOG_LEVEL")
	if v := os.Getenv("SDA_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	setString(&cfg.Rules.Path, "SDA_ENGINE_RULES_PATH")

	setBool(&cfg.Cache.Enabled, "SDA_ENGINE_CACHE_ENABLED")
	setString(&cfg.Cache.Addr, "SDA_ENGINE_CACHE_ADDR")
	setString(&cfg.Cache.Username, "SDA_ENGINE_CACHE_USERNAME")
	setString(&cfg.Cache.Password, "SDA_ENGINE_CACHE_PASSWORD")
	setInt(&cfg.Cache.DB, "SDA_ENGINE_CACHE_DB")
	setBool(&cfg.Cache.TLS, "SDA_ENGINE_CACHE_TLS")
	setDuration(&cfg.Cache.DialTimeout, "SDA_ENGINE_CACHE_DIAL_TIMEOUT")
	setDuration(&cfg.Cache.ReadTimeout, "SDA_ENGINE_CACHE_READ_TIMEOUT")
	setDuration(&cfg.Cache.WriteTimeout, "SDA_ENGINE_CACHE_WRITE_TIMEOUT")
	setInt(&cfg.Cache.MaxRetries, "SDA_ENGINE_CACHE_MAX_RETRIES")
	setInt(&cfg.Cache.LocalSize, "SDA_ENGINE_CACHE_LOCAL_SIZE")
	setDuration(&cfg.Cache.WorkloadTTL, "SDA_ENGINE_CACHE_WORKLOAD_TTL")

	setBool(&cfg.Events.Enabled, "SDA_ENGINE_EVENTS_ENABLED")
	if v := os.Getenv("SDA_ENGINE_KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = splitList(v)
	}
	setString(&cfg.Events.Topic, "SDA_ENGINE_KAFKA_TOPIC")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
