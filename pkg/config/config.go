package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig describes one retailer's catalog.
type StoreConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Backend string `yaml:"backend"` // file or clickhouse
	// Locations are candidate catalog paths probed in order (file backend).
	Locations []string `yaml:"locations"`
	// Table is the warehouse table holding the exported catalog
	// (clickhouse backend).
	Table string `yaml:"table"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Stores  []StoreConfig `yaml:"stores"`
	Catalog struct {
		MinFileBytes int64         `yaml:"min_file_bytes"`
		MinPrice     float64       `yaml:"min_price"`
		MaxPrice     float64       `yaml:"max_price"`
		StoreTimeout time.Duration `yaml:"store_timeout"`
		SnapshotTTL  time.Duration `yaml:"snapshot_ttl"`
	} `yaml:"catalog"`
	Matcher struct {
		StopWords      []string `yaml:"stop_words"`
		FallbackMaxLen int      `yaml:"fallback_max_len"`
	} `yaml:"matcher"`
	Radar struct {
		GapThreshold      float64 `yaml:"gap_threshold"`
		DiscountThreshold float64 `yaml:"discount_threshold"`
		GapWeight         float64 `yaml:"gap_weight"`
	} `yaml:"radar"`
	Broadcast struct {
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
		ObserverBuffer    int           `yaml:"observer_buffer"`
		PublishRPS        float64       `yaml:"publish_rps"`
		PublishBurst      float64       `yaml:"publish_burst"`
	} `yaml:"broadcast"`
	Kafka struct {
		Enabled    bool          `yaml:"enabled"`
		Brokers    []string      `yaml:"brokers"`
		Topic      string        `yaml:"topic"`
		GroupID    string        `yaml:"group_id"`
		Workers    int           `yaml:"workers"`
		BufferSize int           `yaml:"buffer_size"`
		RetryMax   int           `yaml:"retry_max"`
		BackoffMin time.Duration `yaml:"backoff_min"`
		BackoffMax time.Duration `yaml:"backoff_max"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Catalog.MinFileBytes == 0 {
		c.Catalog.MinFileBytes = 256
	}
	if c.Catalog.MinPrice == 0 {
		c.Catalog.MinPrice = 500
	}
	if c.Catalog.MaxPrice == 0 {
		c.Catalog.MaxPrice = 40_000_000
	}
	if c.Catalog.StoreTimeout == 0 {
		c.Catalog.StoreTimeout = 5 * time.Second
	}
	if c.Catalog.SnapshotTTL == 0 {
		c.Catalog.SnapshotTTL = 30 * time.Second
	}
	if c.Matcher.FallbackMaxLen == 0 {
		c.Matcher.FallbackMaxLen = 30
	}
	if c.Radar.GapThreshold == 0 {
		c.Radar.GapThreshold = 12
	}
	if c.Radar.DiscountThreshold == 0 {
		c.Radar.DiscountThreshold = 35
	}
	if c.Radar.GapWeight == 0 {
		c.Radar.GapWeight = 1.5
	}
	if c.Broadcast.HeartbeatInterval == 0 {
		c.Broadcast.HeartbeatInterval = 15 * time.Second
	}
	if c.Broadcast.ObserverBuffer == 0 {
		c.Broadcast.ObserverBuffer = 64
	}
	if c.Broadcast.PublishRPS == 0 {
		c.Broadcast.PublishRPS = 10
	}
	if c.Broadcast.PublishBurst == 0 {
		c.Broadcast.PublishBurst = 20
	}
	if c.Kafka.Workers == 0 {
		c.Kafka.Workers = 1
	}
	if c.Kafka.BufferSize == 0 {
		c.Kafka.BufferSize = 64
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "priceradar"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Stores) == 0 {
		return fmt.Errorf("stores cannot be empty")
	}
	needsClickHouse := false
	for i, s := range c.Stores {
		if s.ID == "" {
			return fmt.Errorf("stores[%d].id is required", i)
		}
		switch s.Backend {
		case "", "file":
			if len(s.Locations) == 0 {
				return fmt.Errorf("stores[%d] (%s): file backend requires locations", i, s.ID)
			}
		case "clickhouse":
			if s.Table == "" {
				return fmt.Errorf("stores[%d] (%s): clickhouse backend requires table", i, s.ID)
			}
			needsClickHouse = true
		default:
			return fmt.Errorf("stores[%d] (%s): backend must be 'file' or 'clickhouse', got '%s'", i, s.ID, s.Backend)
		}
	}
	if needsClickHouse && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when a store uses the clickhouse backend")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	return nil
}

// DisplayName returns the store's display name, falling back to its ID.
func (s StoreConfig) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}
