package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	Upstream    UpstreamConfig    `yaml:"upstream"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Logging     LoggingConfig     `yaml:"logging"`
	Tracing     TracingConfig     `yaml:"tracing"`
	FlightBoard FlightBoardConfig `yaml:"flightboard"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	BoardUpdatedTopicName string `yaml:"board_updated_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// UpstreamConfig describes the remote airports/flights service.
// An empty BaseURL switches the binaries to the in-memory fake.
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	LocationsPath  string `yaml:"locations_path"`  // default "/locations"
	MovementsPath  string `yaml:"movements_path"`  // default "/movements"
	MovementsKey   string `yaml:"movements_key"`   // list key of the non-"content" page shape, default "flights"
	PageSize       int    `yaml:"page_size"`       // default 20
	TimeoutSeconds int    `yaml:"timeout_seconds"` // default 10
}

// ClassifierConfig maps raw movement states to presentation categories.
// When States is empty the built-in mapping covering both known enumerations is used.
type ClassifierConfig struct {
	States map[string]string `yaml:"states"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
	Console  *bool  `yaml:"console"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type FlightBoardConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	// Resolve board movements against the full airport list (one extra concurrent call).
	BoardFullResolution bool `yaml:"board_full_resolution"`

	WorkerHTTPAddr            string   `yaml:"worker_http_addr"`
	WorkerWatchLocationIDs    []string `yaml:"worker_watch_location_ids"`
	WorkerWatchMovementPages  int      `yaml:"worker_watch_movement_pages"`
	WorkerPollIntervalSeconds int      `yaml:"worker_poll_interval_seconds"`
	WorkerConcurrency         int      `yaml:"worker_concurrency"`
	WorkerRateLimitPerMinute  int      `yaml:"worker_rate_limit_per_minute"`
	WorkerDigestTTLSeconds    int      `yaml:"worker_digest_ttl_seconds"`

	// Refresh scheduling (optional). Defaults: active boards 1 minute, quiet boards 5 minutes,
	// failure backoff 30s/1m/2m/5m.
	WorkerActiveRefreshSeconds int `yaml:"worker_active_refresh_seconds"`
	WorkerQuietRefreshSeconds  int `yaml:"worker_quiet_refresh_seconds"`
	WorkerBackoff1Seconds      int `yaml:"worker_backoff_1_seconds"`
	WorkerBackoff2Seconds      int `yaml:"worker_backoff_2_seconds"`
	WorkerBackoff3Seconds      int `yaml:"worker_backoff_3_seconds"`
	WorkerBackoff4Seconds      int `yaml:"worker_backoff_4_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// PostgresDSN builds a pgx connection string, defaulting sslmode to "disable".
func (c DatabaseConfig) PostgresDSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

func (c KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Host, c.Port)}
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
