// Package config holds the service configuration loaded from the
// environment.
package config

import (
	"fmt"

	pkgconfig "github.com/prismcart/search/pkg/config"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"search"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8084"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Engine selects the index implementation: elasticsearch or memory.
	Engine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	ElasticsearchURL      string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchUser     string `env:"ELASTICSEARCH_USER"`
	ElasticsearchPassword string `env:"ELASTICSEARCH_PASSWORD"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`

	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSample    float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`

	// Combined-autocomplete tuning.
	SuggestPhrasePrefixBoost float64 `env:"SUGGEST_PHRASE_PREFIX_BOOST" envDefault:"3.0"`
	SuggestAndMatchBoost     float64 `env:"SUGGEST_AND_MATCH_BOOST" envDefault:"2.0"`
	SuggestFuzzyBoost        float64 `env:"SUGGEST_FUZZY_BOOST" envDefault:"1.0"`
	SuggestViewsFactor       float64 `env:"SUGGEST_VIEWS_FACTOR" envDefault:"0.1"`
	SuggestSoldFactor        float64 `env:"SUGGEST_SOLD_FACTOR" envDefault:"0.2"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.Engine != "elasticsearch" && c.Engine != "memory" {
		return fmt.Errorf("invalid SEARCH_ENGINE %q", c.Engine)
	}
	return nil
}
