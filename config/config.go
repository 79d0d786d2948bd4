package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Providers ProvidersConfig `yaml:"providers"`
	Refresh   RefreshConfig   `yaml:"refresh"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type ProvidersConfig struct {
	AviationStack AviationStackConfig `yaml:"aviationstack"`
	OpenSky       OpenSkyConfig       `yaml:"opensky"`
}

type AviationStackConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessKey      string `yaml:"access_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type OpenSkyConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RefreshConfig struct {
	IntervalMinutes    int  `yaml:"interval_minutes"`
	BackoffBaseSeconds int  `yaml:"backoff_base_seconds"`
	MaxRetries         int  `yaml:"max_retries"`
	Concurrency        int  `yaml:"concurrency"`
	CacheTTLSeconds    int  `yaml:"cache_ttl_seconds"`
	SeedDemo           bool `yaml:"seed_demo"`

	// Aircraft maps a flight number to the icao24 transponder address
	// used for position lookups. Flights without an entry never query
	// the position provider.
	Aircraft map[string]string `yaml:"aircraft"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Providers.AviationStack.BaseURL == "" {
		c.Providers.AviationStack.BaseURL = "https://api.aviationstack.com/v1"
	}
	if c.Providers.AviationStack.TimeoutSeconds == 0 {
		c.Providers.AviationStack.TimeoutSeconds = 30
	}
	if c.Providers.OpenSky.BaseURL == "" {
		c.Providers.OpenSky.BaseURL = "https://opensky-network.org/api"
	}
	if c.Providers.OpenSky.TimeoutSeconds == 0 {
		c.Providers.OpenSky.TimeoutSeconds = 30
	}
	if c.Refresh.IntervalMinutes == 0 {
		c.Refresh.IntervalMinutes = 15
	}
	if c.Refresh.BackoffBaseSeconds == 0 {
		c.Refresh.BackoffBaseSeconds = 30
	}
	if c.Refresh.MaxRetries == 0 {
		c.Refresh.MaxRetries = 5
	}
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = 4
	}
	if c.Refresh.CacheTTLSeconds == 0 {
		c.Refresh.CacheTTLSeconds = 60
	}
}
