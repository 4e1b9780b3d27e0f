// Package config loads the optional YAML configuration of the aftermarket CLI.
// Environment variables override values read from the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"aftermarket/internal/feature/aftermarket/adapters/cnn"
	"aftermarket/internal/platform/calendar"
	"aftermarket/internal/platform/db"
	platformredis "aftermarket/internal/platform/redis"
)

// Config is the root of the YAML file.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Calendar CalendarConfig `yaml:"calendar"`
	Redis    RedisConfig    `yaml:"redis"`
}

// DatabaseConfig selects Postgres, or a local SQLite file when SQLite is set.
type DatabaseConfig struct {
	SQLite       string `yaml:"sqlite"`
	URL          string `yaml:"url"`
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	InstanceName string `yaml:"instance_connection_name"`
}

// ScraperConfig configures the after-hours page scraper.
type ScraperConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// CalendarConfig selects the exchange whose trading days gate the ingest.
type CalendarConfig struct {
	MIC string `yaml:"mic"`
}

// RedisConfig configures the optional query cache.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Load reads path (when non-empty), applies environment overrides and
// defaults, and validates the result. A non-empty sqlite selects a local
// SQLite database regardless of the file.
func Load(path, sqlite string) (*Config, error) {
	cfg, err := read(path, sqlite)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutDatabase is Load for commands that never connect to a
// database: the database section is not required.
func LoadWithoutDatabase(path string) (*Config, error) {
	cfg, err := read(path, "")
	if err != nil {
		return nil, err
	}
	if err := cfg.validateServices(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func read(path, sqlite string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	cfg.applyEnv()
	if sqlite != "" {
		cfg.Database.SQLite = sqlite
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		dst *string
		key string
	}{
		{&c.Database.URL, "DATABASE_URL"},
		{&c.Database.Host, "DB_HOST"},
		{&c.Database.Port, "DB_PORT"},
		{&c.Database.User, "DB_USER"},
		{&c.Database.Password, "DB_PASSWORD"},
		{&c.Database.Name, "DB_NAME"},
		{&c.Database.SSLMode, "DB_SSLMODE"},
		{&c.Database.InstanceName, "INSTANCE_CONNECTION_NAME"},
		{&c.Scraper.URL, "AFTER_MARKET_URL"},
		{&c.Scraper.UserAgent, "AFTER_MARKET_USER_AGENT"},
		{&c.Calendar.MIC, "AFTER_MARKET_MIC"},
		{&c.Redis.Host, "REDIS_HOST"},
		{&c.Redis.Port, "REDIS_PORT"},
		{&c.Redis.Password, "REDIS_PASSWORD"},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("AFTER_MARKET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Scraper.Timeout = d
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = cnn.LoadConfig().Timeout
	}
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = cnn.LoadConfig().UserAgent
	}
	if c.Calendar.MIC == "" {
		c.Calendar.MIC = calendar.DefaultMIC
	}
}

// Validate performs basic configuration validation.
func (c *Config) Validate() error {
	d := c.Database
	if d.SQLite == "" && d.URL == "" {
		if d.Host == "" && d.InstanceName == "" {
			return fmt.Errorf("database host cannot be empty (set DB_HOST, DATABASE_URL or --sqlite)")
		}
		if d.Name == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	}
	return c.validateServices()
}

func (c *Config) validateServices() error {
	if c.Scraper.Timeout < 0 {
		return fmt.Errorf("scraper timeout cannot be negative")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db cannot be negative")
	}
	return nil
}

// DB converts the database section for the db package.
func (c *Config) DB() db.Config {
	d := c.Database
	return db.Config{
		User:         d.User,
		Password:     d.Password,
		Name:         d.Name,
		Host:         d.Host,
		Port:         d.Port,
		SSLMode:      d.SSLMode,
		InstanceName: d.InstanceName,
		URL:          d.URL,
	}
}

// CNN converts the scraper section for the cnn package.
func (c *Config) CNN() cnn.Config {
	return cnn.Config{
		URL:       c.Scraper.URL,
		Timeout:   c.Scraper.Timeout,
		UserAgent: c.Scraper.UserAgent,
	}
}

// RedisClientConfig converts the redis section for the redis package.
func (c *Config) RedisClientConfig() platformredis.Config {
	return platformredis.Config{
		Host:     c.Redis.Host,
		Port:     c.Redis.Port,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}
