package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type CommonHTTP struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// EventFeedConfig drives the bulk-file (structured events) adapter.
type EventFeedConfig struct {
	BaseURL    string        `yaml:"base_url"` // pointer file + archives live here
	HTTP       CommonHTTP    `yaml:"http"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
	// Enrichment bandwidth: at most EnrichLimit rows per run get a headline
	// fetch, each bounded by EnrichTimeout and EnrichByteBudget.
	EnrichLimit      int           `yaml:"enrich_limit"`
	EnrichTimeout    time.Duration `yaml:"enrich_timeout"`
	EnrichByteBudget int           `yaml:"enrich_byte_budget"`
}

// DocFeedConfig drives the query-API (news signals) adapter.
type DocFeedConfig struct {
	BaseURL    string        `yaml:"base_url"`
	HTTP       CommonHTTP    `yaml:"http"`
	Query      string        `yaml:"query"`
	MaxRecords int           `yaml:"max_records"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

type SourceConfig struct {
	Type      string          `yaml:"type"` // "gdelt_event" | "gdelt_doc"
	EventFeed EventFeedConfig `yaml:"event_feed"`
	DocFeed   DocFeedConfig   `yaml:"doc_feed"`
}

type WebConfig struct {
	Addr string `yaml:"addr"` // e.g. ":8080"
}

type Config struct {
	DB       DBConfig       `yaml:"db"`
	Sources  []SourceConfig `yaml:"sources"`
	Web      WebConfig      `yaml:"web"`
	Interval time.Duration  `yaml:"interval"` // scheduler tick, default 1h
	LogLevel string         `yaml:"log_level"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	c.applyEnv()
	if len(c.Sources) == 0 {
		return c, errors.New("no sources configured")
	}
	for _, s := range c.Sources {
		if s.Type != "gdelt_event" && s.Type != "gdelt_doc" {
			return c, fmt.Errorf("unknown source type: %s", s.Type)
		}
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DB.Host == "" {
		c.DB.Host = "localhost"
	}
	if c.DB.Port == "" {
		c.DB.Port = "5432"
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
}

// applyEnv lets deployment environments override DB credentials without
// touching the config file.
func (c *Config) applyEnv() {
	c.DB.Host = getEnv("DB_HOST", c.DB.Host)
	c.DB.Port = getEnv("DB_PORT", c.DB.Port)
	c.DB.User = getEnv("DB_USER", c.DB.User)
	c.DB.Password = getEnv("DB_PASSWORD", c.DB.Password)
	c.DB.Name = getEnv("DB_NAME", c.DB.Name)
	c.DB.SSLMode = getEnv("DB_SSL_MODE", c.DB.SSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
