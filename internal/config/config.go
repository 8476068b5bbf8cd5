package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// UpstreamConfig identifies the origin requests are resolved against
type UpstreamConfig struct {
	Origin string `yaml:"origin"`
}

// CacheConfig contains cache-related configuration
type CacheConfig struct {
	// DB is the SQLite file holding all cache generations
	DB string `yaml:"db"`
	// Version is the current cache version; bump it on deploy
	Version string `yaml:"version"`
	// APIPrefix marks routes excluded from caching
	APIPrefix string `yaml:"api_prefix"`
	// Precache lists paths warmed at install time
	Precache []string `yaml:"precache"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Set defaults
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Cache.DB == "" {
		config.Cache.DB = "cache.db"
	}
	if config.Cache.APIPrefix == "" {
		config.Cache.APIPrefix = "/api/"
	}

	return &config, nil
}

// OriginURL parses and returns the upstream origin URL
func (c *Config) OriginURL() (*url.URL, error) {
	return url.Parse(c.Upstream.Origin)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Upstream.Origin == "" {
		return fmt.Errorf("upstream origin is required")
	}

	origin, err := c.OriginURL()
	if err != nil {
		return fmt.Errorf("invalid upstream origin: %w", err)
	}
	if origin.Scheme != "http" && origin.Scheme != "https" {
		return fmt.Errorf("upstream origin must be http or https, got: %s", c.Upstream.Origin)
	}

	if c.Cache.Version == "" {
		return fmt.Errorf("cache version is required")
	}

	if c.Cache.DB == "" {
		return fmt.Errorf("cache db path is required")
	}

	return nil
}
