// Package config loads the page cache service settings from an optional file
// and PAGECACHE_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "PAGECACHE"

type Config struct {
	// TTL is how long a cached page may be served after it was written.
	TTL time.Duration `mapstructure:"ttl"`

	// CacheLimit is the maximum number of records kept across all pages.
	CacheLimit int `mapstructure:"cache_limit"`

	// SweepInterval overrides the background sweep period. Zero means TTL/2.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// Deduplicate makes concurrent misses on one page share a single API call.
	Deduplicate bool `mapstructure:"deduplicate"`

	API API `mapstructure:"api"`

	Listen   string `mapstructure:"listen"`
	LogJSON  bool   `mapstructure:"log_json"`
	LogLevel string `mapstructure:"log_level"`
}

// API is the remote record API the cache loads from.
type API struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ttl", 5*time.Minute)
	v.SetDefault("cache_limit", 1000)
	v.SetDefault("sweep_interval", 0)
	v.SetDefault("deduplicate", false)
	v.SetDefault("api.base_url", "http://localhost:3001/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("listen", ":8080")
	v.SetDefault("log_json", false)
	v.SetDefault("log_level", "info")
}

// Load reads the config file at path, if path is not empty, then applies
// environment overrides such as PAGECACHE_TTL or PAGECACHE_API_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return errors.Errorf("ttl must be positive, got %s", c.TTL)
	}
	if c.CacheLimit <= 0 {
		return errors.Errorf("cache_limit must be positive, got %d", c.CacheLimit)
	}
	if c.SweepInterval < 0 {
		return errors.Errorf("sweep_interval must not be negative, got %s", c.SweepInterval)
	}
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return errors.Wrap(err, "log_level")
		}
	}
	return nil
}

// Level is LogLevel parsed; empty means info.
func (c *Config) Level() zapcore.Level {
	l, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// EffectiveSweepInterval is SweepInterval, or half the TTL when unset.
func (c *Config) EffectiveSweepInterval() time.Duration {
	if c.SweepInterval > 0 {
		return c.SweepInterval
	}
	return c.TTL / 2
}
