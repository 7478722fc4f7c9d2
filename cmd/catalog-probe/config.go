package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/catalog-probe/pkg/logging"
	"github.com/Sternrassler/catalog-probe/pkg/pool"
	"github.com/Sternrassler/catalog-probe/pkg/probe"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved CLI configuration.
// Precedence: defaults, YAML file, .env and environment, flags.
type Config struct {
	// Pool
	Workers   int    `yaml:"workers"`
	BatchSize int    `yaml:"batch_size"`
	Strategy  string `yaml:"strategy"`

	// Catalog
	BaseURL      string        `yaml:"base_url"`
	PathTemplate string        `yaml:"path_template"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RateLimit    float64       `yaml:"rate_limit"`

	// Result cache (disabled when RedisURL is empty)
	RedisURL    string        `yaml:"redis_url"`
	PositiveTTL time.Duration `yaml:"positive_ttl"`
	NegativeTTL time.Duration `yaml:"negative_ttl"`

	// Observability
	LogLevel    string `yaml:"log_level"`
	LogPretty   bool   `yaml:"log_pretty"`
	MetricsAddr string `yaml:"metrics_addr"`
}

func defaultConfig() Config {
	poolCfg := pool.DefaultConfig()
	probeCfg := probe.DefaultConfig()

	return Config{
		Workers:      poolCfg.Workers,
		BatchSize:    poolCfg.BatchSize,
		Strategy:     poolCfg.Strategy.String(),
		BaseURL:      probeCfg.BaseURL,
		PathTemplate: probeCfg.PathTemplate,
		UserAgent:    probeCfg.UserAgent,
		Timeout:      probeCfg.Timeout,
		MaxAttempts:  probeCfg.Retry.MaxAttempts,
		RateLimit:    probeCfg.RateLimit,
		PositiveTTL:  probeCfg.PositiveTTL,
		NegativeTTL:  probeCfg.NegativeTTL,
		LogLevel:     string(logging.LevelInfo),
	}
}

// loadConfig resolves defaults, the optional YAML file and the environment.
// A missing env file is not an error.
func loadConfig(path, envFile string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from CATALOG_* variables and REDIS_URL.
func applyEnv(cfg *Config) error {
	var err error

	if cfg.Workers, err = getEnvInt("CATALOG_WORKERS", cfg.Workers); err != nil {
		return err
	}
	if cfg.BatchSize, err = getEnvInt("CATALOG_BATCH_SIZE", cfg.BatchSize); err != nil {
		return err
	}
	cfg.Strategy = getEnv("CATALOG_STRATEGY", cfg.Strategy)

	cfg.BaseURL = getEnv("CATALOG_BASE_URL", cfg.BaseURL)
	cfg.PathTemplate = getEnv("CATALOG_PATH_TEMPLATE", cfg.PathTemplate)
	cfg.UserAgent = getEnv("CATALOG_USER_AGENT", cfg.UserAgent)
	if cfg.Timeout, err = getEnvDuration("CATALOG_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}
	if cfg.MaxAttempts, err = getEnvInt("CATALOG_MAX_ATTEMPTS", cfg.MaxAttempts); err != nil {
		return err
	}
	if cfg.RateLimit, err = getEnvFloat("CATALOG_RATE_LIMIT", cfg.RateLimit); err != nil {
		return err
	}

	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	if cfg.PositiveTTL, err = getEnvDuration("CATALOG_POSITIVE_TTL", cfg.PositiveTTL); err != nil {
		return err
	}
	if cfg.NegativeTTL, err = getEnvDuration("CATALOG_NEGATIVE_TTL", cfg.NegativeTTL); err != nil {
		return err
	}

	cfg.LogLevel = getEnv("CATALOG_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = getEnv("CATALOG_METRICS_ADDR", cfg.MetricsAddr)
	return nil
}

// poolConfig converts the CLI settings for pool.New.
func (c Config) poolConfig() (pool.Config, error) {
	strategy, err := pool.ParseStrategy(c.Strategy)
	if err != nil {
		return pool.Config{}, err
	}
	cfg := pool.Config{
		Workers:   c.Workers,
		BatchSize: c.BatchSize,
		Strategy:  strategy,
	}
	return cfg, cfg.Validate()
}

// probeConfig converts the CLI settings for probe.New. The cache is wired
// separately.
func (c Config) probeConfig() probe.Config {
	cfg := probe.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.PathTemplate = c.PathTemplate
	cfg.UserAgent = c.UserAgent
	cfg.Timeout = c.Timeout
	cfg.Retry.MaxAttempts = c.MaxAttempts
	cfg.RateLimit = c.RateLimit
	cfg.PositiveTTL = c.PositiveTTL
	cfg.NegativeTTL = c.NegativeTTL
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
