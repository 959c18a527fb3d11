package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server ServerConfig
	MySQL  MySQLConfig
	Redis  RedisConfig
	Cache  CacheConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// MySQLConfig holds connection pool settings for the durable store.
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds settings for the stock read cache.
type RedisConfig struct {
	Addr     string
	PoolSize int
}

// CacheConfig controls read-side caching behavior.
type CacheConfig struct {
	StockTTL time.Duration
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from
		// the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN: getenvWithDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/stockroom?parseTime=true"),
		},
		Redis: RedisConfig{
			Addr: getenvWithDefault("REDIS_ADDR", "localhost:6379"),
		},
	}

	var err error
	if cfg.Server.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.MySQL.MaxOpenConns, err = getenvInt("MYSQL_MAX_OPEN_CONNS", 50); err != nil {
		return nil, err
	}
	if cfg.MySQL.MaxIdleConns, err = getenvInt("MYSQL_MAX_IDLE_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.MySQL.ConnMaxLifetime, err = getenvDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Redis.PoolSize, err = getenvInt("REDIS_POOL_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.Cache.StockTTL, err = getenvDuration("STOCK_CACHE_TTL", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.MySQL.DSN == "" {
		return errors.New("MYSQL_DSN must be provided")
	}
	if c.MySQL.MaxOpenConns <= 0 {
		return errors.New("MYSQL_MAX_OPEN_CONNS must be positive")
	}
	if c.Cache.StockTTL <= 0 {
		return errors.New("STOCK_CACHE_TTL must be positive")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
