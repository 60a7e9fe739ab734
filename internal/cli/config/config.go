package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/apolon-health/apolon/internal/logging"
	"github.com/apolon-health/apolon/internal/orm/connection"
	"github.com/apolon-health/apolon/internal/orm/transaction"
)

// Config represents the Apolon configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      logging.Config `mapstructure:"log"`
	Migrate  MigrateConfig  `mapstructure:"migrate"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

// MigrateConfig represents migration runner configuration
type MigrateConfig struct {
	Isolation string     `mapstructure:"isolation"`
	Lock      LockConfig `mapstructure:"lock"`
}

// LockConfig configures the optional Redis migration lock. An empty
// RedisURL disables locking.
type LockConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Options returns the pool settings of the database section
func (d DatabaseConfig) Options() connection.Options {
	return connection.Options{
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		PingTimeout:     d.PingTimeout,
	}
}

// Load loads the configuration from apolon.yml or apolon.yaml in the working
// directory, overridden by APOLON_* environment variables
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load reading an explicit config file when path is not empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	defaults := connection.DefaultOptions()
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", defaults.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaults.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", defaults.ConnMaxLifetime)
	v.SetDefault("database.ping_timeout", defaults.PingTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("migrate.isolation", "read committed")
	v.SetDefault("migrate.lock.redis_url", "")
	v.SetDefault("migrate.lock.key", "apolon:migrate:lock")
	v.SetDefault("migrate.lock.ttl", time.Minute)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("apolon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("APOLON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.URL = url
	}

	return &config, nil
}

// Validate checks the settings needed to reach the database
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required (set DATABASE_URL or database.url in apolon.yaml)")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive, got: %d", c.Database.MaxOpenConns)
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must not be negative, got: %d", c.Database.MaxIdleConns)
	}
	if _, err := transaction.ParseIsolationLevel(c.Migrate.Isolation); err != nil {
		return fmt.Errorf("migrate.isolation: %w", err)
	}
	if c.Migrate.Lock.RedisURL != "" && c.Migrate.Lock.TTL <= 0 {
		return fmt.Errorf("migrate.lock.ttl must be positive, got: %s", c.Migrate.Lock.TTL)
	}
	return nil
}
