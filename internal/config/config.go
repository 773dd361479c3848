// Package config loads runtime settings with viper: defaults, an optional
// sadsa.yaml in the working directory, and SADSA_-prefixed environment
// variables (highest priority, e.g. SADSA_DATABASE_HOST).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type Config struct {
	Database        DatabaseConfig `mapstructure:"database"`
	Server          ServerConfig   `mapstructure:"server"`
	HolidayCacheTTL time.Duration  `mapstructure:"holiday_cache_ttl"`
}

// Load reads sadsa.yaml (if present) and the environment into a Config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "sadsa")
	v.SetDefault("database.password", "sadsa")
	v.SetDefault("database.name", "sadsa")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("server.port", "8080")
	v.SetDefault("holiday_cache_ttl", time.Hour)

	v.SetConfigName("sadsa")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SADSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}
