package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database    DatabaseConfig
	Environment string
}

// DatabaseConfig holds persistence settings. URL is the connection
// descriptor: "sqlite:<path>" for the embedded engine or a
// postgresql://... URI for the cloud engine.
type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// Production reports whether the process runs in production mode, which
// tightens TLS on the cloud backend and arms the cloud retry in the
// fallback chain.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from file and env. Env var overrides use prefix
// CAMPAIGN_; DATABASE_URL is honoured directly because deployment platforms
// inject it under that name.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.url", "sqlite:./campaign.db")
	v.SetDefault("database.migrations_path", "")
	v.SetDefault("environment", "development")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CAMPAIGN_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "campaigndb"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CAMPAIGN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("database.url", "CAMPAIGN_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("environment", "CAMPAIGN_ENVIRONMENT", "NODE_ENV", "APP_ENV")

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
