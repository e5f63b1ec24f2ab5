// Package config loads settings for both binaries: defaults, then an
// optional YAML file, then environment variables. A .env file in the
// working directory is read into the environment first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/familydo/internal/logging"
)

// MemoryStore as the store URL runs the gateway on an in-process store.
const MemoryStore = "memory"

type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

type GatewayConfig struct {
	Port         int           `yaml:"port"`
	StoreURL     string        `yaml:"store_url"`
	StoreTimeout time.Duration `yaml:"store_timeout"`
	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For
	// header is believed.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type StoreConfig struct {
	Port       int    `yaml:"port"`
	DBPath     string `yaml:"db_path"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Level string             `yaml:"level"`
	File  logging.FileConfig `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Port:         8080,
			StoreURL:     "http://localhost:3000",
			StoreTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Port:   3000,
			DBPath: "familydo.db",
		},
		Log: LogConfig{
			Level: "info",
			File:  logging.FileConfig{MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 28},
		},
	}
}

// Load reads .env, then the YAML file named by FAMILYDO_CONFIG if any, then
// the FAMILYDO_* variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := Default()
	if path := os.Getenv("FAMILYDO_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	envOverride(&c.Gateway.StoreURL, "FAMILYDO_STORE_URL")
	envOverride(&c.Store.DBPath, "FAMILYDO_DB_PATH")
	envOverride(&c.Log.Level, "FAMILYDO_LOG_LEVEL")
	envOverride(&c.Log.File.Path, "FAMILYDO_LOG_FILE")

	if err := envOverrideInt(&c.Gateway.Port, "FAMILYDO_PORT"); err != nil {
		return err
	}
	if err := envOverrideInt(&c.Store.Port, "FAMILYDO_STORE_PORT"); err != nil {
		return err
	}
	if v := os.Getenv("FAMILYDO_TRUSTED_PROXIES"); v != "" {
		c.Gateway.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("FAMILYDO_STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FAMILYDO_STORE_TIMEOUT: %w", err)
		}
		c.Gateway.StoreTimeout = d
	}
	return nil
}

func (c *GatewayConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *StoreConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}
