// Package config loads the application configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the trading gateway.
type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Broker  Broker  `yaml:"broker"`
	Kite    Kite    `yaml:"kite"`
	Auth    Auth    `yaml:"auth"`
}

// Server holds the HTTP listener configuration.
type Server struct {
	Port string `yaml:"port"`
}

// Storage holds persistence paths.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Broker selects the execution backend and its initial price source.
type Broker struct {
	Mode        string `yaml:"mode"`         // mock, paper or kite
	PriceSource string `yaml:"price_source"` // simulated or external
}

// Kite holds credentials for the Zerodha Kite Connect API. The access token
// must be generated through the Kite login flow and supplied separately.
type Kite struct {
	APIKey      string `yaml:"api_key"`
	APISecret   string `yaml:"api_secret"`
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`
}

// Auth holds the JWT signing secret and the API credentials accepted by the
// token endpoint.
type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server:  Server{Port: "8080"},
		Storage: Storage{SQLitePath: "trading.db"},
		Broker:  Broker{Mode: "mock", PriceSource: "simulated"},
		Auth: Auth{
			JWTSecret: "option-sell-bot-secret",
			APIKey:    "test-api-key",
			APISecret: "test-api-secret",
		},
	}
}

// Load reads the YAML configuration file at path, if it exists, and then
// applies environment variable overrides. A missing file is not an error;
// defaults plus environment values apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Server.Port, "PORT")
	setFromEnv(&c.Storage.SQLitePath, "SQLITE_PATH")
	setFromEnv(&c.Broker.Mode, "BROKER")
	setFromEnv(&c.Broker.PriceSource, "PRICE_SOURCE")
	setFromEnv(&c.Kite.APIKey, "KITE_API_KEY")
	setFromEnv(&c.Kite.APISecret, "KITE_API_SECRET")
	setFromEnv(&c.Kite.AccessToken, "KITE_ACCESS_TOKEN")
	setFromEnv(&c.Auth.JWTSecret, "JWT_SECRET")
	setFromEnv(&c.Auth.APIKey, "API_KEY")
	setFromEnv(&c.Auth.APISecret, "API_SECRET")
}

func (c *Config) validate() error {
	switch c.Broker.Mode {
	case "mock", "paper", "kite":
	default:
		return fmt.Errorf("invalid broker mode %q", c.Broker.Mode)
	}
	switch c.Broker.PriceSource {
	case "simulated", "external":
	default:
		return fmt.Errorf("invalid price source %q", c.Broker.PriceSource)
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
