package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds feed client settings loaded from the YAML config file.
type Config struct {
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	Email     string `mapstructure:"email" yaml:"email"`
	Token     string `mapstructure:"token" yaml:"token"`

	PingIntervalSec   int `mapstructure:"ping_interval_sec" yaml:"ping_interval_sec"`
	ReconnectDelaySec int `mapstructure:"reconnect_delay_sec" yaml:"reconnect_delay_sec"`
}

// DefaultConfigPath is ~/.config/stitchworks/feed.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "feed.yaml")
	}
	return filepath.Join(home, ".config", "stitchworks", "feed.yaml")
}

func defaultConfig() *Config {
	return &Config{
		ServerURL:         "http://localhost:8080",
		PingIntervalSec:   30,
		ReconnectDelaySec: 5,
	}
}

// LoadConfig reads the client config with Viper. A missing file yields
// defaults; flags override afterwards.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("ping_interval_sec", 30)
	v.SetDefault("reconnect_delay_sec", 5)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSec) * time.Second
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelaySec) * time.Second
}
