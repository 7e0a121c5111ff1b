package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Device DeviceConfig `yaml:"device"`
	Auth   AuthConfig   `yaml:"auth"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"DRAFTROOM_SERVER_HOST"`
	Port int    `yaml:"port" env:"DRAFTROOM_SERVER_PORT"`
}

// StoreConfig locates the shared relational store.
type StoreConfig struct {
	Path string `yaml:"path" env:"DRAFTROOM_STORE_PATH"`
}

// DeviceConfig locates the device-local state database.
type DeviceConfig struct {
	Path string `yaml:"path" env:"DRAFTROOM_DEVICE_PATH"`
}

// AuthConfig carries the shared secret for verifying provider session
// tokens.
type AuthConfig struct {
	Secret string `yaml:"secret" env:"DRAFTROOM_AUTH_SECRET"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"DRAFTROOM_LOG_LEVEL"`
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Store: StoreConfig{
			Path: "draftroom.db",
		},
		Device: DeviceConfig{
			Path: "device.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("DRAFTROOM_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
