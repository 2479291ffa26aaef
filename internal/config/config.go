package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines engine configuration.
type Config struct {
	DB  DBConfig  `yaml:"db"`
	Log LogConfig `yaml:"log"`
	Tx  TxConfig  `yaml:"tx"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TxConfig struct {
	Timeout string `yaml:"timeout"`
}

// Load reads configuration from an optional YAML file and environment
// variables.
func Load() (Config, error) {
	cfg := Config{
		DB:  DBConfig{Path: "depot.db"},
		Log: LogConfig{Level: "info"},
		Tx:  TxConfig{Timeout: "5s"},
	}

	if path := os.Getenv("DEPOT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dbPath := os.Getenv("DEPOT_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("DEPOT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if timeout := os.Getenv("DEPOT_TX_TIMEOUT"); timeout != "" {
		cfg.Tx.Timeout = timeout
	}

	if _, err := time.ParseDuration(cfg.Tx.Timeout); err != nil {
		return Config{}, fmt.Errorf("invalid tx timeout %q: %w", cfg.Tx.Timeout, err)
	}

	return cfg, nil
}

// TxTimeout returns the validated transaction deadline.
func (c Config) TxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Tx.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
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
