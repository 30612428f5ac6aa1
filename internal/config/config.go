package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config описывает параметры kvadmin.
type Config struct {
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	KV struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		Password       string `yaml:"password"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"kv"`
	API struct {
		BaseURL        string `yaml:"base_url"`
		MinIntervalMS  int    `yaml:"min_interval_ms"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
}

// Default возвращает конфигурацию по умолчанию
// (адреса тестового окружения).
func Default() Config {
	var cfg Config
	cfg.Log.Level = "info"
	cfg.KV.Host = "127.0.0.1"
	cfg.KV.Port = 5556
	cfg.KV.TimeoutSeconds = 5
	cfg.API.BaseURL = "http://127.0.0.1:5554"
	cfg.API.MinIntervalMS = 1100
	cfg.API.TimeoutSeconds = 5
	cfg.SQLite.Path = "/var/lib/kvadmin/audit.db"
	return cfg
}

// Load читает конфиг из файла YAML, поверх значений по умолчанию.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- путь к конфигу задается оператором.
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("config file is empty")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// KVTimeout возвращает таймаут KV-соединения как Duration.
func (c Config) KVTimeout() time.Duration {
	return time.Duration(c.KV.TimeoutSeconds) * time.Second
}

// APITimeout возвращает таймаут HTTP-запросов как Duration.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// APIMinInterval возвращает минимальный интервал между запросами к API.
func (c Config) APIMinInterval() time.Duration {
	return time.Duration(c.API.MinIntervalMS) * time.Millisecond
}
