// Package config loads engine configuration from YAML with environment
// overrides.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig  `koanf:"server"`
	Storage  StorageConfig `koanf:"storage"`
	Plugins  PluginsConfig `koanf:"plugins"`
	Tracing  TracingConfig `koanf:"tracing"`
	Template TemplateConfig `koanf:"template"`
}

type ServerConfig struct {
	Port    int    `koanf:"port"`
	Host    string `koanf:"host"`
	Message string `koanf:"message"`

	ReadTimeoutSeconds  int `koanf:"read_timeout_seconds"`
	WriteTimeoutSeconds int `koanf:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `koanf:"idle_timeout_seconds"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, sqlite
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type PluginsConfig struct {
	CORS       CORSConfig       `koanf:"cors"`
	BodyParser BodyParserConfig `koanf:"body_parser"`
	Proxy      ProxyConfig      `koanf:"proxy"`
}

type CORSConfig struct {
	Enabled bool     `koanf:"enabled"`
	Origin  string   `koanf:"origin"`
	Methods []string `koanf:"methods"`
	Headers []string `koanf:"headers"`
	MaxAge  int      `koanf:"max_age"`
}

type BodyParserConfig struct {
	Enabled bool     `koanf:"enabled"`
	Limit   int64    `koanf:"limit"`
	Types   []string `koanf:"types"`
}

type ProxyConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Path           string `koanf:"path"`
	Upstream       string `koanf:"upstream"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

type TracingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Service string `koanf:"service"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

// Load reads the named YAML file, if present, then applies RELAY_
// environment overrides (RELAY_SERVER__PORT maps to server.port).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("RELAY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "RELAY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
