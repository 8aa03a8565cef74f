package core

import (
	"strings"
	"time"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
)

type Database struct {
	Path string `config:"path"`
}

type Auth struct {
	Secret   string `config:"secret"`
	TokenTTL string `config:"token_ttl"`
}

type Config struct {
	Addr     string   `config:"addr"`
	Database Database `config:"database"`
	Auth     Auth     `config:"auth"`
}

// TokenTTL parses the configured credential lifetime, defaulting to the
// original five hours.
func (c *Config) TokenTTL() time.Duration {
	ttl, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil || ttl <= 0 {
		return 5 * time.Hour
	}

	return ttl
}

func NewConfig(path string) (*Config, error) {
	var appConfig Config

	config.WithOptions(func(opt *config.Options) {
		opt.ParseEnv = true
		opt.DecoderConfig.TagName = "config"
	})

	config.AddDriver(yaml.Driver)

	if err := config.LoadFiles(path); err != nil {
		return nil, err
	}

	if err := config.LoadExists(strings.Replace(path, ".yml", ".local.yml", 1)); err != nil {
		return nil, err
	}

	if err := config.BindStruct("", &appConfig); err != nil {
		return nil, err
	}

	return &appConfig, nil
}
