package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
)

type http struct {
	Address     string   `koanf:"address"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`

	Auth httpAuthConfig `koanf:"auth"`
}

type httpAuthConfig struct {
	SecretKey string        `koanf:"secret_key"`
	Issuer    string        `koanf:"issuer"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type storageConfig struct {
	DataDir  string `koanf:"data_dir"`
	InMemory bool   `koanf:"in_memory"`
}

type gitAuthorConfig struct {
	Name  string `koanf:"name"`
	Email string `koanf:"email"`
}

type gitAuthConfig struct {
	HTTPS gitHTTPSAuthConfig `koanf:"https"`
}

type gitHTTPSAuthConfig struct {
	DefaultToken    string `koanf:"default_token"`
	DefaultUsername string `koanf:"default_username"`
}

type gitConfig struct {
	Author gitAuthorConfig `koanf:"author"`
	Auth   gitAuthConfig   `koanf:"auth"`
}

type workspaceConfig struct {
	Root string `koanf:"root"`
}

type operationsConfig struct {
	HistoryLimit int `koanf:"history_limit"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage    storageConfig    `koanf:"storage"`
	Git        gitConfig        `koanf:"git"`
	Workspace  workspaceConfig  `koanf:"workspace"`
	Operations operationsConfig `koanf:"operations"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:3000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},

			Auth: httpAuthConfig{
				Issuer:   "repokit",
				TokenTTL: 24 * time.Hour,
			},
		},

		Storage: storageConfig{
			DataDir: "./data",
		},

		Git: gitConfig{
			Author: gitAuthorConfig{
				Name:  "repokit",
				Email: "repokit@localhost",
			},
		},

		Workspace: workspaceConfig{
			Root: "./repos",
		},

		Operations: operationsConfig{
			HistoryLimit: 100,
		},
	}
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
