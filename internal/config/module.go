package config

import (
	"github.com/go-core-fx/fiberfx"
	"github.com/repokit/repokit/internal/auth"
	"github.com/repokit/repokit/internal/git"
	"github.com/repokit/repokit/internal/operations"
	"github.com/repokit/repokit/internal/workspace"
	"github.com/repokit/repokit/pkg/badgerfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) auth.Config {
			return auth.Config{
				SecretKey: []byte(cfg.HTTP.Auth.SecretKey),
				Issuer:    cfg.HTTP.Auth.Issuer,
				TokenTTL:  cfg.HTTP.Auth.TokenTTL,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:      cfg.Storage.DataDir,
				InMemory: cfg.Storage.InMemory,
			}
		}),
		fx.Provide(func(cfg Config) git.Config {
			return git.Config{
				Author: git.AuthorConfig{
					Name:  cfg.Git.Author.Name,
					Email: cfg.Git.Author.Email,
				},
				Auth: git.AuthConfig{
					HTTPS: git.HTTPSAuthConfig{
						DefaultUsername: cfg.Git.Auth.HTTPS.DefaultUsername,
						DefaultToken:    cfg.Git.Auth.HTTPS.DefaultToken,
					},
				},
			}
		}),
		fx.Provide(func(cfg Config) workspace.Config {
			return workspace.Config{
				Root: cfg.Workspace.Root,
			}
		}),
		fx.Provide(func(cfg Config) operations.Config {
			return operations.Config{
				HistoryLimit: cfg.Operations.HistoryLimit,
			}
		}),
	)
}
