// Package daemon wires the storage, payment, auth and web services together.
package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kandinsky-studio/design-shop/internal/auth"
	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/credentials"
	"github.com/kandinsky-studio/design-shop/internal/db"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/payment"
	"github.com/kandinsky-studio/design-shop/internal/uniuri"
	"github.com/kandinsky-studio/design-shop/internal/web"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
}

// Start serves http until a termination signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))

	if sqlDB, errDB := d.db.DB(); errDB == nil {
		if errDB = sqlDB.Close(); errDB != nil {
			log.Error().Err(errDB).Msg("failed to close database")
		}
	}

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil, nil
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = db.Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err = seed(ctx, conn); err != nil {
		return nil, err
	}

	resolver := credentials.NewResolver(conn, cfg.Stripe)

	tokens, err := newTokenIssuer(cfg)
	if err != nil {
		return nil, err
	}

	logins, err := newLoginChain(cfg)
	if err != nil {
		return nil, err
	}

	deps := &handler.Deps{
		DB:          conn,
		Lifecycle:   lifecycle.New(conn, payment.New(resolver, cfg)),
		Credentials: resolver,
		Tokens:      tokens,
		Logins:      logins,
	}

	if cfg.Auth.OIDC.Enabled {
		provider, errOIDC := auth.NewOIDCProvider(ctx, cfg.Auth.OIDC)
		if errOIDC != nil {
			// keep serving the shop, only oidc login is unavailable
			log.Warn().Err(errOIDC).Msg("failed to initialize OIDC provider, OIDC login is disabled")
		} else {
			deps.OIDC = provider

			log.Info().Msg("OIDC authentication provider initialized")
		}
	}

	webService, err := web.New(cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		db:         conn,
		webService: webService,
	}, nil
}

// newTokenIssuer signs with the configured secret. Without one a random
// secret is used and tokens do not survive a restart.
func newTokenIssuer(cfg *config.Config) (*auth.TokenIssuer, error) {
	secret := cfg.Auth.TokenSecret
	if secret == "" {
		log.Warn().Msg("auth.tokenSecret is empty, using a random secret: admin tokens are lost on restart")

		secret = uniuri.NewLen(uniuri.SecretLen)
	}

	return auth.NewTokenIssuer([]byte(secret), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
}

// newLoginChain builds the enabled credential providers, local first.
func newLoginChain(cfg *config.Config) (auth.Chain, error) {
	var chain auth.Chain

	if cfg.Auth.Local.Enabled {
		local, err := auth.NewLocalProvider(cfg.Auth.Local)
		if err != nil {
			return nil, err
		}

		if cfg.Auth.Local.PasswordHash == "" {
			log.Warn().Msg("admin password is configured in plain text, use hash-password for production")
		}

		chain = append(chain, local)
	}

	if cfg.Auth.LDAP.Enabled {
		ldapProvider, err := auth.NewLDAPProvider(cfg.Auth.LDAP)
		if err != nil {
			return nil, err
		}

		chain = append(chain, ldapProvider)
	}

	if len(chain) == 0 && !cfg.Auth.OIDC.Enabled {
		log.Warn().Msg("no admin login method is enabled, the admin api is unreachable")
	}

	return chain, nil
}
