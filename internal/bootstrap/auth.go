package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/vrnd369/theubc-admin-api/config"
	"github.com/vrnd369/theubc-admin-api/internal/adapters/authroles"
	"github.com/vrnd369/theubc-admin-api/internal/adapters/oidc"
	"github.com/vrnd369/theubc-admin-api/internal/adapters/passwordauth"
	postgresadapter "github.com/vrnd369/theubc-admin-api/internal/adapters/postgres"
	redisadapter "github.com/vrnd369/theubc-admin-api/internal/adapters/redis"
	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	obserrors "github.com/vrnd369/theubc-admin-api/internal/observability/errors"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
	"github.com/vrnd369/theubc-admin-api/internal/service"
)

// AuthDeps contains dependencies for building the auth service.
type AuthDeps struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger

	// OnSessionExpired surfaces the inactivity-timeout notice to the client
	// layer. Optional.
	OnSessionExpired func(message string)
}

// BuildAuthService wires the identity provider, profile store, resolver, and
// composition root based on the configured auth mode.
//
//nolint:ireturn // the IdentitySource interface is what HTTP handlers consume.
func BuildAuthService(deps AuthDeps) (*service.AuthService, ports.IdentitySource, error) {
	if deps.DB == nil {
		return nil, nil, errors.New("auth service requires a database connection")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	identity, err := buildIdentitySource(deps.Auth, logger)
	if err != nil {
		return nil, nil, err
	}

	serverStore := postgresadapter.NewProfileStore(deps.DB)
	var profiles ports.ProfileStore
	if deps.RedisClient != nil {
		profiles = redisadapter.NewCachingProfileStore(serverStore, deps.RedisClient, deps.Auth.ProfileCacheTTL, logger)
	} else {
		logger.Warn("redis not configured: profile cache fallback disabled")
		profiles = serverOnlyStore{serverStore}
	}

	roles := authroles.StaticNormalizer{}

	resolver := service.NewSessionResolver(service.SessionResolverOptions{
		Profiles:        profiles,
		Identity:        identity,
		Roles:           roles,
		PrivilegedEmail: deps.Auth.PrivilegedEmail,
		Logger:          logger,
	})

	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Identity:         identity,
		Resolver:         resolver,
		Roles:            roles,
		Audit:            postgresadapter.NewAuditLog(deps.DB),
		IdleTimeout:      deps.Auth.IdleTimeout,
		PollInterval:     deps.Auth.RoutePollInterval,
		OnSessionExpired: deps.OnSessionExpired,
		Logger:           logger,
	})

	return authSvc, identity, nil
}

//nolint:ireturn // mode selection decides the concrete provider at runtime.
func buildIdentitySource(cfg config.AuthConfig, logger *slog.Logger) (ports.IdentitySource, error) {
	switch cfg.Mode {
	case config.AuthModeOIDC:
		if cfg.OIDC.DiscoveryURL == "" || cfg.OIDC.ClientID == "" || cfg.OIDC.ClientSecret == "" {
			return nil, errors.New("oidc auth mode selected but discovery URL, client ID, or client secret missing")
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			Scope:        cfg.OIDC.Scope,
			DiscoveryURL: cfg.OIDC.DiscoveryURL,
			SubjectClaim: cfg.OIDC.SubjectClaim,
			EmailClaim:   cfg.OIDC.EmailClaim,
			NameClaim:    cfg.OIDC.NameClaim,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc provider: %w", err)
		}
		return prov, nil

	case config.AuthModePassword:
		users, err := parseRoster(cfg.Password.Users)
		if err != nil {
			return nil, err
		}
		prov, err := passwordauth.NewProvider(passwordauth.Config{
			Users:         users,
			MaxAttempts:   cfg.Password.MaxAttempts,
			AttemptWindow: cfg.Password.AttemptWindow,
		})
		if err != nil {
			return nil, fmt.Errorf("create password provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Mode)
	}
}

// parseRoster parses "email:bcrypt-hash" or "email:bcrypt-hash:display name"
// roster entries.
func parseRoster(entries []string) ([]passwordauth.User, error) {
	users := make([]passwordauth.User, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid roster entry %q: want email:hash[:name]", entry)
		}
		u := passwordauth.User{Email: parts[0], PasswordHash: parts[1]}
		if len(parts) == 3 {
			u.DisplayName = parts[2]
		}
		users = append(users, u)
	}
	return users, nil
}

// serverOnlyStore satisfies ports.ProfileStore without a cache tier; cache
// reads report not-found so the resolver's fallback degrades cleanly.
type serverOnlyStore struct {
	server *postgresadapter.ProfileStore
}

func (s serverOnlyStore) Get(ctx context.Context, id string, src ports.ReadSource) (domainauth.UserProfile, error) {
	if src == ports.FromCache {
		return domainauth.UserProfile{}, obserrors.ErrNotFound
	}
	return s.server.Get(ctx, id)
}

func (s serverOnlyStore) Create(ctx context.Context, profile domainauth.UserProfile) error {
	return s.server.Create(ctx, profile)
}
