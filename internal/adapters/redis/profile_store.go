package redis

// Package redis provides the cache tier of the profile store. Server reads
// pass through to the authoritative store and refresh the cache; cache reads
// serve the stale-but-available fallback used when the server is unreachable.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	obserrors "github.com/vrnd369/theubc-admin-api/internal/observability/errors"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
)

// serverStore is the authoritative profile store being decorated.
type serverStore interface {
	Get(ctx context.Context, id string) (domainauth.UserProfile, error)
	Create(ctx context.Context, profile domainauth.UserProfile) error
}

// CachingProfileStore implements ports.ProfileStore by dispatching on the
// read source: FromServer hits the authoritative store (and refreshes the
// cached copy on success), FromCache reads only the local cache.
type CachingProfileStore struct {
	server serverStore
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ProfileStore = (*CachingProfileStore)(nil)

// NewCachingProfileStore creates a caching profile store. A zero ttl
// defaults to one hour.
func NewCachingProfileStore(server serverStore, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachingProfileStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingProfileStore{
		server: server,
		client: client,
		prefix: "profile:",
		ttl:    ttl,
		logger: logger,
	}
}

func (s *CachingProfileStore) Get(ctx context.Context, id string, src ports.ReadSource) (domainauth.UserProfile, error) {
	if id == "" {
		return domainauth.UserProfile{}, fmt.Errorf("profile id: %w", obserrors.ErrNotFound)
	}

	if src == ports.FromCache {
		return s.getCached(ctx, id)
	}

	profile, err := s.server.Get(ctx, id)
	if err != nil {
		return domainauth.UserProfile{}, err
	}

	// Refresh the cached copy; cache write failures never fail the read.
	if cacheErr := s.put(ctx, profile); cacheErr != nil {
		s.logger.WarnContext(ctx, "profile cache refresh failed", "id", id, "error", cacheErr)
	}
	return profile, nil
}

func (s *CachingProfileStore) Create(ctx context.Context, profile domainauth.UserProfile) error {
	if err := s.server.Create(ctx, profile); err != nil {
		return err
	}
	if cacheErr := s.put(ctx, profile); cacheErr != nil {
		s.logger.WarnContext(ctx, "profile cache seed failed", "id", profile.ID, "error", cacheErr)
	}
	return nil
}

func (s *CachingProfileStore) getCached(ctx context.Context, id string) (domainauth.UserProfile, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.UserProfile{}, fmt.Errorf("cached profile %s: %w", id, obserrors.ErrNotFound)
		}
		return domainauth.UserProfile{}, fmt.Errorf("redis get: %w", err)
	}

	var profile domainauth.UserProfile
	if unmarshalErr := json.Unmarshal([]byte(data), &profile); unmarshalErr != nil {
		return domainauth.UserProfile{}, fmt.Errorf("unmarshal cached profile: %w", unmarshalErr)
	}
	return profile, nil
}

func (s *CachingProfileStore) put(ctx context.Context, profile domainauth.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.client.Set(ctx, s.prefix+profile.ID, data, s.ttl).Err()
}
