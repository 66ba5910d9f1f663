package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/cache"
	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/notifier"
	"github.com/robalyx/aegis/pkg/utils"
)

// IdentityService handles identity registration and lookups.
type IdentityService struct {
	store       IdentityStore
	statusCache *cache.StatusCache
	logger      *zap.Logger
}

// NewIdentity creates a new identity service.
func NewIdentity(store IdentityStore, statusCache *cache.StatusCache, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		store:       store,
		statusCache: statusCache,
		logger:      logger.Named("identity_service"),
	}
}

// nameKey derives the normalized lookup key for a name. The normalizer
// carries transform state, so each call builds a fresh one.
func nameKey(name string) string {
	return utils.NewTextNormalizer().NameKey(name)
}

// GetOrCreate returns the identity for the given ID, creating or refreshing
// the row as needed. Safe to call concurrently for the same ID; the upsert
// serializes on the row.
func (s *IdentityService) GetOrCreate(ctx context.Context, id uuid.UUID, name string) (*types.Identity, error) {
	if err := types.ValidateUsername(name); err != nil {
		return nil, err
	}

	if cached, ok := s.statusCache.GetIdentity(id); ok && cached.Name == name {
		return cached, nil
	}

	now := time.Now().UTC()
	identity := &types.Identity{
		ID:        id,
		Name:      name,
		NameKey:   nameKey(name),
		FirstSeen: now,
		LastSeen:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to register identity: %w (id=%s)", err, id)
	}

	s.statusCache.SetIdentity(identity)

	return identity, nil
}

// ByID returns the identity with the given ID.
// Returns types.ErrIdentityNotFound when no such identity exists.
func (s *IdentityService) ByID(ctx context.Context, id uuid.UUID) (*types.Identity, error) {
	if cached, ok := s.statusCache.GetIdentity(id); ok {
		return cached, nil
	}

	identity, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.statusCache.SetIdentity(identity)

	return identity, nil
}

// ByName resolves a display name to the identity most recently seen under
// it. Lookup is case- and confusable-insensitive.
func (s *IdentityService) ByName(ctx context.Context, name string) (*types.Identity, error) {
	key := nameKey(name)
	if key == "" {
		return nil, types.NewValidationError("name", "name is empty after normalization")
	}

	if cached, ok := s.statusCache.GetIdentityByName(key); ok {
		return cached, nil
	}

	identity, err := s.store.GetByNameKey(ctx, key)
	if err != nil {
		return nil, err
	}

	s.statusCache.SetIdentity(identity)

	return identity, nil
}

// TouchLastSeen records connection activity for an identity. Best-effort:
// failures are logged and never block the connection flow.
func (s *IdentityService) TouchLastSeen(ctx context.Context, id uuid.UUID, address *string) {
	if address != nil {
		if err := types.ValidateAddress(*address); err != nil {
			s.logger.Warn("Dropping malformed address on last-seen update",
				zap.String("identityID", id.String()),
				zap.Error(err))

			address = nil
		}
	}

	if err := s.store.TouchLastSeen(ctx, id, address, time.Now().UTC()); err != nil {
		s.logger.Error("Failed to update last-seen",
			zap.String("identityID", id.String()),
			zap.Error(err))
	}
}

// Rename changes an identity's display name. Historical moderation records
// are untouched; they reference the ID.
func (s *IdentityService) Rename(ctx context.Context, id uuid.UUID, newName string) (*types.Identity, error) {
	if err := types.ValidateUsername(newName); err != nil {
		return nil, err
	}

	// Capture the cached row before the write so its stale name-index
	// entry can be dropped once the rename commits.
	old, hadCached := s.statusCache.GetIdentity(id)

	if err := s.store.Rename(ctx, id, newName, nameKey(newName), time.Now().UTC()); err != nil {
		return nil, err
	}

	if hadCached {
		s.statusCache.InvalidateIdentity(old)
	}

	identity, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload renamed identity: %w (id=%s)", err, id)
	}

	s.statusCache.SetIdentity(identity)
	s.logger.Info("Renamed identity",
		zap.String("identityID", id.String()),
		zap.String("name", newName))

	return identity, nil
}

// EnsureConsole registers the synthetic console identity. Called once at
// startup so console-issued records always have a valid issuer row.
func (s *IdentityService) EnsureConsole(ctx context.Context) (*types.Identity, error) {
	return s.GetOrCreate(ctx, uuid.Nil, types.ConsoleName)
}

// ActorFor resolves an identity to a notification actor. Missing rows fall
// back to the raw ID so notification enrichment never fails an operation.
func (s *IdentityService) ActorFor(ctx context.Context, id uuid.UUID) notifier.Actor {
	identity, err := s.ByID(ctx, id)
	if err != nil {
		return notifier.Actor{ID: id, Name: "Unknown"}
	}

	return notifier.Actor{ID: id, Name: identity.Name}
}
