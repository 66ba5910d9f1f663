package cache

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/types"
)

// Default region settings. Ban verdicts turn over faster than identity
// details, so they get the shorter TTL.
const (
	DefaultBanStatusTTL = 5 * time.Minute
	DefaultIdentityTTL  = 10 * time.Minute
	DefaultMaxEntries   = 10000
)

// StatusCacheOptions configures the status cache regions.
type StatusCacheOptions struct {
	Enabled      bool
	BanStatusTTL time.Duration
	IdentityTTL  time.Duration
	MaxEntries   int
}

// StatusCache holds the ban-status region and the identity region with its
// name index. A disabled cache misses on every read and drops every write,
// so callers need no special casing.
type StatusCache struct {
	banStatus *Region[uuid.UUID, bool]
	identity  *Region[uuid.UUID, *types.Identity]
	nameIndex *Region[string, uuid.UUID]
	enabled   bool
	logger    *zap.Logger
}

// NewStatusCache creates a status cache from the given options.
func NewStatusCache(opts StatusCacheOptions, logger *zap.Logger) *StatusCache {
	if opts.BanStatusTTL <= 0 {
		opts.BanStatusTTL = DefaultBanStatusTTL
	}

	if opts.IdentityTTL <= 0 {
		opts.IdentityTTL = DefaultIdentityTTL
	}

	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}

	c := &StatusCache{
		enabled: opts.Enabled,
		logger:  logger.Named("status_cache"),
	}

	if opts.Enabled {
		c.banStatus = NewRegion[uuid.UUID, bool](opts.BanStatusTTL, opts.MaxEntries)
		c.identity = NewRegion[uuid.UUID, *types.Identity](opts.IdentityTTL, opts.MaxEntries)
		c.nameIndex = NewRegion[string, uuid.UUID](opts.IdentityTTL, opts.MaxEntries)
	}

	return c
}

// Enabled reports whether the cache stores anything at all.
func (c *StatusCache) Enabled() bool {
	return c.enabled
}

// GetBanStatus retrieves a cached ban verdict for a subject.
func (c *StatusCache) GetBanStatus(subjectID uuid.UUID) (banned, ok bool) {
	if !c.enabled {
		return false, false
	}

	return c.banStatus.Get(subjectID)
}

// SetBanStatus caches a ban verdict for a subject.
func (c *StatusCache) SetBanStatus(subjectID uuid.UUID, banned bool) {
	if !c.enabled {
		return
	}

	c.banStatus.Set(subjectID, banned)
}

// InvalidateBanStatus drops the cached ban verdict of a subject. Every ban
// write and sweep goes through here so a stale verdict never outlives a
// record change.
func (c *StatusCache) InvalidateBanStatus(subjectID uuid.UUID) {
	if !c.enabled {
		return
	}

	c.banStatus.Delete(subjectID)
	c.logger.Debug("Invalidated ban status", zap.String("subjectID", subjectID.String()))
}

// GetIdentity retrieves a cached identity by ID.
func (c *StatusCache) GetIdentity(id uuid.UUID) (*types.Identity, bool) {
	if !c.enabled {
		return nil, false
	}

	return c.identity.Get(id)
}

// GetIdentityByName retrieves a cached identity through the name index.
func (c *StatusCache) GetIdentityByName(nameKey string) (*types.Identity, bool) {
	if !c.enabled {
		return nil, false
	}

	id, ok := c.nameIndex.Get(nameKey)
	if !ok {
		return nil, false
	}

	return c.identity.Get(id)
}

// SetIdentity caches an identity and indexes its name key.
func (c *StatusCache) SetIdentity(identity *types.Identity) {
	if !c.enabled || identity == nil {
		return
	}

	c.identity.Set(identity.ID, identity)
	c.nameIndex.Set(identity.NameKey, identity.ID)
}

// InvalidateIdentity drops an identity and its name index entry. Pass the
// cached row so renames clear the old name key.
func (c *StatusCache) InvalidateIdentity(identity *types.Identity) {
	if !c.enabled || identity == nil {
		return
	}

	c.identity.Delete(identity.ID)
	c.nameIndex.Delete(identity.NameKey)
}

// Flush drops every cached entry.
func (c *StatusCache) Flush() {
	if !c.enabled {
		return
	}

	c.banStatus.Flush()
	c.identity.Flush()
	c.nameIndex.Flush()
	c.logger.Info("Status cache flushed")
}

// Close stops the background cleanup of all regions.
func (c *StatusCache) Close() {
	if !c.enabled {
		return
	}

	c.banStatus.Close()
	c.identity.Close()
	c.nameIndex.Close()
}
