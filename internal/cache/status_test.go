package cache_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/cache"
	"github.com/robalyx/aegis/internal/database/types"
)

func newTestCache(t *testing.T, enabled bool) *cache.StatusCache {
	t.Helper()

	c := cache.NewStatusCache(cache.StatusCacheOptions{
		Enabled:      enabled,
		BanStatusTTL: time.Minute,
		IdentityTTL:  time.Minute,
		MaxEntries:   100,
	}, zap.NewNop())
	t.Cleanup(c.Close)

	return c
}

func TestStatusCacheBanStatus(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, true)
	subject := uuid.New()

	_, ok := c.GetBanStatus(subject)
	assert.False(t, ok, "unknown subject should miss")

	c.SetBanStatus(subject, true)

	banned, ok := c.GetBanStatus(subject)
	assert.True(t, ok)
	assert.True(t, banned)

	// A record change invalidates; the next read must miss rather than
	// return the stale verdict
	c.InvalidateBanStatus(subject)

	_, ok = c.GetBanStatus(subject)
	assert.False(t, ok)

	c.SetBanStatus(subject, false)

	banned, ok = c.GetBanStatus(subject)
	assert.True(t, ok)
	assert.False(t, banned, "not-banned verdicts are cached too")
}

func TestStatusCacheIdentity(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, true)

	identity := &types.Identity{
		ID:      uuid.New(),
		Name:    "Steve",
		NameKey: "steve",
	}

	c.SetIdentity(identity)

	got, ok := c.GetIdentity(identity.ID)
	assert.True(t, ok)
	assert.Equal(t, identity, got)

	got, ok = c.GetIdentityByName("steve")
	assert.True(t, ok)
	assert.Equal(t, identity, got)

	c.InvalidateIdentity(identity)

	_, ok = c.GetIdentity(identity.ID)
	assert.False(t, ok)

	_, ok = c.GetIdentityByName("steve")
	assert.False(t, ok, "name index entry should drop with the identity")
}

func TestStatusCacheDisabled(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, false)
	subject := uuid.New()

	assert.False(t, c.Enabled())

	c.SetBanStatus(subject, true)

	_, ok := c.GetBanStatus(subject)
	assert.False(t, ok, "disabled cache must never hit")

	c.SetIdentity(&types.Identity{ID: subject, Name: "Steve", NameKey: "steve"})

	_, ok = c.GetIdentity(subject)
	assert.False(t, ok)

	// No-ops must not panic
	c.InvalidateBanStatus(subject)
	c.InvalidateIdentity(&types.Identity{ID: subject, NameKey: "steve"})
	c.Flush()
}

func TestStatusCacheFlush(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, true)
	subject := uuid.New()

	c.SetBanStatus(subject, true)
	c.SetIdentity(&types.Identity{ID: subject, Name: "Steve", NameKey: "steve"})
	c.Flush()

	_, ok := c.GetBanStatus(subject)
	assert.False(t, ok)

	_, ok = c.GetIdentity(subject)
	assert.False(t, ok)
}
