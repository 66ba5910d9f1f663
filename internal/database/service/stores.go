// Package service implements the moderation business logic on top of the
// model layer: identity registration, warning escalation, ban admission
// checks, and the expiry sweeps the background worker drives.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/robalyx/aegis/internal/database/types"
)

// The store interfaces name the persistence operations each service
// consumes. The models package provides the implementations; tests
// substitute in-memory fakes.

// IdentityStore persists player identities.
type IdentityStore interface {
	Upsert(ctx context.Context, identity *types.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Identity, error)
	GetByNameKey(ctx context.Context, nameKey string) (*types.Identity, error)
	TouchLastSeen(ctx context.Context, id uuid.UUID, address *string, now time.Time) error
	Rename(ctx context.Context, id uuid.UUID, name, nameKey string, now time.Time) error
}

// WarningStore persists warnings.
type WarningStore interface {
	Create(ctx context.Context, warning *types.Warning) error
	GetByID(ctx context.Context, id int64) (*types.Warning, error)
	GetActiveBySubject(ctx context.Context, subjectID uuid.UUID, now time.Time) ([]*types.Warning, error)
	CountActiveBySubject(ctx context.Context, subjectID uuid.UUID, now time.Time) (int, error)
	GetHistory(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Warning, error)
	Deactivate(ctx context.Context, id int64, removedBy *uuid.UUID, reason *string, now time.Time) (bool, error)
	DeactivateAllBySubject(
		ctx context.Context, subjectID uuid.UUID, removedBy *uuid.UUID, reason *string, now time.Time,
	) (int64, error)
	GetExpiredActive(ctx context.Context, now time.Time, limit int) ([]*types.Warning, error)
}

// WarningCounter is the slice of warning storage the ban and kick services
// use to enrich notifications with the subject's active count.
type WarningCounter interface {
	CountActiveBySubject(ctx context.Context, subjectID uuid.UUID, now time.Time) (int, error)
}

// BanStore persists bans.
type BanStore interface {
	Create(ctx context.Context, ban *types.Ban) error
	GetActiveBySubject(ctx context.Context, subjectID uuid.UUID, now time.Time) (*types.Ban, error)
	GetActiveByAddress(ctx context.Context, address string, now time.Time) (*types.Ban, error)
	IsSubjectBanned(ctx context.Context, subjectID uuid.UUID, now time.Time) (bool, error)
	GetActivePage(ctx context.Context, page types.Page, now time.Time) ([]*types.Ban, error)
	GetHistory(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Ban, error)
	Deactivate(ctx context.Context, id int64, removedBy *uuid.UUID, reason *string, now time.Time) (bool, error)
	GetExpiredActive(ctx context.Context, now time.Time, limit int) ([]*types.Ban, error)
}

// KickStore persists kicks.
type KickStore interface {
	Create(ctx context.Context, kick *types.Kick) error
	GetHistory(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Kick, error)
	CountRecentBySubject(ctx context.Context, subjectID uuid.UUID, since time.Time) (int, error)
}

// ThresholdStore reads the operator-managed escalation ladder.
type ThresholdStore interface {
	GetByCount(ctx context.Context, warningCount int) (*types.EscalationThreshold, error)
}

// BanPolicy controls how admission checks behave under storage failure.
type BanPolicy struct {
	// FailClosed denies admission when the ban lookup fails. The default
	// lets players through so a storage outage cannot lock out the whole
	// network.
	FailClosed bool

	// AdmissionTimeout bounds a single admission check. Zero disables
	// the bound.
	AdmissionTimeout time.Duration
}
