package types

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/robalyx/aegis/internal/database/types/enum"
)

var (
	ErrBanNotFound = errors.New("ban not found")
	ErrNoActiveBan = errors.New("no active ban for subject")
)

// SupersededReason marks a ban deactivated because a newer ban replaced it.
const SupersededReason = "Superseded by a newer ban"

// Ban represents a ban issued against a player or an address.
type Ban struct {
	ID            int64        `bun:",pk,autoincrement"`
	SubjectID     uuid.UUID    `bun:",notnull,type:uuid"` // Player the ban applies to
	IssuerID      uuid.UUID    `bun:",notnull,type:uuid"` // Staff member or console that issued it
	Reason        string       `bun:",notnull,type:varchar(500)"`
	Type          enum.BanType `bun:",notnull"`
	CreatedAt     time.Time    `bun:",notnull"`
	ExpiresAt     *time.Time   `bun:",nullzero"`                  // Set iff Type is Temporary
	Active        bool         `bun:",notnull,default:true"`
	Address       *string      `bun:",nullzero,type:varchar(45)"` // Set for IP bans
	RemovedBy     *uuid.UUID   `bun:",nullzero,type:uuid"`        // Staff member that removed it, null for expiry sweeps
	RemovedAt     *time.Time   `bun:",nullzero"`
	RemovalReason *string      `bun:",nullzero,type:varchar(500)"`

	Subject *Identity `bun:"rel:belongs-to,join:subject_id=id"`
	Issuer  *Identity `bun:"rel:belongs-to,join:issuer_id=id"`
}

// IsCurrentlyActive reports whether the ban counts as active at the given
// instant. The flag alone is not authoritative: a record stays flagged
// active after its expiry until a sweep catches up, and it must not count
// from the moment the expiry passes.
func (b *Ban) IsCurrentlyActive(now time.Time) bool {
	return b.Active && (b.ExpiresAt == nil || b.ExpiresAt.After(now))
}

// IsExpired checks if the ban has an expiry in the past.
func (b *Ban) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

// IsPermanent checks if the ban never expires.
func (b *Ban) IsPermanent() bool {
	return b.Type == enum.BanTypePermanent
}
