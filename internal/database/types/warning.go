package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWarningNotFound = errors.New("warning not found")
	// ErrEscalationFailed wraps failures of the automatic action triggered by
	// a warning threshold. The warning itself is already persisted when this
	// is returned.
	ErrEscalationFailed = errors.New("escalation action failed")
)

// Warning represents a warning issued against a player.
type Warning struct {
	ID            int64      `bun:",pk,autoincrement"`
	SubjectID     uuid.UUID  `bun:",notnull,type:uuid"` // Player the warning applies to
	IssuerID      uuid.UUID  `bun:",notnull,type:uuid"` // Staff member or console that issued it
	Reason        string     `bun:",notnull,type:varchar(500)"`
	CreatedAt     time.Time  `bun:",notnull"`
	ExpiresAt     *time.Time `bun:",nullzero"` // Null means the warning never expires
	Active        bool       `bun:",notnull,default:true"`
	RemovedBy     *uuid.UUID `bun:",nullzero,type:uuid"` // Staff member that removed it, null for expiry sweeps
	RemovedAt     *time.Time `bun:",nullzero"`
	RemovalReason *string    `bun:",nullzero,type:varchar(500)"`

	Subject *Identity `bun:"rel:belongs-to,join:subject_id=id"`
	Issuer  *Identity `bun:"rel:belongs-to,join:issuer_id=id"`
}

// IsCurrentlyActive reports whether the warning counts as active at the
// given instant. The flag alone is not authoritative: a record stays
// flagged active after its expiry until a sweep catches up, and it must
// not count from the moment the expiry passes.
func (w *Warning) IsCurrentlyActive(now time.Time) bool {
	return w.Active && (w.ExpiresAt == nil || w.ExpiresAt.After(now))
}

// IsExpired checks if the warning has an expiry in the past.
func (w *Warning) IsExpired(now time.Time) bool {
	return w.ExpiresAt != nil && !w.ExpiresAt.After(now)
}
