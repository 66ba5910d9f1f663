package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/aegis/internal/database/types/enum"
)

var ErrThresholdNotFound = errors.New("escalation threshold not found")

// DefaultTempBanDuration applies when a temp-ban threshold has no duration
// configured.
const DefaultTempBanDuration = 24 * time.Hour

// EscalationThreshold maps an exact active-warning count to an automatic
// action. Only the threshold matching the count exactly fires; jumping past
// one (for example by bulk expiry changes) fires nothing.
type EscalationThreshold struct {
	ID           int64                `bun:",pk,autoincrement"`
	WarningCount int                  `bun:",notnull,unique"` // Exact active count that triggers the action
	Action       enum.ThresholdAction `bun:",notnull"`
	Duration     *time.Duration       `bun:",nullzero"`                  // Temp-ban length, null uses the default
	Message      *string              `bun:",nullzero,type:varchar(500)"` // Override for the action reason
	Enabled      bool                 `bun:",notnull,default:true"`
	CreatedAt    time.Time            `bun:",notnull"`
	UpdatedAt    time.Time            `bun:",notnull"`
}

// ActionReason resolves the reason recorded on the escalation action, using
// the configured message when present.
func (t *EscalationThreshold) ActionReason() string {
	if t.Message != nil && *t.Message != "" {
		return *t.Message
	}

	return fmt.Sprintf("Automatic action after %d warnings", t.WarningCount)
}

// TempBanDuration resolves the duration of a temp-ban action.
func (t *EscalationThreshold) TempBanDuration() time.Duration {
	if t.Duration != nil && *t.Duration > 0 {
		return *t.Duration
	}

	return DefaultTempBanDuration
}
