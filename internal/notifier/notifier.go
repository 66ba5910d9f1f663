// Package notifier delivers moderation events to external sinks.
// Delivery is fire-and-forget: sinks never block the calling service
// and never surface delivery failures to it.
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventKind identifies the moderation action an event describes.
type EventKind string

const (
	EventBanCreated      EventKind = "ban.created"
	EventBanRemoved      EventKind = "ban.removed"
	EventWarningCreated  EventKind = "warning.created"
	EventWarningRemoved  EventKind = "warning.removed"
	EventWarningsCleared EventKind = "warnings.cleared"
	EventKickCreated     EventKind = "kick.created"
)

// Actor identifies a participant in a moderation event.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Event carries the details of a single moderation action.
type Event struct {
	Kind         EventKind
	Subject      Actor
	Issuer       Actor
	Reason       string
	RecordID     int64      // warning/ban/kick row ID, 0 when not applicable
	WarningCount int        // active warnings after the action, or count cleared
	Permanent    bool       // ban.created only
	ExpiresAt    *time.Time // nil when the record never expires
	OccurredAt   time.Time
}

// Notifier is the sink moderation services publish events to.
type Notifier interface {
	Notify(ctx context.Context, event Event)
	Close(ctx context.Context)
}

// Noop discards all events. Used when notifications are disabled.
type Noop struct{}

// NewNoop creates a notifier that discards all events.
func NewNoop() *Noop {
	return &Noop{}
}

// Notify implements Notifier.
func (*Noop) Notify(context.Context, Event) {}

// Close implements Notifier.
func (*Noop) Close(context.Context) {}
