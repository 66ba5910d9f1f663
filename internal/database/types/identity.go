package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrInvalidUsername  = errors.New("invalid username")
)

// ConsoleName is the display name of the console identity.
const ConsoleName = "Console"

// Identity represents a player known to the network. The console identity
// uses the zero UUID and is stored like any other row.
type Identity struct {
	ID          uuid.UUID `bun:",pk,type:uuid"`
	Name        string    `bun:",notnull"`                   // Display name, most recent
	NameKey     string    `bun:",notnull"`                   // Normalized lookup key for Name
	FirstSeen   time.Time `bun:",notnull"`                   // First connection
	LastSeen    time.Time `bun:",notnull"`                   // Most recent connection
	LastAddress *string   `bun:",nullzero,type:varchar(45)"` // Most recent IP, null until first connection
	CreatedAt   time.Time `bun:",notnull"`
	UpdatedAt   time.Time `bun:",notnull"`
}

// IsConsole checks if this is the console identity.
func (i *Identity) IsConsole() bool {
	return i.ID == uuid.Nil
}
