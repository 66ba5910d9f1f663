package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrKickNotFound = errors.New("kick not found")

// Kick represents a kick issued against a player. Kicks are point-in-time
// events and never change after creation.
type Kick struct {
	ID        int64     `bun:",pk,autoincrement"`
	SubjectID uuid.UUID `bun:",notnull,type:uuid"` // Player that was kicked
	IssuerID  uuid.UUID `bun:",notnull,type:uuid"` // Staff member or console that issued it
	Reason    string    `bun:",notnull,type:varchar(500)"`
	CreatedAt time.Time `bun:",notnull"`

	Subject *Identity `bun:"rel:belongs-to,join:subject_id=id"`
	Issuer  *Identity `bun:"rel:belongs-to,join:issuer_id=id"`
}
