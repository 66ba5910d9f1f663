package database

import (
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/models"
)

// Repository provides access to all database models.
type Repository struct {
	identity  *models.IdentityModel
	warning   *models.WarningModel
	ban       *models.BanModel
	kick      *models.KickModel
	threshold *models.ThresholdModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		identity:  models.NewIdentity(db, logger),
		warning:   models.NewWarning(db, logger),
		ban:       models.NewBan(db, logger),
		kick:      models.NewKick(db, logger),
		threshold: models.NewThreshold(db, logger),
	}
}

// Identity returns the identity model repository.
func (r *Repository) Identity() *models.IdentityModel {
	return r.identity
}

// Warning returns the warning model repository.
func (r *Repository) Warning() *models.WarningModel {
	return r.warning
}

// Ban returns the ban model repository.
func (r *Repository) Ban() *models.BanModel {
	return r.ban
}

// Kick returns the kick model repository.
func (r *Repository) Kick() *models.KickModel {
	return r.kick
}

// Threshold returns the escalation threshold model repository.
func (r *Repository) Threshold() *models.ThresholdModel {
	return r.threshold
}
