package commands

import (
	"errors"

	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database"
)

var (
	ErrNameRequired   = errors.New("NAME argument required")
	ErrCountRequired  = errors.New("COUNT argument required")
	ErrActionRequired = errors.New("ACTION argument required")
	ErrInvalidCount   = errors.New("COUNT must be a positive integer")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
}
