package database

import (
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/cache"
	"github.com/robalyx/aegis/internal/database/service"
	"github.com/robalyx/aegis/internal/notifier"
)

// Service provides access to all business logic services.
type Service struct {
	identity *service.IdentityService
	warning  *service.WarningService
	ban      *service.BanService
	kick     *service.KickService
}

// NewService creates a new service instance with all services.
func NewService(
	repository *Repository, statusCache *cache.StatusCache,
	sink notifier.Notifier, policy service.BanPolicy, logger *zap.Logger,
) *Service {
	identityService := service.NewIdentity(repository.Identity(), statusCache, logger)
	banService := service.NewBan(
		repository.Ban(), repository.Warning(),
		identityService, statusCache, sink, policy, logger,
	)
	kickService := service.NewKick(repository.Kick(), repository.Warning(), identityService, sink, logger)
	warningService := service.NewWarning(
		repository.Warning(), repository.Threshold(),
		identityService, banService, kickService, sink, logger,
	)

	return &Service{
		identity: identityService,
		warning:  warningService,
		ban:      banService,
		kick:     kickService,
	}
}

// Identity returns the identity service.
func (s *Service) Identity() *service.IdentityService {
	return s.identity
}

// Warning returns the warning service.
func (s *Service) Warning() *service.WarningService {
	return s.warning
}

// Ban returns the ban service.
func (s *Service) Ban() *service.BanService {
	return s.ban
}

// Kick returns the kick service.
func (s *Service) Kick() *service.KickService {
	return s.kick
}
