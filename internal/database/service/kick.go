package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/notifier"
)

// KickService handles kick business logic. Kicks are audit events: the
// actual disconnect is the host's job.
type KickService struct {
	store    KickStore
	warnings WarningCounter
	identity *IdentityService
	sink     notifier.Notifier
	logger   *zap.Logger
}

// NewKick creates a new kick service.
func NewKick(
	store KickStore, warnings WarningCounter, identity *IdentityService,
	sink notifier.Notifier, logger *zap.Logger,
) *KickService {
	return &KickService{
		store:    store,
		warnings: warnings,
		identity: identity,
		sink:     sink,
		logger:   logger.Named("kick_service"),
	}
}

// Create records a kick against a subject.
func (s *KickService) Create(
	ctx context.Context, subjectID, issuerID uuid.UUID, reason string,
) (*types.Kick, error) {
	if err := types.ValidateReason(reason); err != nil {
		return nil, err
	}

	subject, err := s.identity.ByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subject: %w (id=%s)", err, subjectID)
	}

	issuer, err := s.identity.ByID(ctx, issuerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve issuer: %w (id=%s)", err, issuerID)
	}

	now := time.Now().UTC()
	kick := &types.Kick{
		SubjectID: subjectID,
		IssuerID:  issuerID,
		Reason:    reason,
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, kick); err != nil {
		return nil, fmt.Errorf("failed to create kick: %w", err)
	}

	s.sink.Notify(ctx, notifier.Event{
		Kind:         notifier.EventKickCreated,
		Subject:      notifier.Actor{ID: subject.ID, Name: subject.Name},
		Issuer:       notifier.Actor{ID: issuer.ID, Name: issuer.Name},
		Reason:       reason,
		RecordID:     kick.ID,
		WarningCount: s.activeWarningCount(ctx, subjectID, now),
		OccurredAt:   now,
	})

	s.logger.Info("Created kick",
		zap.Int64("kickID", kick.ID),
		zap.String("subjectID", subjectID.String()),
		zap.String("issuerID", issuerID.String()))

	return kick, nil
}

// History returns one page of a subject's kicks, newest first.
func (s *KickService) History(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Kick, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	return s.store.GetHistory(ctx, subjectID, page)
}

// CountRecent counts a subject's kicks within the trailing window. Used by
// front ends to spot repeat offenders.
func (s *KickService) CountRecent(ctx context.Context, subjectID uuid.UUID, window time.Duration) (int, error) {
	if window <= 0 {
		return 0, types.NewValidationError("window", "window must be positive")
	}

	return s.store.CountRecentBySubject(ctx, subjectID, time.Now().UTC().Add(-window))
}

// activeWarningCount counts the subject's active warnings for notification
// enrichment. Best-effort: failures degrade to zero.
func (s *KickService) activeWarningCount(ctx context.Context, subjectID uuid.UUID, now time.Time) int {
	count, err := s.warnings.CountActiveBySubject(ctx, subjectID, now)
	if err != nil {
		s.logger.Warn("Failed to count warnings for notification",
			zap.String("subjectID", subjectID.String()),
			zap.Error(err))

		return 0
	}

	return count
}
