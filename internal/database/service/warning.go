package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/database/types/enum"
	"github.com/robalyx/aegis/internal/notifier"
)

// WarningService handles warning business logic and the escalation engine.
type WarningService struct {
	store      WarningStore
	thresholds ThresholdStore
	identity   *IdentityService
	bans       *BanService
	kicks      *KickService
	sink       notifier.Notifier
	logger     *zap.Logger
}

// NewWarning creates a new warning service.
func NewWarning(
	store WarningStore, thresholds ThresholdStore, identity *IdentityService,
	bans *BanService, kicks *KickService, sink notifier.Notifier, logger *zap.Logger,
) *WarningService {
	return &WarningService{
		store:      store,
		thresholds: thresholds,
		identity:   identity,
		bans:       bans,
		kicks:      kicks,
		sink:       sink,
		logger:     logger.Named("warning_service"),
	}
}

// Create issues a warning and runs threshold escalation on the resulting
// active count. A zero duration means the warning never expires.
//
// The warning is committed before escalation runs. When the escalation
// action fails, Create still returns the persisted warning together with an
// error wrapping types.ErrEscalationFailed, so callers can tell partial
// success from a failed create.
func (s *WarningService) Create(
	ctx context.Context, subjectID, issuerID uuid.UUID, reason string, duration time.Duration,
) (*types.Warning, error) {
	if err := types.ValidateReason(reason); err != nil {
		return nil, err
	}

	if duration < 0 {
		return nil, types.NewValidationError("duration", "duration cannot be negative")
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

	var expiresAt *time.Time
	if duration > 0 {
		expiry := now.Add(duration)
		expiresAt = &expiry
	}

	warning := &types.Warning{
		SubjectID: subjectID,
		IssuerID:  issuerID,
		Reason:    reason,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Active:    true,
	}

	if err := s.store.Create(ctx, warning); err != nil {
		return nil, fmt.Errorf("failed to create warning: %w", err)
	}

	// The count includes the warning just committed, so the threshold
	// lookup sees the subject's new total.
	count, err := s.store.CountActiveBySubject(ctx, subjectID, now)
	if err != nil {
		return warning, fmt.Errorf("%w: failed to count active warnings: %w", types.ErrEscalationFailed, err)
	}

	s.sink.Notify(ctx, notifier.Event{
		Kind:         notifier.EventWarningCreated,
		Subject:      notifier.Actor{ID: subject.ID, Name: subject.Name},
		Issuer:       notifier.Actor{ID: issuer.ID, Name: issuer.Name},
		Reason:       reason,
		RecordID:     warning.ID,
		WarningCount: count,
		ExpiresAt:    expiresAt,
		OccurredAt:   now,
	})

	s.logger.Info("Created warning",
		zap.Int64("warningID", warning.ID),
		zap.String("subjectID", subjectID.String()),
		zap.String("issuerID", issuerID.String()),
		zap.Int("activeCount", count))

	if err := s.escalate(ctx, warning, count); err != nil {
		s.logger.Error("Escalation action failed, warning stays recorded",
			zap.Int64("warningID", warning.ID),
			zap.String("subjectID", subjectID.String()),
			zap.Int("activeCount", count),
			zap.Error(err))

		return warning, fmt.Errorf("%w: %w", types.ErrEscalationFailed, err)
	}

	return warning, nil
}

// escalate fires the threshold action matching the exact active count, if
// one is configured and enabled. Jumping past a count fires nothing.
func (s *WarningService) escalate(ctx context.Context, warning *types.Warning, count int) error {
	threshold, err := s.thresholds.GetByCount(ctx, count)
	if err != nil {
		if errors.Is(err, types.ErrThresholdNotFound) {
			return nil
		}

		return fmt.Errorf("failed to look up escalation threshold: %w (count=%d)", err, count)
	}

	reason := threshold.ActionReason()

	s.logger.Info("Escalating warnings",
		zap.String("subjectID", warning.SubjectID.String()),
		zap.String("action", threshold.Action.String()),
		zap.Int("activeCount", count))

	// The action is attributed to the issuer of the triggering warning.
	switch threshold.Action {
	case enum.ThresholdActionKick:
		_, err = s.kicks.Create(ctx, warning.SubjectID, warning.IssuerID, reason)
	case enum.ThresholdActionTempBan:
		_, err = s.bans.CreateTemporary(
			ctx, warning.SubjectID, warning.IssuerID, reason, threshold.TempBanDuration(), nil,
		)
	case enum.ThresholdActionPermBan:
		_, err = s.bans.CreatePermanent(ctx, warning.SubjectID, warning.IssuerID, reason, nil)
	}

	if err != nil {
		return fmt.Errorf("failed to execute %s action at %d warnings: %w", threshold.Action, count, err)
	}

	return nil
}

// Remove deactivates a single warning with removal metadata. Removing an
// already-inactive warning succeeds without changing anything.
// Returns types.ErrWarningNotFound when no such warning exists.
func (s *WarningService) Remove(
	ctx context.Context, warningID int64, removedBy uuid.UUID, reason string,
) (*types.Warning, error) {
	warning, err := s.store.GetByID(ctx, warningID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	deactivated, err := s.store.Deactivate(ctx, warningID, &removedBy, reasonPtr, now)
	if err != nil {
		return nil, fmt.Errorf("failed to remove warning: %w (warningID=%d)", err, warningID)
	}

	if !deactivated {
		return warning, nil
	}

	warning.Active = false
	warning.RemovedBy = &removedBy
	warning.RemovedAt = &now
	warning.RemovalReason = reasonPtr

	s.sink.Notify(ctx, notifier.Event{
		Kind:       notifier.EventWarningRemoved,
		Subject:    s.identity.ActorFor(ctx, warning.SubjectID),
		Issuer:     s.identity.ActorFor(ctx, removedBy),
		Reason:     reason,
		RecordID:   warningID,
		OccurredAt: now,
	})

	s.logger.Info("Removed warning",
		zap.Int64("warningID", warningID),
		zap.String("removedBy", removedBy.String()))

	return warning, nil
}

// Clear deactivates every active warning of a subject in one sweep and
// returns how many were cleared.
func (s *WarningService) Clear(
	ctx context.Context, subjectID, removedBy uuid.UUID, reason string,
) (int64, error) {
	now := time.Now().UTC()

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	cleared, err := s.store.DeactivateAllBySubject(ctx, subjectID, &removedBy, reasonPtr, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear warnings: %w (subjectID=%s)", err, subjectID)
	}

	if cleared > 0 {
		s.sink.Notify(ctx, notifier.Event{
			Kind:         notifier.EventWarningsCleared,
			Subject:      s.identity.ActorFor(ctx, subjectID),
			Issuer:       s.identity.ActorFor(ctx, removedBy),
			Reason:       reason,
			WarningCount: int(cleared),
			OccurredAt:   now,
		})
	}

	s.logger.Info("Cleared warnings",
		zap.String("subjectID", subjectID.String()),
		zap.String("removedBy", removedBy.String()),
		zap.Int64("count", cleared))

	return cleared, nil
}

// ActiveBySubject returns the subject's currently active warnings, newest
// first.
func (s *WarningService) ActiveBySubject(ctx context.Context, subjectID uuid.UUID) ([]*types.Warning, error) {
	return s.store.GetActiveBySubject(ctx, subjectID, time.Now().UTC())
}

// CountActive returns the subject's currently active warning count.
func (s *WarningService) CountActive(ctx context.Context, subjectID uuid.UUID) (int, error) {
	return s.store.CountActiveBySubject(ctx, subjectID, time.Now().UTC())
}

// History returns one page of a subject's warnings regardless of state.
func (s *WarningService) History(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Warning, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	return s.store.GetHistory(ctx, subjectID, page)
}

// SweepExpired deactivates warnings whose expiry has passed but are still
// flagged active. Failures on individual records are logged and skipped;
// the next run retries them.
func (s *WarningService) SweepExpired(ctx context.Context, limit int) (int, error) {
	now := time.Now().UTC()

	expired, err := s.store.GetExpiredActive(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired warnings: %w", err)
	}

	processed := 0

	for _, warning := range expired {
		if _, err := s.store.Deactivate(ctx, warning.ID, nil, nil, now); err != nil {
			s.logger.Error("Failed to deactivate expired warning",
				zap.Int64("warningID", warning.ID),
				zap.Error(err))

			continue
		}

		processed++
	}

	if processed > 0 {
		s.logger.Info("Deactivated expired warnings", zap.Int("count", processed))
	}

	return processed, nil
}
