package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/robalyx/aegis/internal/cache"
	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/database/types/enum"
	"github.com/robalyx/aegis/internal/notifier"
	"github.com/robalyx/aegis/pkg/utils"
)

// AdmissionDecision reports whether a connecting player may join and, when
// denied, which ban denied them.
type AdmissionDecision struct {
	Allowed bool
	Ban     *types.Ban // Set when a ban denied admission

	// Degraded marks decisions made by policy because the ban lookup
	// failed rather than by an actual verdict.
	Degraded bool
}

// DenialMessage renders the standard denial line for a denied decision.
// Hosts with their own templates can read the Ban fields directly instead.
func (d *AdmissionDecision) DenialMessage() string {
	if d.Allowed || d.Ban == nil {
		return ""
	}

	return fmt.Sprintf("You are banned: %s (%s)",
		d.Ban.Reason, utils.FormatTimeRemaining(d.Ban.ExpiresAt, time.Now().UTC()))
}

// BanService handles ban business logic and the connection admission gate.
type BanService struct {
	store       BanStore
	warnings    WarningCounter
	identity    *IdentityService
	statusCache *cache.StatusCache
	sink        notifier.Notifier
	policy      BanPolicy
	group       singleflight.Group
	logger      *zap.Logger
}

// NewBan creates a new ban service.
func NewBan(
	store BanStore, warnings WarningCounter, identity *IdentityService,
	statusCache *cache.StatusCache, sink notifier.Notifier, policy BanPolicy, logger *zap.Logger,
) *BanService {
	return &BanService{
		store:       store,
		warnings:    warnings,
		identity:    identity,
		statusCache: statusCache,
		sink:        sink,
		policy:      policy,
		logger:      logger.Named("ban_service"),
	}
}

// CreatePermanent issues a permanent ban against a subject. Any existing
// active ban is superseded. The optional address extends the ban to the IP.
func (s *BanService) CreatePermanent(
	ctx context.Context, subjectID, issuerID uuid.UUID, reason string, address *string,
) (*types.Ban, error) {
	return s.create(ctx, subjectID, issuerID, reason, enum.BanTypePermanent, nil, address)
}

// CreateTemporary issues a ban that expires after the given duration.
func (s *BanService) CreateTemporary(
	ctx context.Context, subjectID, issuerID uuid.UUID, reason string,
	duration time.Duration, address *string,
) (*types.Ban, error) {
	if duration <= 0 {
		return nil, types.NewValidationError("duration", "duration must be positive")
	}

	expiresAt := time.Now().UTC().Add(duration)

	return s.create(ctx, subjectID, issuerID, reason, enum.BanTypeTemporary, &expiresAt, address)
}

func (s *BanService) create(
	ctx context.Context, subjectID, issuerID uuid.UUID, reason string,
	banType enum.BanType, expiresAt *time.Time, address *string,
) (*types.Ban, error) {
	if err := types.ValidateReason(reason); err != nil {
		return nil, err
	}

	if address != nil {
		if err := types.ValidateAddress(*address); err != nil {
			return nil, err
		}
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
	ban := &types.Ban{
		SubjectID: subjectID,
		IssuerID:  issuerID,
		Reason:    reason,
		Type:      banType,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Active:    true,
		Address:   address,
	}

	if err := s.store.Create(ctx, ban); err != nil {
		return nil, fmt.Errorf("failed to create ban: %w", err)
	}

	s.statusCache.InvalidateBanStatus(subjectID)

	s.sink.Notify(ctx, notifier.Event{
		Kind:         notifier.EventBanCreated,
		Subject:      notifier.Actor{ID: subject.ID, Name: subject.Name},
		Issuer:       notifier.Actor{ID: issuer.ID, Name: issuer.Name},
		Reason:       reason,
		RecordID:     ban.ID,
		WarningCount: s.activeWarningCount(ctx, subjectID, now),
		Permanent:    banType == enum.BanTypePermanent,
		ExpiresAt:    expiresAt,
		OccurredAt:   now,
	})

	s.logger.Info("Created ban",
		zap.Int64("banID", ban.ID),
		zap.String("type", banType.String()),
		zap.String("subjectID", subjectID.String()),
		zap.String("issuerID", issuerID.String()))

	return ban, nil
}

// Remove lifts the active ban of a subject.
// Returns types.ErrNoActiveBan when the subject has none.
func (s *BanService) Remove(
	ctx context.Context, subjectID, removedBy uuid.UUID, reason string,
) (*types.Ban, error) {
	now := time.Now().UTC()

	ban, err := s.store.GetActiveBySubject(ctx, subjectID, now)
	if err != nil {
		return nil, err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	deactivated, err := s.store.Deactivate(ctx, ban.ID, &removedBy, reasonPtr, now)
	if err != nil {
		return nil, fmt.Errorf("failed to remove ban: %w (banID=%d)", err, ban.ID)
	}

	s.statusCache.InvalidateBanStatus(subjectID)

	if !deactivated {
		// Lost a race with another remover or the expiry sweep. The ban
		// is inactive either way, so report success.
		return ban, nil
	}

	ban.Active = false
	ban.RemovedBy = &removedBy
	ban.RemovedAt = &now
	ban.RemovalReason = reasonPtr

	s.sink.Notify(ctx, notifier.Event{
		Kind:       notifier.EventBanRemoved,
		Subject:    s.identity.ActorFor(ctx, subjectID),
		Issuer:     s.identity.ActorFor(ctx, removedBy),
		Reason:     reason,
		RecordID:   ban.ID,
		OccurredAt: now,
	})

	s.logger.Info("Removed ban",
		zap.Int64("banID", ban.ID),
		zap.String("subjectID", subjectID.String()),
		zap.String("removedBy", removedBy.String()))

	return ban, nil
}

// IsBanned reports whether a subject currently has an active ban. Hot path
// for connection gating: served from the status cache when possible, with
// concurrent misses for the same subject collapsed into one store query.
func (s *BanService) IsBanned(ctx context.Context, subjectID uuid.UUID) (bool, error) {
	if banned, ok := s.statusCache.GetBanStatus(subjectID); ok {
		return banned, nil
	}

	result, err, _ := s.group.Do(subjectID.String(), func() (any, error) {
		banned, err := s.store.IsSubjectBanned(ctx, subjectID, time.Now().UTC())
		if err != nil {
			return false, err
		}

		s.statusCache.SetBanStatus(subjectID, banned)

		return banned, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check ban status: %w (subjectID=%s)", err, subjectID)
	}

	banned, _ := result.(bool)

	return banned, nil
}

// IsAddressBanned reports whether an address currently has an active ban.
// Address bans are cold path and skip the cache.
func (s *BanService) IsAddressBanned(ctx context.Context, address string) (bool, error) {
	_, err := s.store.GetActiveByAddress(ctx, address, time.Now().UTC())
	if err != nil {
		if errors.Is(err, types.ErrNoActiveBan) {
			return false, nil
		}

		return false, fmt.Errorf("failed to check address ban: %w", err)
	}

	return true, nil
}

// CheckAdmission decides whether a connecting player may join. The check is
// bounded by the policy timeout; on lookup failure the policy decides and
// the error is logged, never returned, so admission always gets an answer.
func (s *BanService) CheckAdmission(ctx context.Context, subjectID uuid.UUID, address *string) *AdmissionDecision {
	if s.policy.AdmissionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.AdmissionTimeout)
		defer cancel()
	}

	now := time.Now().UTC()

	// A cached "not banned" skips the subject lookup entirely. Anything
	// else needs the full ban row for the denial message.
	banned, cached := s.statusCache.GetBanStatus(subjectID)
	if !cached || banned {
		ban, err := s.store.GetActiveBySubject(ctx, subjectID, now)
		switch {
		case err == nil:
			s.statusCache.SetBanStatus(subjectID, true)
			return &AdmissionDecision{Ban: ban}
		case errors.Is(err, types.ErrNoActiveBan):
			s.statusCache.SetBanStatus(subjectID, false)
		default:
			return s.degradedDecision(subjectID, err)
		}
	}

	if address != nil {
		ban, err := s.store.GetActiveByAddress(ctx, *address, now)
		switch {
		case err == nil:
			return &AdmissionDecision{Ban: ban}
		case errors.Is(err, types.ErrNoActiveBan):
		default:
			return s.degradedDecision(subjectID, err)
		}
	}

	return &AdmissionDecision{Allowed: true}
}

func (s *BanService) degradedDecision(subjectID uuid.UUID, err error) *AdmissionDecision {
	s.logger.Error("Ban lookup failed during admission check",
		zap.String("subjectID", subjectID.String()),
		zap.Bool("failClosed", s.policy.FailClosed),
		zap.Error(err))

	return &AdmissionDecision{Allowed: !s.policy.FailClosed, Degraded: true}
}

// ActiveBan returns the subject's active ban.
// Returns types.ErrNoActiveBan when the subject has none.
func (s *BanService) ActiveBan(ctx context.Context, subjectID uuid.UUID) (*types.Ban, error) {
	return s.store.GetActiveBySubject(ctx, subjectID, time.Now().UTC())
}

// ActiveByAddress returns the active ban on file for an address.
func (s *BanService) ActiveByAddress(ctx context.Context, address string) (*types.Ban, error) {
	if err := types.ValidateAddress(address); err != nil {
		return nil, err
	}

	return s.store.GetActiveByAddress(ctx, address, time.Now().UTC())
}

// ActivePage returns one page of all currently active bans, newest first.
func (s *BanService) ActivePage(ctx context.Context, page types.Page) ([]*types.Ban, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	return s.store.GetActivePage(ctx, page, time.Now().UTC())
}

// History returns one page of a subject's bans regardless of state.
func (s *BanService) History(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Ban, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	return s.store.GetHistory(ctx, subjectID, page)
}

// SweepExpired deactivates bans whose expiry has passed but are still
// flagged active, invalidating the cache per swept subject. Failures on
// individual records are logged and skipped; the next run retries them.
func (s *BanService) SweepExpired(ctx context.Context, limit int) (int, error) {
	now := time.Now().UTC()

	expired, err := s.store.GetExpiredActive(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bans: %w", err)
	}

	processed := 0

	for _, ban := range expired {
		// Expiry carries no removal actor or reason, which is what
		// distinguishes it from an explicit unban in history views.
		if _, err := s.store.Deactivate(ctx, ban.ID, nil, nil, now); err != nil {
			s.logger.Error("Failed to deactivate expired ban",
				zap.Int64("banID", ban.ID),
				zap.Error(err))

			continue
		}

		s.statusCache.InvalidateBanStatus(ban.SubjectID)

		processed++
	}

	if processed > 0 {
		s.logger.Info("Deactivated expired bans", zap.Int("count", processed))
	}

	return processed, nil
}

// activeWarningCount counts the subject's active warnings for notification
// enrichment. Best-effort: failures degrade to zero.
func (s *BanService) activeWarningCount(ctx context.Context, subjectID uuid.UUID, now time.Time) int {
	count, err := s.warnings.CountActiveBySubject(ctx, subjectID, now)
	if err != nil {
		s.logger.Warn("Failed to count warnings for notification",
			zap.String("subjectID", subjectID.String()),
			zap.Error(err))

		return 0
	}

	return count
}
