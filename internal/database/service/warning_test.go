package service_test

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalyx/aegis/internal/database/service"
	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/database/types/enum"
	"github.com/robalyx/aegis/internal/notifier"
)

// TestWarningEscalationLadder drives one subject through eight sequential
// warnings against the 3-kick / 5-tempban / 7-permban ladder and checks that
// each action fires exactly once, at exactly its count.
func TestWarningEscalationLadder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	ctx := t.Context()

	for count := 1; count <= 8; count++ {
		warning, err := env.warnings.Create(ctx, testSubjectID, testIssuerID, "spamming chat", 0)
		require.NoError(t, err, "warning %d", count)
		require.NotZero(t, warning.ID)

		switch count {
		case 1, 2:
			assert.Empty(t, env.kickRows.rows)
			assert.Empty(t, env.banRows.rows)

		case 3:
			require.Len(t, env.kickRows.rows, 1, "kick must fire at exactly 3 warnings")

			kick := env.kickRows.rows[0]
			assert.Equal(t, testSubjectID, kick.SubjectID)
			assert.Equal(t, testIssuerID, kick.IssuerID, "kick is attributed to the warning's issuer")
			assert.Contains(t, kick.Reason, strconv.Itoa(3))
			assert.Empty(t, env.banRows.rows)

		case 4:
			assert.Len(t, env.kickRows.rows, 1, "no second kick at 4 warnings")
			assert.Empty(t, env.banRows.rows)

		case 5:
			require.Len(t, env.banRows.rows, 1, "temp ban must fire at exactly 5 warnings")

			ban := env.banRows.rows[0]
			assert.Equal(t, enum.BanTypeTemporary, ban.Type)
			assert.Equal(t, testIssuerID, ban.IssuerID)
			assert.True(t, ban.Active)
			require.NotNil(t, ban.ExpiresAt)
			assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), *ban.ExpiresAt, time.Minute)

		case 6:
			assert.Len(t, env.banRows.rows, 1, "no new ban at 6 warnings")

		case 7:
			require.Len(t, env.banRows.rows, 2, "perm ban must fire at exactly 7 warnings")

			superseded, permanent := env.banRows.rows[0], env.banRows.rows[1]
			assert.Equal(t, enum.BanTypePermanent, permanent.Type)
			assert.True(t, permanent.Active)
			assert.Nil(t, permanent.ExpiresAt)

			assert.False(t, superseded.Active, "temp ban is superseded by the perm ban")
			require.NotNil(t, superseded.RemovalReason)
			assert.Equal(t, types.SupersededReason, *superseded.RemovalReason)

		case 8:
			assert.Len(t, env.kickRows.rows, 1, "no action at 8 warnings")
			assert.Len(t, env.banRows.rows, 2, "no action at 8 warnings")
		}
	}

	assert.Len(t, env.sink.byKind(notifier.EventWarningCreated), 8)
	assert.Len(t, env.sink.byKind(notifier.EventKickCreated), 1)
	assert.Len(t, env.sink.byKind(notifier.EventBanCreated), 2)

	count, err := env.warnings.CountActive(ctx, testSubjectID)
	require.NoError(t, err)
	assert.Equal(t, 8, count, "bans and kicks never consume warnings")
}

func TestWarningEscalationDisabledThreshold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	env.thresholds.rows = map[int]*types.EscalationThreshold{
		3: {ID: 1, WarningCount: 3, Action: enum.ThresholdActionKick, Enabled: false},
	}

	ctx := t.Context()

	for range 3 {
		_, err := env.warnings.Create(ctx, testSubjectID, testIssuerID, "spamming chat", 0)
		require.NoError(t, err)
	}

	assert.Empty(t, env.kickRows.rows, "disabled thresholds never fire")
}

func TestWarningEscalationUsesThresholdMessage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	message := "Three strikes, take a break"
	env.thresholds.rows = map[int]*types.EscalationThreshold{
		1: {ID: 1, WarningCount: 1, Action: enum.ThresholdActionKick, Message: &message, Enabled: true},
	}

	_, err := env.warnings.Create(t.Context(), testSubjectID, testIssuerID, "spamming chat", 0)
	require.NoError(t, err)

	require.Len(t, env.kickRows.rows, 1)
	assert.Equal(t, message, env.kickRows.rows[0].Reason)
}

// TestWarningEscalationFailureKeepsWarning checks the partial-success
// contract: a failed escalation action surfaces an error, but the warning
// that triggered it stays committed.
func TestWarningEscalationFailureKeepsWarning(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	env.thresholds.rows = map[int]*types.EscalationThreshold{
		1: {ID: 1, WarningCount: 1, Action: enum.ThresholdActionKick, Enabled: true},
	}
	env.kickRows.createErr = errors.New("kick store down")

	warning, err := env.warnings.Create(t.Context(), testSubjectID, testIssuerID, "spamming chat", 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEscalationFailed)
	require.NotNil(t, warning, "the warning is returned despite the failed action")
	assert.NotZero(t, warning.ID)

	require.Len(t, env.warningRows.rows, 1, "the warning is not rolled back")
	assert.True(t, env.warningRows.rows[0].Active)
}

func TestWarningCreateValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	ctx := t.Context()

	tests := []struct {
		name      string
		subjectID uuid.UUID
		issuerID  uuid.UUID
		reason    string
		duration  time.Duration
		wantErr   error
	}{
		{
			name:      "reason too short",
			subjectID: testSubjectID,
			issuerID:  testIssuerID,
			reason:    "ab",
		},
		{
			name:      "negative duration",
			subjectID: testSubjectID,
			issuerID:  testIssuerID,
			reason:    "spamming chat",
			duration:  -time.Hour,
		},
		{
			name:      "unknown subject",
			subjectID: uuid.MustParse("99999999-9999-9999-9999-999999999999"),
			issuerID:  testIssuerID,
			reason:    "spamming chat",
			wantErr:   types.ErrIdentityNotFound,
		},
		{
			name:      "unknown issuer",
			subjectID: testSubjectID,
			issuerID:  uuid.MustParse("99999999-9999-9999-9999-999999999999"),
			reason:    "spamming chat",
			wantErr:   types.ErrIdentityNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.warnings.Create(ctx, tt.subjectID, tt.issuerID, tt.reason, tt.duration)
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.True(t, types.IsValidationError(err))
			}
		})
	}

	assert.Empty(t, env.warningRows.rows, "nothing persists on a rejected create")
}

// TestWarningRemoveDropsCount replays the reference scenario: three warnings
// trigger the kick, removing any one drops the active count back to two.
func TestWarningRemoveDropsCount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	ctx := t.Context()

	var second *types.Warning

	for i := range 3 {
		warning, err := env.warnings.Create(ctx, testSubjectID, testIssuerID, "spamming chat", 0)
		require.NoError(t, err)

		if i == 1 {
			second = warning
		}
	}

	require.Len(t, env.kickRows.rows, 1)

	removed, err := env.warnings.Remove(ctx, second.ID, testIssuerID, "issued by mistake")
	require.NoError(t, err)
	assert.False(t, removed.Active)
	require.NotNil(t, removed.RemovedBy)
	assert.Equal(t, testIssuerID, *removed.RemovedBy)
	require.NotNil(t, removed.RemovalReason)
	assert.Equal(t, "issued by mistake", *removed.RemovalReason)

	count, err := env.warnings.CountActive(ctx, testSubjectID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	active, err := env.warnings.ActiveBySubject(ctx, testSubjectID)
	require.NoError(t, err)
	require.Len(t, active, 2)

	for _, warning := range active {
		assert.NotEqual(t, second.ID, warning.ID)
	}
}

func TestWarningRemoveIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	ctx := t.Context()

	warning, err := env.warnings.Create(ctx, testSubjectID, testIssuerID, "spamming chat", 0)
	require.NoError(t, err)

	_, err = env.warnings.Remove(ctx, warning.ID, testIssuerID, "first")
	require.NoError(t, err)

	// Removing the same warning again succeeds without changing anything.
	again, err := env.warnings.Remove(ctx, warning.ID, testIssuerID, "second")
	require.NoError(t, err)
	assert.False(t, again.Active)
	require.NotNil(t, again.RemovalReason)
	assert.Equal(t, "first", *again.RemovalReason, "the original removal metadata is preserved")

	assert.Len(t, env.sink.byKind(notifier.EventWarningRemoved), 1, "no duplicate removal notification")
}

func TestWarningRemoveNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})

	_, err := env.warnings.Remove(t.Context(), 404, testIssuerID, "")
	assert.ErrorIs(t, err, types.ErrWarningNotFound)
}

func TestWarningClear(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	ctx := t.Context()

	for range 3 {
		_, err := env.warnings.Create(ctx, testSubjectID, testIssuerID, "spamming chat", 0)
		require.NoError(t, err)
	}

	cleared, err := env.warnings.Clear(ctx, testSubjectID, testIssuerID, "fresh start")
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)

	count, err := env.warnings.CountActive(ctx, testSubjectID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// History keeps all three records on file.
	history, err := env.warnings.History(ctx, testSubjectID, types.Page{Number: 0, Size: 10})
	require.NoError(t, err)
	assert.Len(t, history, 3)

	events := env.sink.byKind(notifier.EventWarningsCleared)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].WarningCount)

	// Clearing an already-clean subject reports zero and stays quiet.
	cleared, err = env.warnings.Clear(ctx, testSubjectID, testIssuerID, "again")
	require.NoError(t, err)
	assert.Zero(t, cleared)
	assert.Len(t, env.sink.byKind(notifier.EventWarningsCleared), 1)
}

// TestWarningSweepExpired seeds warnings whose expiry already passed but
// are still flagged active, and checks the reconciler path converges.
func TestWarningSweepExpired(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})
	ctx := t.Context()

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	env.warningRows.rows = []*types.Warning{
		{ID: 1, SubjectID: testSubjectID, IssuerID: testIssuerID, Reason: "old spam", CreatedAt: now.Add(-3 * time.Hour), ExpiresAt: &past, Active: true},
		{ID: 2, SubjectID: testSubjectID, IssuerID: testIssuerID, Reason: "older spam", CreatedAt: now.Add(-4 * time.Hour), ExpiresAt: &past, Active: true},
		{ID: 3, SubjectID: testSubjectID, IssuerID: testIssuerID, Reason: "fresh spam", CreatedAt: now, ExpiresAt: &future, Active: true},
	}
	env.warningRows.nextID = 3

	// The flag has not been swept yet, but expired records must already be
	// excluded from every read path.
	count, err := env.warnings.CountActive(ctx, testSubjectID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	processed, err := env.warnings.SweepExpired(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	for _, row := range env.warningRows.rows[:2] {
		assert.False(t, row.Active)
		assert.Nil(t, row.RemovedBy, "expiry records no removal actor")
		assert.Nil(t, row.RemovalReason, "expiry records no removal reason")
		assert.NotNil(t, row.RemovedAt)
	}

	assert.True(t, env.warningRows.rows[2].Active, "unexpired warnings are untouched")

	// A second sweep finds nothing left to do.
	processed, err = env.warnings.SweepExpired(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestWarningCreateWithDuration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, service.BanPolicy{})

	warning, err := env.warnings.Create(t.Context(), testSubjectID, testIssuerID, "spamming chat", 30*24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, warning.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), *warning.ExpiresAt, time.Minute)

	events := env.sink.byKind(notifier.EventWarningCreated)
	require.Len(t, events, 1)
	assert.Equal(t, "Steve", events[0].Subject.Name)
	assert.Equal(t, "Moderator1", events[0].Issuer.Name)
	assert.Equal(t, 1, events[0].WarningCount)
	assert.NotNil(t, events[0].ExpiresAt)
}
