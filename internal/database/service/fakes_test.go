package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/cache"
	"github.com/robalyx/aegis/internal/database/service"
	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/database/types/enum"
	"github.com/robalyx/aegis/internal/notifier"
)

var (
	testSubjectID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testIssuerID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// fakeIdentityStore is an in-memory IdentityStore.
type fakeIdentityStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*types.Identity
	upserts int
	gets    int
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{rows: make(map[uuid.UUID]*types.Identity)}
}

func (f *fakeIdentityStore) add(id uuid.UUID, name, nameKey string) {
	now := time.Now().UTC()
	f.rows[id] = &types.Identity{
		ID: id, Name: name, NameKey: nameKey,
		FirstSeen: now, LastSeen: now, CreatedAt: now, UpdatedAt: now,
	}
}

func (f *fakeIdentityStore) Upsert(_ context.Context, identity *types.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.upserts++

	if existing, ok := f.rows[identity.ID]; ok {
		existing.Name = identity.Name
		existing.NameKey = identity.NameKey
		existing.LastSeen = identity.LastSeen
		if identity.LastAddress != nil {
			existing.LastAddress = identity.LastAddress
		}
		existing.UpdatedAt = identity.UpdatedAt
		*identity = *existing

		return nil
	}

	clone := *identity
	f.rows[identity.ID] = &clone

	return nil
}

func (f *fakeIdentityStore) GetByID(_ context.Context, id uuid.UUID) (*types.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++

	row, ok := f.rows[id]
	if !ok {
		return nil, types.ErrIdentityNotFound
	}

	clone := *row

	return &clone, nil
}

func (f *fakeIdentityStore) GetByNameKey(_ context.Context, nameKey string) (*types.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *types.Identity

	for _, row := range f.rows {
		if row.NameKey != nameKey {
			continue
		}

		if latest == nil || row.LastSeen.After(latest.LastSeen) {
			latest = row
		}
	}

	if latest == nil {
		return nil, types.ErrIdentityNotFound
	}

	clone := *latest

	return &clone, nil
}

func (f *fakeIdentityStore) TouchLastSeen(_ context.Context, id uuid.UUID, address *string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return nil
	}

	row.LastSeen = now
	if address != nil {
		row.LastAddress = address
	}

	row.UpdatedAt = now

	return nil
}

func (f *fakeIdentityStore) Rename(_ context.Context, id uuid.UUID, name, nameKey string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return types.ErrIdentityNotFound
	}

	row.Name = name
	row.NameKey = nameKey
	row.UpdatedAt = now

	return nil
}

// fakeWarningStore is an in-memory WarningStore.
type fakeWarningStore struct {
	mu        sync.Mutex
	rows      []*types.Warning
	nextID    int64
	createErr error
	countErr  error
}

func (f *fakeWarningStore) Create(_ context.Context, warning *types.Warning) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	warning.ID = f.nextID
	clone := *warning
	f.rows = append(f.rows, &clone)

	return nil
}

func (f *fakeWarningStore) GetByID(_ context.Context, id int64) (*types.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ID == id {
			clone := *row
			return &clone, nil
		}
	}

	return nil, types.ErrWarningNotFound
}

func (f *fakeWarningStore) GetActiveBySubject(
	_ context.Context, subjectID uuid.UUID, now time.Time,
) ([]*types.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var active []*types.Warning

	for _, row := range f.rows {
		if row.SubjectID == subjectID && row.IsCurrentlyActive(now) {
			clone := *row
			active = append(active, &clone)
		}
	}

	sortWarningsNewestFirst(active)

	return active, nil
}

func (f *fakeWarningStore) CountActiveBySubject(_ context.Context, subjectID uuid.UUID, now time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for _, row := range f.rows {
		if row.SubjectID == subjectID && row.IsCurrentlyActive(now) {
			count++
		}
	}

	return count, nil
}

func (f *fakeWarningStore) GetHistory(
	_ context.Context, subjectID uuid.UUID, page types.Page,
) ([]*types.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var history []*types.Warning

	for _, row := range f.rows {
		if row.SubjectID == subjectID {
			clone := *row
			history = append(history, &clone)
		}
	}

	sortWarningsNewestFirst(history)

	return pageSlice(history, page), nil
}

func (f *fakeWarningStore) Deactivate(
	_ context.Context, id int64, removedBy *uuid.UUID, reason *string, now time.Time,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ID != id || !row.Active {
			continue
		}

		row.Active = false
		row.RemovedBy = removedBy
		row.RemovedAt = &now
		row.RemovalReason = reason

		return true, nil
	}

	return false, nil
}

func (f *fakeWarningStore) DeactivateAllBySubject(
	_ context.Context, subjectID uuid.UUID, removedBy *uuid.UUID, reason *string, now time.Time,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var cleared int64

	for _, row := range f.rows {
		if row.SubjectID != subjectID || !row.Active {
			continue
		}

		row.Active = false
		row.RemovedBy = removedBy
		row.RemovedAt = &now
		row.RemovalReason = reason
		cleared++
	}

	return cleared, nil
}

func (f *fakeWarningStore) GetExpiredActive(_ context.Context, now time.Time, limit int) ([]*types.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []*types.Warning

	for _, row := range f.rows {
		if row.Active && row.IsExpired(now) {
			clone := *row
			expired = append(expired, &clone)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		if !expired[i].ExpiresAt.Equal(*expired[j].ExpiresAt) {
			return expired[i].ExpiresAt.Before(*expired[j].ExpiresAt)
		}

		return expired[i].ID < expired[j].ID
	})

	if len(expired) > limit {
		expired = expired[:limit]
	}

	return expired, nil
}

// fakeBanStore is an in-memory BanStore with the same supersede-on-create
// semantics as the real model.
type fakeBanStore struct {
	mu        sync.Mutex
	rows      []*types.Ban
	nextID    int64
	createErr error
	lookupErr error
}

func (f *fakeBanStore) Create(_ context.Context, ban *types.Ban) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	reason := types.SupersededReason

	for _, row := range f.rows {
		if !row.Active {
			continue
		}

		sameSubject := row.SubjectID == ban.SubjectID
		sameAddress := ban.Address != nil && row.Address != nil && *row.Address == *ban.Address

		if sameSubject || sameAddress {
			row.Active = false
			row.RemovedBy = &ban.IssuerID
			row.RemovedAt = &ban.CreatedAt
			row.RemovalReason = &reason
		}
	}

	f.nextID++
	ban.ID = f.nextID
	clone := *ban
	f.rows = append(f.rows, &clone)

	return nil
}

func (f *fakeBanStore) GetActiveBySubject(_ context.Context, subjectID uuid.UUID, now time.Time) (*types.Ban, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.SubjectID == subjectID && row.IsCurrentlyActive(now) {
			clone := *row
			return &clone, nil
		}
	}

	return nil, types.ErrNoActiveBan
}

func (f *fakeBanStore) GetActiveByAddress(_ context.Context, address string, now time.Time) (*types.Ban, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.Address != nil && *row.Address == address && row.IsCurrentlyActive(now) {
			clone := *row
			return &clone, nil
		}
	}

	return nil, types.ErrNoActiveBan
}

func (f *fakeBanStore) IsSubjectBanned(ctx context.Context, subjectID uuid.UUID, now time.Time) (bool, error) {
	_, err := f.GetActiveBySubject(ctx, subjectID, now)
	if err != nil {
		if errors.Is(err, types.ErrNoActiveBan) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (f *fakeBanStore) GetActivePage(_ context.Context, page types.Page, now time.Time) ([]*types.Ban, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var active []*types.Ban

	for _, row := range f.rows {
		if row.IsCurrentlyActive(now) {
			clone := *row
			active = append(active, &clone)
		}
	}

	sortBansNewestFirst(active)

	return pageSlice(active, page), nil
}

func (f *fakeBanStore) GetHistory(_ context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Ban, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var history []*types.Ban

	for _, row := range f.rows {
		if row.SubjectID == subjectID {
			clone := *row
			history = append(history, &clone)
		}
	}

	sortBansNewestFirst(history)

	return pageSlice(history, page), nil
}

func (f *fakeBanStore) Deactivate(
	_ context.Context, id int64, removedBy *uuid.UUID, reason *string, now time.Time,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ID != id || !row.Active {
			continue
		}

		row.Active = false
		row.RemovedBy = removedBy
		row.RemovedAt = &now
		row.RemovalReason = reason

		return true, nil
	}

	return false, nil
}

func (f *fakeBanStore) GetExpiredActive(_ context.Context, now time.Time, limit int) ([]*types.Ban, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []*types.Ban

	for _, row := range f.rows {
		if row.Active && row.IsExpired(now) {
			clone := *row
			expired = append(expired, &clone)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		if !expired[i].ExpiresAt.Equal(*expired[j].ExpiresAt) {
			return expired[i].ExpiresAt.Before(*expired[j].ExpiresAt)
		}

		return expired[i].ID < expired[j].ID
	})

	if len(expired) > limit {
		expired = expired[:limit]
	}

	return expired, nil
}

// fakeKickStore is an in-memory KickStore.
type fakeKickStore struct {
	mu        sync.Mutex
	rows      []*types.Kick
	nextID    int64
	createErr error
}

func (f *fakeKickStore) Create(_ context.Context, kick *types.Kick) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	kick.ID = f.nextID
	clone := *kick
	f.rows = append(f.rows, &clone)

	return nil
}

func (f *fakeKickStore) GetHistory(_ context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Kick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var history []*types.Kick

	for _, row := range f.rows {
		if row.SubjectID == subjectID {
			clone := *row
			history = append(history, &clone)
		}
	}

	sort.Slice(history, func(i, j int) bool {
		if !history[i].CreatedAt.Equal(history[j].CreatedAt) {
			return history[i].CreatedAt.After(history[j].CreatedAt)
		}

		return history[i].ID > history[j].ID
	})

	return pageSlice(history, page), nil
}

func (f *fakeKickStore) CountRecentBySubject(_ context.Context, subjectID uuid.UUID, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for _, row := range f.rows {
		if row.SubjectID == subjectID && row.CreatedAt.After(since) {
			count++
		}
	}

	return count, nil
}

// fakeThresholdStore is an in-memory ThresholdStore. Disabled thresholds
// behave as absent, matching the real model's query.
type fakeThresholdStore struct {
	mu   sync.Mutex
	rows map[int]*types.EscalationThreshold
}

func (f *fakeThresholdStore) GetByCount(_ context.Context, warningCount int) (*types.EscalationThreshold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	threshold, ok := f.rows[warningCount]
	if !ok || !threshold.Enabled {
		return nil, types.ErrThresholdNotFound
	}

	clone := *threshold

	return &clone, nil
}

// recordingNotifier captures events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (r *recordingNotifier) Notify(_ context.Context, event notifier.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recordingNotifier) Close(context.Context) {}

func (r *recordingNotifier) byKind(kind notifier.EventKind) []notifier.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []notifier.Event

	for _, event := range r.events {
		if event.Kind == kind {
			matched = append(matched, event)
		}
	}

	return matched
}

func sortWarningsNewestFirst(warnings []*types.Warning) {
	sort.Slice(warnings, func(i, j int) bool {
		if !warnings[i].CreatedAt.Equal(warnings[j].CreatedAt) {
			return warnings[i].CreatedAt.After(warnings[j].CreatedAt)
		}

		return warnings[i].ID > warnings[j].ID
	})
}

func sortBansNewestFirst(bans []*types.Ban) {
	sort.Slice(bans, func(i, j int) bool {
		if !bans[i].CreatedAt.Equal(bans[j].CreatedAt) {
			return bans[i].CreatedAt.After(bans[j].CreatedAt)
		}

		return bans[i].ID > bans[j].ID
	})
}

func pageSlice[T any](rows []T, page types.Page) []T {
	start := page.Offset()
	if start >= len(rows) {
		return nil
	}

	end := start + page.Size
	if end > len(rows) {
		end = len(rows)
	}

	return rows[start:end]
}

// testEnv wires the full service graph over the fakes.
type testEnv struct {
	identityRows *fakeIdentityStore
	warningRows  *fakeWarningStore
	banRows      *fakeBanStore
	kickRows     *fakeKickStore
	thresholds   *fakeThresholdStore
	sink         *recordingNotifier
	statusCache  *cache.StatusCache

	identity *service.IdentityService
	warnings *service.WarningService
	bans     *service.BanService
	kicks    *service.KickService
}

// defaultThresholds is the 3-kick / 5-tempban / 7-permban ladder.
func defaultThresholds() map[int]*types.EscalationThreshold {
	day := 24 * time.Hour

	return map[int]*types.EscalationThreshold{
		3: {ID: 1, WarningCount: 3, Action: enum.ThresholdActionKick, Enabled: true},
		5: {ID: 2, WarningCount: 5, Action: enum.ThresholdActionTempBan, Duration: &day, Enabled: true},
		7: {ID: 3, WarningCount: 7, Action: enum.ThresholdActionPermBan, Enabled: true},
	}
}

func newTestEnv(t *testing.T, policy service.BanPolicy) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	statusCache := cache.NewStatusCache(cache.StatusCacheOptions{Enabled: true}, logger)
	t.Cleanup(statusCache.Close)

	env := &testEnv{
		identityRows: newFakeIdentityStore(),
		warningRows:  &fakeWarningStore{},
		banRows:      &fakeBanStore{},
		kickRows:     &fakeKickStore{},
		thresholds:   &fakeThresholdStore{rows: defaultThresholds()},
		sink:         &recordingNotifier{},
		statusCache:  statusCache,
	}

	env.identityRows.add(testSubjectID, "Steve", "steve")
	env.identityRows.add(testIssuerID, "Moderator1", "moderator1")

	env.identity = service.NewIdentity(env.identityRows, statusCache, logger)
	env.bans = service.NewBan(
		env.banRows, env.warningRows, env.identity, statusCache, env.sink, policy, logger,
	)
	env.kicks = service.NewKick(env.kickRows, env.warningRows, env.identity, env.sink, logger)
	env.warnings = service.NewWarning(
		env.warningRows, env.thresholds, env.identity, env.bans, env.kicks, env.sink, logger,
	)

	return env
}
