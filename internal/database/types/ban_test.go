package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/database/types/enum"
)

func TestBanIsCurrentlyActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		active    bool
		expiresAt *time.Time
		want      bool
	}{
		{
			name:      "permanent active ban",
			active:    true,
			expiresAt: nil,
			want:      true,
		},
		{
			name:      "temporary ban still running",
			active:    true,
			expiresAt: &future,
			want:      true,
		},
		{
			name:      "temporary ban expired but not swept",
			active:    true,
			expiresAt: &past,
			want:      false,
		},
		{
			name:      "removed ban",
			active:    false,
			expiresAt: nil,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := &types.Ban{Active: tt.active, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, b.IsCurrentlyActive(now))
		})
	}
}

func TestBanIsPermanent(t *testing.T) {
	t.Parallel()

	assert.True(t, (&types.Ban{Type: enum.BanTypePermanent}).IsPermanent())
	assert.False(t, (&types.Ban{Type: enum.BanTypeTemporary}).IsPermanent())
}

func TestThresholdActionReason(t *testing.T) {
	t.Parallel()

	custom := "Repeated grief after warnings"
	empty := ""

	tests := []struct {
		name      string
		threshold types.EscalationThreshold
		want      string
	}{
		{
			name:      "default message",
			threshold: types.EscalationThreshold{WarningCount: 5},
			want:      "Automatic action after 5 warnings",
		},
		{
			name:      "configured message",
			threshold: types.EscalationThreshold{WarningCount: 5, Message: &custom},
			want:      custom,
		},
		{
			name:      "empty configured message falls back",
			threshold: types.EscalationThreshold{WarningCount: 3, Message: &empty},
			want:      "Automatic action after 3 warnings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.threshold.ActionReason())
		})
	}
}

func TestThresholdTempBanDuration(t *testing.T) {
	t.Parallel()

	custom := 2 * time.Hour
	zero := time.Duration(0)

	assert.Equal(t, types.DefaultTempBanDuration,
		(&types.EscalationThreshold{}).TempBanDuration())
	assert.Equal(t, custom,
		(&types.EscalationThreshold{Duration: &custom}).TempBanDuration())
	assert.Equal(t, types.DefaultTempBanDuration,
		(&types.EscalationThreshold{Duration: &zero}).TempBanDuration())
}
