package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robalyx/aegis/internal/database/types"
)

func TestWarningIsCurrentlyActive(t *testing.T) {
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
			name:      "active with no expiry",
			active:    true,
			expiresAt: nil,
			want:      true,
		},
		{
			name:      "active with future expiry",
			active:    true,
			expiresAt: &future,
			want:      true,
		},
		{
			name:      "flagged active but expiry passed",
			active:    true,
			expiresAt: &past,
			want:      false,
		},
		{
			name:      "flagged active with expiry right now",
			active:    true,
			expiresAt: &now,
			want:      false,
		},
		{
			name:      "deactivated with no expiry",
			active:    false,
			expiresAt: nil,
			want:      false,
		},
		{
			name:      "deactivated with future expiry",
			active:    false,
			expiresAt: &future,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &types.Warning{Active: tt.active, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, w.IsCurrentlyActive(now))
		})
	}
}

func TestWarningIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&types.Warning{ExpiresAt: nil}).IsExpired(now))
	assert.False(t, (&types.Warning{ExpiresAt: &future}).IsExpired(now))
	assert.True(t, (&types.Warning{ExpiresAt: &past}).IsExpired(now))
	assert.True(t, (&types.Warning{ExpiresAt: &now}).IsExpired(now))
}
