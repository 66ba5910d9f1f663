package types_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalyx/aegis/internal/database/types"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid simple", username: "Steve"},
		{name: "valid with underscore", username: "Player_One"},
		{name: "valid with digits", username: "abc123"},
		{name: "valid minimum length", username: "abc"},
		{name: "valid maximum length", username: strings.Repeat("a", 16)},
		{name: "empty", username: "", wantErr: true},
		{name: "whitespace only", username: "   ", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 17), wantErr: true},
		{name: "illegal characters", username: "bad-name!", wantErr: true},
		{name: "embedded space", username: "two words", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := types.ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsValidationError(err))

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestValidateReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reason  string
		wantErr bool
	}{
		{name: "valid", reason: "Griefing spawn"},
		{name: "minimum length", reason: "abc"},
		{name: "maximum length", reason: strings.Repeat("a", 500)},
		{name: "empty", reason: "", wantErr: true},
		{name: "whitespace only", reason: "  \t ", wantErr: true},
		{name: "too short", reason: "ab", wantErr: true},
		{name: "too long", reason: strings.Repeat("a", 501), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := types.ValidateReason(tt.reason)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsValidationError(err))

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestValidateAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "valid ipv4", address: "203.0.113.7"},
		{name: "valid ipv6", address: "2001:db8::1"},
		{name: "empty", address: "", wantErr: true},
		{name: "hostname", address: "example.com", wantErr: true},
		{name: "out of range octet", address: "256.1.1.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := types.ValidateAddress(tt.address)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestPageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    types.Page
		wantErr bool
	}{
		{name: "valid", page: types.Page{Number: 0, Size: 10}},
		{name: "last allowed size", page: types.Page{Number: 3, Size: 100}},
		{name: "negative page", page: types.Page{Number: -1, Size: 10}, wantErr: true},
		{name: "zero size", page: types.Page{Number: 0, Size: 0}, wantErr: true},
		{name: "oversized page", page: types.Page{Number: 0, Size: 101}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.page.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsValidationError(err))

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestPageOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, types.Page{Number: 0, Size: 25}.Offset())
	assert.Equal(t, 50, types.Page{Number: 2, Size: 25}.Offset())
}
