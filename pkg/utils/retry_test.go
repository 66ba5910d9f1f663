package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/robalyx/aegis/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary error")

func testRetryOptions() utils.RetryOptions {
	return utils.RetryOptions{
		MaxElapsedTime:  100 * time.Millisecond,
		InitialInterval: 1 * time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds first try", func(t *testing.T) {
		t.Parallel()

		calls := 0
		result, err := utils.WithRetry(t.Context(), func() (int, error) {
			calls++
			return 42, nil
		}, testRetryOptions())

		require.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		result, err := utils.WithRetry(t.Context(), func() (string, error) {
			calls++
			if calls < 3 {
				return "", errTemporary
			}

			return "ok", nil
		}, testRetryOptions())

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("fails all retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := utils.WithRetry(t.Context(), func() (int, error) {
			calls++
			return 0, errTemporary
		}, testRetryOptions())

		require.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 4, calls) // Initial + 3 retries
	})
}
