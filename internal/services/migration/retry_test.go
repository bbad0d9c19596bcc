package migration

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	retries, err := policy.Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	boom := errors.New("boom")
	_, err := policy.Do(func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryFirstTrySucceeds(t *testing.T) {
	policy := DefaultRetryPolicy()

	retries, err := policy.Do(func() error { return nil })

	require.NoError(t, err)
	assert.Equal(t, 0, retries)
}

func TestRetryZeroAttemptsStillRunsOnce(t *testing.T) {
	policy := RetryPolicy{}

	calls := 0
	_, err := policy.Do(func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
