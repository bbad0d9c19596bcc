package migration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOptionsDefaults(t *testing.T) {
	opts := RunOptions{}.withDefaults()

	assert.Equal(t, 500, opts.ChunkSize)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, 3, opts.Retry.MaxAttempts)

	custom := RunOptions{ChunkSize: 50, Concurrency: 2, Retry: RetryPolicy{MaxAttempts: 5}}.withDefaults()
	assert.Equal(t, 50, custom.ChunkSize)
	assert.Equal(t, 2, custom.Concurrency)
	assert.Equal(t, 5, custom.Retry.MaxAttempts)
}

func TestStatusForConfidence(t *testing.T) {
	assert.Equal(t, "auto_flagged", statusForConfidence(100))
	assert.Equal(t, "auto_flagged", statusForConfidence(95))
	assert.Equal(t, "needs_review", statusForConfidence(94.9))
	assert.Equal(t, "needs_review", statusForConfidence(85))
}

func TestChunkUpdates(t *testing.T) {
	updates := make([]recordUpdate, 7)
	for i := range updates {
		updates[i].id = uuid.New()
	}

	chunks := chunkUpdates(updates, 3)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)
	assert.Len(t, chunks[2], 1)

	assert.Empty(t, chunkUpdates(nil, 3))
}
