package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstThenDeny(t *testing.T) {
	l := NewLimiter()

	assert.True(t, l.Allow("cred-00", 2, 0))
	assert.True(t, l.Allow("cred-00", 2, 0))
	assert.False(t, l.Allow("cred-00", 2, 0))

	// Independent key gets its own bucket.
	assert.True(t, l.Allow("cred-01", 2, 0))
}

func TestLimiterRefills(t *testing.T) {
	l := NewLimiter()

	assert.True(t, l.Allow("k", 1, 1000))
	assert.False(t, l.Allow("k", 1, 1000))

	time.Sleep(5 * time.Millisecond)
	assert.True(t, l.Allow("k", 1, 1000))
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := NewLimiter()

	// Drain the bucket, then cancel while waiting.
	assert.True(t, l.Allow("k", 1, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "k", 1, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
