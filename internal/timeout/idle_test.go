package timeout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleTimer_FiresWithoutReset(t *testing.T) {
	ctx, it := NewIdleTimer(context.Background(), 20*time.Millisecond)
	defer it.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("idle timer did not fire")
	}
	assert.True(t, it.TimedOut())
	assert.True(t, errors.Is(context.Cause(ctx), ErrIdleTimeout))
}

func TestIdleTimer_ResetKeepsAlive(t *testing.T) {
	ctx, it := NewIdleTimer(context.Background(), 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		time.Sleep(10 * time.Millisecond)
		it.Reset()
	}
	require.NoError(t, ctx.Err())
	assert.Equal(t, int64(5), it.ResetCount())
	assert.Greater(t, it.LongestIdle(), time.Duration(0))

	it.Stop()
	assert.Error(t, ctx.Err())
	assert.False(t, it.TimedOut())
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
}

func TestIdleTimer_Disabled(t *testing.T) {
	ctx, it := NewIdleTimer(context.Background(), 0)
	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, ctx.Err())
	it.Stop()
	it.Stop()
}

func TestWithRoundDeadline(t *testing.T) {
	ctx, cancel := WithRoundDeadline(context.Background(), 10*time.Millisecond)
	defer cancel()

	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), ErrRoundDeadline)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}
