package utils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	rl := NewRateLimiter(clock, 2, time.Second)

	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))
	assert.Equal(t, 2, rl.InFlight())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, rl.Wait(cancelled), context.Canceled)

	clock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, 0, rl.InFlight())
	require.NoError(t, rl.Wait(ctx))
}
