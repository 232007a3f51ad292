package utils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T) (*TableEnv, *quartz.Mock, *fakeHost, *recordingMessenger) {
	t.Helper()
	clock := quartz.NewMock(t)
	ledger := NewMemoryLedger(clock)
	host := &fakeHost{}
	messenger := &recordingMessenger{}
	env := &TableEnv{
		Ledger:    ledger,
		Messenger: messenger,
		Validator: &BetValidator{
			Catalog: DefaultCatalog(),
			Avatar:  NewWardrobe(),
			Locks:   NewLockedItemRegistry(clock),
			Ledger:  ledger,
			Logger:  testLogger(),
		},
		Host:    host,
		Clock:   clock,
		Rand:    NewRand(1),
		Logger:  testLogger(),
		Timings: DefaultRouletteTimings(),
	}
	return env, clock, host, messenger
}

func TestBaseTableLifecycle(t *testing.T) {
	ctx := context.Background()
	env, clock, _, _ := newTestEnv(t)
	var b BaseTable
	b.InitBase(env, "test")

	require.NoError(t, b.WaitIdle(ctx), "a new table is idle")

	b.Lock()
	require.NoError(t, b.OpenRoundLocked())
	assert.Equal(t, uint64(1), b.RoundLocked())
	assert.Equal(t, PhaseBetting, b.PhaseLocked())
	assert.NoError(t, b.BetGateLocked())

	fired := make(chan struct{}, 1)
	b.ScheduleLocked(10*time.Second, func(ctx context.Context) {
		b.SetPhaseLocked(PhaseSpinning)
		fired <- struct{}{}
	})
	assert.Equal(t, clock.Now().Add(10*time.Second), b.DeadlineLocked())
	assert.False(t, b.SetPhaseLocked(PhaseIdle), "no going backwards")
	b.Unlock()

	_, w := clock.AdvanceNext()
	w.MustWait(ctx)
	select {
	case <-fired:
	default:
		t.Fatal("wake did not fire")
	}

	b.Lock()
	assert.Equal(t, PhaseSpinning, b.PhaseLocked())
	assert.ErrorIs(t, b.BetGateLocked(), ErrStateConflict)
	b.FinishRoundLocked()
	b.Unlock()
	assert.NoError(t, b.WaitIdle(ctx))
}

func TestStaleWakeIsIgnored(t *testing.T) {
	env, _, _, _ := newTestEnv(t)
	var b BaseTable
	b.InitBase(env, "test")

	calls := 0
	b.Lock()
	require.NoError(t, b.OpenRoundLocked())
	b.ScheduleLocked(time.Minute, func(ctx context.Context) { calls++ })
	old := b.stamp
	b.FinishRoundLocked()
	require.NoError(t, b.OpenRoundLocked())
	b.ScheduleLocked(time.Minute, func(ctx context.Context) { calls += 10 })
	b.Unlock()

	b.fire(old)
	assert.Equal(t, 0, calls, "wake from round 1 must not run in round 2")

	b.fire(b.stamp)
	assert.Equal(t, 10, calls)
}

func TestCancelGateAndExtend(t *testing.T) {
	ctx := context.Background()
	env, clock, _, _ := newTestEnv(t)
	var b BaseTable
	b.InitBase(env, "test")

	b.Lock()
	require.NoError(t, b.OpenRoundLocked())
	b.ScheduleLocked(60*time.Second, func(ctx context.Context) {})
	assert.NoError(t, b.CancelGateLocked())
	b.Unlock()

	clock.Advance(57 * time.Second).MustWait(ctx)
	b.Lock()
	assert.ErrorIs(t, b.CancelGateLocked(), ErrStateConflict, "inside the cutoff")
	b.ExtendLocked(15 * time.Second)
	assert.Equal(t, clock.Now().Add(18*time.Second), b.DeadlineLocked())
	assert.NoError(t, b.CancelGateLocked())
	b.Unlock()
}

func TestAdvanceAndClose(t *testing.T) {
	ctx := context.Background()
	env, _, _, _ := newTestEnv(t)
	var b BaseTable
	b.InitBase(env, "test")

	b.Lock()
	assert.ErrorIs(t, b.AdvanceLocked(ctx), ErrStateConflict)
	require.NoError(t, b.OpenRoundLocked())
	b.ScheduleLocked(time.Hour, func(ctx context.Context) { b.FinishRoundLocked() })
	b.Unlock()

	done := make(chan error, 1)
	go func() { done <- b.CloseTable(ctx) }()

	b.Lock()
	require.NoError(t, b.AdvanceLocked(ctx))
	b.Unlock()
	require.NoError(t, <-done)

	b.Lock()
	assert.ErrorIs(t, b.BetGateLocked(), ErrStateConflict, "closed tables take no bets")
	assert.ErrorIs(t, b.OpenRoundLocked(), ErrStateConflict)
	b.Unlock()
}

func TestEscrowAndSettle(t *testing.T) {
	ctx := context.Background()
	env, _, host, _ := newTestEnv(t)
	alice := Sender{ID: 1, Name: "Alice"}
	_, err := env.Ledger.UpdatePlayer(ctx, alice.ID, playerCredits(100))
	require.NoError(t, err)

	t.Run("credit win scores net winnings", func(t *testing.T) {
		bet, err := env.Escrow(ctx, alice, Stake{Amount: 10})
		require.NoError(t, err)
		assertCredits(t, env, alice.ID, 90)

		line, err := env.Settle(ctx, bet, Payout{Outcome: OutcomeWin, Credits: 20})
		require.NoError(t, err)
		assert.Equal(t, "Alice wins 20 chips!", line)
		p := assertCredits(t, env, alice.ID, 110)
		assert.Equal(t, int64(10), p.Score)
	})

	t.Run("credit push returns the stake", func(t *testing.T) {
		bet, err := env.Escrow(ctx, alice, Stake{Amount: 10})
		require.NoError(t, err)
		line, err := env.Settle(ctx, bet, Payout{Outcome: OutcomePush, Credits: 10})
		require.NoError(t, err)
		assert.Equal(t, "Alice pushes and gets 10 chips back.", line)
		p := assertCredits(t, env, alice.ID, 110)
		assert.Equal(t, int64(10), p.Score)
	})

	t.Run("credit loss", func(t *testing.T) {
		bet, err := env.Escrow(ctx, alice, Stake{Amount: 30})
		require.NoError(t, err)
		line, err := env.Settle(ctx, bet, Payout{Outcome: OutcomeLose})
		require.NoError(t, err)
		assert.Equal(t, "Alice loses 30 chips.", line)
		p := assertCredits(t, env, alice.ID, 80)
		assert.Equal(t, int64(-20), p.Score)
	})

	t.Run("overdraft refused", func(t *testing.T) {
		_, err := env.Escrow(ctx, alice, Stake{Amount: 81})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assertCredits(t, env, alice.ID, 80)
	})

	t.Run("forfeit stakes take the multiplier and hold no credits", func(t *testing.T) {
		host.multiplier = 3
		bet, err := env.Escrow(ctx, alice, Stake{Amount: 5, ForfeitKey: "boots"})
		require.NoError(t, err)
		assert.Equal(t, int64(15), bet.Stake)
		assertCredits(t, env, alice.ID, 80)

		line, err := env.Settle(ctx, bet, Payout{Outcome: OutcomePush})
		require.NoError(t, err)
		assert.Equal(t, "Alice pushes, the forfeit is void.", line)
		assert.Empty(t, host.applied)

		line, err = env.Settle(ctx, bet, Payout{Outcome: OutcomeLose})
		require.NoError(t, err)
		assert.Equal(t, "Alice lost and gets: ballet boots!", line)
		require.Len(t, host.applied, 1)

		line, err = env.Settle(ctx, bet, Payout{Outcome: OutcomeWin, Credits: 15})
		require.NoError(t, err)
		assert.Equal(t, "Alice wins 15 chips!", line)
		p := assertCredits(t, env, alice.ID, 95)
		assert.Equal(t, int64(-5), p.Score, "forfeit wins score the full payout")
	})
}

func TestDebitAndRefund(t *testing.T) {
	ctx := context.Background()
	env, _, _, _ := newTestEnv(t)
	_, err := env.Ledger.UpdatePlayer(ctx, 4, playerCredits(10))
	require.NoError(t, err)

	require.NoError(t, env.Debit(ctx, 4, 10))
	assert.ErrorIs(t, env.Debit(ctx, 4, 1), ErrInsufficientFunds)
	require.NoError(t, env.Refund(ctx, Bet{PlayerID: 4, Stake: 10}))
	require.NoError(t, env.Refund(ctx, Bet{PlayerID: 4, Stake: 10, ForfeitKey: "gag"}))
	assertCredits(t, env, 4, 10)
}
