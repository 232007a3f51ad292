package roulette

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccasino/utils"
)

var (
	alice = utils.Sender{ID: 1, Name: "Alice"}
	bob   = utils.Sender{ID: 2, Name: "Bob"}
)

func TestRoundPaysWinners(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	f.fund(t, alice.ID, 100)
	f.fund(t, bob.ID, 100)

	require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"red", "10"}))
	assert.Equal(t, "Alice bets 10 chips on red", f.msgs.last())
	require.NoError(t, f.table.PlaceBet(ctx, bob, []string{"5", "black"}), "stake first works too")
	assert.Equal(t, int64(90), f.player(t, alice.ID).Credits)

	info := f.table.DescribeRound()
	assert.Equal(t, "betting", info.Phase)
	assert.Equal(t, uint64(1), info.Round)
	require.Len(t, info.Bets, 2)
	assert.Equal(t, "black", info.Bets[1].Target)

	f.next(t)
	assert.Equal(t, "No more bets! The wheel is spinning...", f.msgs.last())
	assert.Equal(t, "spinning", f.table.DescribeRound().Phase)
	err := f.table.PlaceBet(ctx, alice, []string{"red", "1"})
	assert.ErrorIs(t, err, utils.ErrStateConflict)

	f.next(t)
	assert.Equal(t, "1 red 🟥 wins.\nAlice wins 20 chips!\nBob loses 5 chips.", f.msgs.last())
	alicePlayer := f.player(t, alice.ID)
	assert.Equal(t, int64(110), alicePlayer.Credits)
	assert.Equal(t, int64(10), alicePlayer.Score)
	bobPlayer := f.player(t, bob.ID)
	assert.Equal(t, int64(95), bobPlayer.Credits)
	assert.Equal(t, int64(-5), bobPlayer.Score)

	info = f.table.DescribeRound()
	assert.Equal(t, "cooldown", info.Phase)
	assert.Equal(t, "1 red 🟥", info.Result)
	err = f.table.PlaceBet(ctx, alice, []string{"red", "1"})
	assert.Equal(t, "The next game hasn't started yet.", utils.ReplyText(err))

	f.next(t)
	assert.Equal(t, "Place bets!", f.msgs.last())
	assert.Equal(t, "idle", f.table.DescribeRound().Phase)
	require.NoError(t, f.table.WaitIdle(ctx))

	require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"red", "1"}))
	assert.Equal(t, uint64(2), f.table.DescribeRound().Round)
}

func TestBetValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.fund(t, alice.ID, 10)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"red"}, "I couldn't understand that bet. Try, eg. bet red 10 or bet 1-12 boots"},
		{[]string{"red", "10", "extra"}, "I couldn't understand that bet. Try, eg. bet red 10 or bet 1-12 boots"},
		{[]string{"purple", "ten"}, "Invalid bet."},
		{[]string{"purple", "10"}, "Invalid stake."},
		{[]string{"red", "ten"}, "Invalid stake."},
		{[]string{"red", "0"}, "Invalid stake."},
		{[]string{"red", "11"}, utils.NotEnoughChips},
	}
	for _, tt := range tests {
		err := f.table.PlaceBet(ctx, alice, tt.args)
		assert.Equal(t, tt.want, utils.ReplyText(err), "%v", tt.args)
	}
	assert.Equal(t, "idle", f.table.DescribeRound().Phase, "failed bets open no round")
	assert.Equal(t, int64(10), f.player(t, alice.ID).Credits)

	require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"0", "4"}))
	err := f.table.PlaceBet(ctx, alice, []string{"red", "1"})
	assert.Equal(t, "You already placed a bet. Use cancel to cancel it.", utils.ReplyText(err))
	assert.Equal(t, int64(6), f.player(t, alice.ID).Credits)
}

func TestCancelRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	f.fund(t, alice.ID, 50)

	err := f.table.CancelBet(ctx, alice)
	assert.Equal(t, "You don't have a bet in play.", utils.ReplyText(err))

	require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"odd", "20"}))
	assert.Equal(t, int64(30), f.player(t, alice.ID).Credits)
	require.NoError(t, f.table.CancelBet(ctx, alice))
	assert.Equal(t, int64(50), f.player(t, alice.ID).Credits)
	assert.Empty(t, f.table.DescribeRound().Bets)

	// The spin wake finds no bets and closes the round without spinning.
	f.next(t)
	assert.Equal(t, "idle", f.table.DescribeRound().Phase)
	assert.Equal(t, int64(50), f.player(t, alice.ID).Credits)
}

func TestCancelCutoff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	f.fund(t, alice.ID, 50)

	require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"odd", "20"}))
	f.clock.Advance(57 * time.Second).MustWait(ctx)

	err := f.table.CancelBet(ctx, alice)
	assert.Equal(t, "You can't cancel your bet now.", utils.ReplyText(err))
	assert.Equal(t, int64(30), f.player(t, alice.ID).Credits)
}

func TestForfeitBets(t *testing.T) {
	ctx := context.Background()

	t.Run("lost forfeit is applied", func(t *testing.T) {
		f := newFixture(t, 2)
		require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"red", "boots"}))
		assert.Equal(t, "Alice bets ballet boots for 5 chips on red", f.msgs.last())

		require.NoError(t, f.table.AdvancePhase(ctx))
		require.NoError(t, f.table.AdvancePhase(ctx))
		assert.Contains(t, f.msgs.last(), "Alice lost and gets: ballet boots!")
		require.Len(t, f.host.applied, 1)
		assert.Equal(t, "boots", f.host.applied[0].ForfeitKey)
		assert.Equal(t, int64(0), f.player(t, alice.ID).Credits)
	})

	t.Run("won forfeit pays chips at the bonus multiplier", func(t *testing.T) {
		f := newFixture(t, 1)
		f.host.multiplier = 2
		require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"red", "boots"}))
		require.NoError(t, f.table.AdvancePhase(ctx))
		require.NoError(t, f.table.AdvancePhase(ctx))

		assert.Contains(t, f.msgs.last(), "Alice wins 20 chips!")
		assert.Empty(t, f.host.applied)
		p := f.player(t, alice.ID)
		assert.Equal(t, int64(20), p.Credits)
		assert.Equal(t, int64(20), p.Score)
		assert.Equal(t, int64(1), f.host.ForfeitMultiplier(), "bonus resets after the round")
	})
}

func TestCloseWaitsForRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	f.fund(t, alice.ID, 10)
	require.NoError(t, f.table.PlaceBet(ctx, alice, []string{"3", "1"}))

	closed := make(chan error, 1)
	go func() { closed <- f.table.Close(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.table.AdvancePhase(ctx))
	}
	require.NoError(t, <-closed)
	assert.Equal(t, int64(45), f.player(t, alice.ID).Credits)

	err := f.table.PlaceBet(ctx, alice, []string{"red", "1"})
	assert.Equal(t, "The table is closing.", utils.ReplyText(err))
}
