package utils

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccasino/models"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type recordingMessenger struct {
	mutex      sync.Mutex
	broadcasts []string
	replies    []string
}

func (m *recordingMessenger) Reply(ctx context.Context, to Sender, text string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.replies = append(m.replies, text)
	return nil
}

func (m *recordingMessenger) Whisper(ctx context.Context, to Sender, text string) error {
	return m.Reply(ctx, to, text)
}

func (m *recordingMessenger) Broadcast(ctx context.Context, text string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.broadcasts = append(m.broadcasts, text)
	return nil
}

type fakeHost struct {
	multiplier int64
	applied    []Bet
	resets     int
}

func (h *fakeHost) ForfeitMultiplier() int64 {
	if h.multiplier == 0 {
		return 1
	}
	return h.multiplier
}

func (h *fakeHost) ResetForfeitMultiplier() {
	h.resets++
	h.multiplier = 1
}

func (h *fakeHost) ApplyForfeit(ctx context.Context, bet Bet) error {
	h.applied = append(h.applied, bet)
	return nil
}

type recordingPunisher struct {
	strikes []int
}

func (p *recordingPunisher) PunishCheater(ctx context.Context, sender Sender, strikes int) {
	p.strikes = append(p.strikes, strikes)
}

func playerCredits(n int64) models.PlayerUpdate {
	return models.PlayerUpdate{CreditsIncrement: n}
}

func assertCredits(t *testing.T, env *TableEnv, id int64, want int64) *models.Player {
	t.Helper()
	p, err := env.Ledger.GetPlayer(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, want, p.Credits)
	return p
}
