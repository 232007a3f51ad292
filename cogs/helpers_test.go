package cogs

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"ccasino/models"
	"ccasino/utils"
)

var (
	alice = utils.Sender{ID: 1, Name: "Alice"}
	bob   = utils.Sender{ID: 2, Name: "Bob"}
	admin = utils.Sender{ID: 9, Name: "Boss", Admin: true}
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type recorder struct {
	mutex      sync.Mutex
	broadcasts []string
	replies    []string
	whispers   []string
}

func (r *recorder) Reply(ctx context.Context, to utils.Sender, text string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *recorder) Whisper(ctx context.Context, to utils.Sender, text string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.whispers = append(r.whispers, text)
	return nil
}

func (r *recorder) Broadcast(ctx context.Context, text string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.broadcasts = append(r.broadcasts, text)
	return nil
}

func (r *recorder) lastReply() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1]
}

func (r *recorder) lastBroadcast() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.broadcasts) == 0 {
		return ""
	}
	return r.broadcasts[len(r.broadcasts)-1]
}

func (r *recorder) lastWhisper() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.whispers) == 0 {
		return ""
	}
	return r.whispers[len(r.whispers)-1]
}

type fixture struct {
	casino   *Casino
	clock    *quartz.Mock
	ledger   *utils.MemoryLedger
	wardrobe *utils.Wardrobe
	msgs     *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := quartz.NewMock(t)
	f := &fixture{
		clock:    clock,
		ledger:   utils.NewMemoryLedger(clock),
		wardrobe: utils.NewWardrobe(),
		msgs:     &recorder{},
	}
	casino, err := NewCasino(Options{
		Ledger:    f.ledger,
		Messenger: f.msgs,
		Avatar:    f.wardrobe,
		Clock:     clock,
		Rand:      utils.NewRand(1),
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	f.casino = casino
	// the regulars have already had today's chips
	for _, s := range []utils.Sender{alice, bob, admin} {
		casino.roster.Seen(s)
		casino.stipendDue[s.ID] = clock.Now().Add(utils.StipendCooldown)
	}
	return f
}

func (f *fixture) handle(sender utils.Sender, line string) {
	f.casino.Handle(context.Background(), sender, line)
}

func (f *fixture) fund(t *testing.T, id int64, credits int64) {
	t.Helper()
	_, err := f.ledger.UpdatePlayer(context.Background(), id, models.PlayerUpdate{CreditsIncrement: credits})
	require.NoError(t, err)
}

func (f *fixture) player(t *testing.T, id int64) *models.Player {
	t.Helper()
	p, err := f.ledger.GetPlayer(context.Background(), id)
	require.NoError(t, err)
	return p
}
