package blackjack

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

type recorder struct {
	mutex      sync.Mutex
	broadcasts []string
	replies    []string
}

func (r *recorder) Reply(ctx context.Context, to utils.Sender, text string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *recorder) Whisper(ctx context.Context, to utils.Sender, text string) error {
	return r.Reply(ctx, to, text)
}

func (r *recorder) Broadcast(ctx context.Context, text string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.broadcasts = append(r.broadcasts, text)
	return nil
}

func (r *recorder) last() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.broadcasts) == 0 {
		return ""
	}
	return r.broadcasts[len(r.broadcasts)-1]
}

type host struct {
	mutex      sync.Mutex
	multiplier int64
	applied    []utils.Bet
}

func (h *host) ForfeitMultiplier() int64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.multiplier == 0 {
		return 1
	}
	return h.multiplier
}

func (h *host) ResetForfeitMultiplier() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.multiplier = 1
}

func (h *host) ApplyForfeit(ctx context.Context, bet utils.Bet) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.applied = append(h.applied, bet)
	return nil
}

type fixture struct {
	table  *Table
	clock  *quartz.Mock
	ledger *utils.MemoryLedger
	msgs   *recorder
	host   *host
	shoes  int
}

// newFixture builds a blackjack table whose shoes deal cards in order
func newFixture(t *testing.T, cards ...string) *fixture {
	t.Helper()
	clock := quartz.NewMock(t)
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	ledger := utils.NewMemoryLedger(clock)
	f := &fixture{
		clock:  clock,
		ledger: ledger,
		msgs:   &recorder{},
		host:   &host{},
	}
	env := &utils.TableEnv{
		Ledger:    ledger,
		Messenger: f.msgs,
		Validator: &utils.BetValidator{
			Catalog: utils.DefaultCatalog(),
			Avatar:  utils.NewWardrobe(),
			Locks:   utils.NewLockedItemRegistry(clock),
			Ledger:  ledger,
			Logger:  logger,
		},
		Host:    f.host,
		Clock:   clock,
		Rand:    utils.NewRand(1),
		Logger:  logger,
		Timings: utils.DefaultBlackjackTimings(),
	}
	f.table = NewTable(env)
	f.table.NewShoe = func(decks int) *utils.Shoe {
		f.shoes++
		return utils.NewStackedShoe(utils.MustCards(cards...)...)
	}
	return f
}

func (f *fixture) lastReply() string {
	f.msgs.mutex.Lock()
	defer f.msgs.mutex.Unlock()
	if len(f.msgs.replies) == 0 {
		return ""
	}
	return f.msgs.replies[len(f.msgs.replies)-1]
}

func (f *fixture) broadcasts() []string {
	f.msgs.mutex.Lock()
	defer f.msgs.mutex.Unlock()
	return append([]string(nil), f.msgs.broadcasts...)
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

// next fires the pending wake through the mock clock
func (f *fixture) next(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, w := f.clock.AdvanceNext()
	w.MustWait(ctx)
}
