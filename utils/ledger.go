package utils

import (
	"context"
	"sort"
	"sync"

	"github.com/coder/quartz"

	"ccasino/models"
)

// Ledger is the persistent store of player credits, score and strikes.
// Implementations create a zero record on first access and apply updates
// atomically, refusing any update that would leave credits negative.
type Ledger interface {
	GetPlayer(ctx context.Context, id int64) (*models.Player, error)
	UpdatePlayer(ctx context.Context, id int64, upd models.PlayerUpdate) (*models.Player, error)
	TopPlayers(ctx context.Context, limit int) ([]*models.Player, error)
	Close() error
}

// NotEnoughChips is the reply used for every refused debit
const NotEnoughChips = "You don't have enough chips."

// MemoryLedger keeps players in process memory
type MemoryLedger struct {
	mutex   sync.Mutex
	players map[int64]*models.Player
	clock   quartz.Clock
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger(clock quartz.Clock) *MemoryLedger {
	return &MemoryLedger{
		players: make(map[int64]*models.Player),
		clock:   clock,
	}
}

func (m *MemoryLedger) getLocked(id int64) *models.Player {
	p, ok := m.players[id]
	if !ok {
		p = models.NewPlayer(id, m.clock.Now())
		m.players[id] = p
	}
	return p
}

func (m *MemoryLedger) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p := *m.getLocked(id)
	return &p, nil
}

func (m *MemoryLedger) UpdatePlayer(ctx context.Context, id int64, upd models.PlayerUpdate) (*models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p := m.getLocked(id)
	if !p.Apply(upd) {
		return nil, InsufficientFundsError(NotEnoughChips)
	}
	out := *p
	return &out, nil
}

func (m *MemoryLedger) TopPlayers(ctx context.Context, limit int) ([]*models.Player, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]*models.Player, 0, len(m.players))
	for _, p := range m.players {
		cp := *p
		out = append(out, &cp)
	}
	sortByScore(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryLedger) Close() error {
	return nil
}

func sortByScore(players []*models.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score == players[j].Score {
			return players[i].ID < players[j].ID
		}
		return players[i].Score > players[j].Score
	})
}
