package utils

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"ccasino/models"
)

// LedgerSuite runs the same contract against every ledger backend
type LedgerSuite struct {
	suite.Suite
	open   func(t *testing.T) Ledger
	ledger Ledger
	ctx    context.Context
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = s.open(s.T())
}

func (s *LedgerSuite) TearDownTest() {
	if s.ledger != nil {
		_ = s.ledger.Close()
	}
}

func (s *LedgerSuite) TestFirstAccessCreatesZeroRecord() {
	p, err := s.ledger.GetPlayer(s.ctx, 101)
	s.Require().NoError(err)
	s.Equal(int64(101), p.ID)
	s.Equal(int64(0), p.Credits)
	s.Equal(int64(0), p.Score)
	s.Equal(0, p.CheatStrikes)
	s.Nil(p.LastFreeCreditsAt)
}

func (s *LedgerSuite) TestIncrements() {
	p, err := s.ledger.UpdatePlayer(s.ctx, 7, models.PlayerUpdate{Name: "Mia", CreditsIncrement: 20})
	s.Require().NoError(err)
	s.Equal(int64(20), p.Credits)
	s.Equal("Mia", p.Name)

	p, err = s.ledger.UpdatePlayer(s.ctx, 7, models.PlayerUpdate{CreditsIncrement: -5, ScoreIncrement: -5, CheatStrikesIncrement: 1})
	s.Require().NoError(err)
	s.Equal(int64(15), p.Credits)
	s.Equal(int64(-5), p.Score)
	s.Equal(1, p.CheatStrikes)
	s.Equal("Mia", p.Name, "empty name leaves the stored one")

	got, err := s.ledger.GetPlayer(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(p.Credits, got.Credits)
	s.Equal(p.Score, got.Score)
}

func (s *LedgerSuite) TestOverdraftRefused() {
	_, err := s.ledger.UpdatePlayer(s.ctx, 8, models.PlayerUpdate{CreditsIncrement: 10})
	s.Require().NoError(err)

	_, err = s.ledger.UpdatePlayer(s.ctx, 8, models.PlayerUpdate{CreditsIncrement: -11, ScoreIncrement: 3})
	s.ErrorIs(err, ErrInsufficientFunds)
	s.Equal(NotEnoughChips, ReplyText(err))

	p, err := s.ledger.GetPlayer(s.ctx, 8)
	s.Require().NoError(err)
	s.Equal(int64(10), p.Credits)
	s.Equal(int64(0), p.Score, "refused update applies nothing")

	_, err = s.ledger.UpdatePlayer(s.ctx, 8, models.PlayerUpdate{CreditsIncrement: -10})
	s.NoError(err, "spending down to zero is fine")
}

func (s *LedgerSuite) TestStipendTimestamp() {
	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	_, err := s.ledger.UpdatePlayer(s.ctx, 9, models.PlayerUpdate{CreditsIncrement: 20, LastFreeCreditsAt: &at})
	s.Require().NoError(err)

	p, err := s.ledger.GetPlayer(s.ctx, 9)
	s.Require().NoError(err)
	s.Require().NotNil(p.LastFreeCreditsAt)
	s.True(p.LastFreeCreditsAt.Equal(at))
}

func (s *LedgerSuite) TestTopPlayers() {
	scores := map[int64]int64{1: 5, 2: 50, 3: -10, 4: 20}
	for id, score := range scores {
		_, err := s.ledger.UpdatePlayer(s.ctx, id, models.PlayerUpdate{ScoreIncrement: score})
		s.Require().NoError(err)
	}

	top, err := s.ledger.TopPlayers(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal(int64(2), top[0].ID)
	s.Equal(int64(4), top[1].ID)
	s.Equal(int64(1), top[2].ID)
	s.Equal(int64(50), top[0].Score)
}

func (s *LedgerSuite) TestConcurrentDebitsNeverOverdraw() {
	_, err := s.ledger.UpdatePlayer(s.ctx, 11, models.PlayerUpdate{CreditsIncrement: 10})
	s.Require().NoError(err)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ledger.UpdatePlayer(s.ctx, 11, models.PlayerUpdate{CreditsIncrement: -1}); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(10, won)
	p, err := s.ledger.GetPlayer(s.ctx, 11)
	s.Require().NoError(err)
	s.Equal(int64(0), p.Credits)
}

func TestMemoryLedger(t *testing.T) {
	suite.Run(t, &LedgerSuite{open: func(t *testing.T) Ledger {
		return NewMemoryLedger(quartz.NewMock(t))
	}})
}

func TestSQLiteLedger(t *testing.T) {
	suite.Run(t, &LedgerSuite{open: func(t *testing.T) Ledger {
		l, err := NewSQLiteLedger(context.Background(), ":memory:")
		require.NoError(t, err)
		return l
	}})
}

func TestSQLiteLedgerPersists(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/data/casino.db"

	l, err := NewSQLiteLedger(ctx, path)
	require.NoError(t, err)
	_, err = l.UpdatePlayer(ctx, 5, models.PlayerUpdate{Name: "Ivy", CreditsIncrement: 42})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = NewSQLiteLedger(ctx, path)
	require.NoError(t, err)
	defer l.Close()
	p, err := l.GetPlayer(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Ivy", p.Name)
	assert.Equal(t, int64(42), p.Credits)
}

func TestRedisLedger(t *testing.T) {
	suite.Run(t, &LedgerSuite{open: func(t *testing.T) Ledger {
		mini := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		return NewRedisLedgerWithClient(client)
	}})
}

func TestPostgresLedger(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	suite.Run(t, &LedgerSuite{open: func(t *testing.T) Ledger {
		l, err := NewPostgresLedger(context.Background(), url)
		require.NoError(t, err)
		_, err = l.pool.Exec(context.Background(), `TRUNCATE players`)
		require.NoError(t, err)
		return l
	}})
}
