package utils

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"ccasino/models"
)

// wakeTimeout bounds the ledger work done inside one scheduled transition
const wakeTimeout = 30 * time.Second

// TableEnv is everything a table borrows from the process around it
type TableEnv struct {
	Ledger    Ledger
	Messenger Messenger
	Validator *BetValidator
	Host      Host
	Clock     quartz.Clock
	Rand      *rand.Rand
	Logger    *log.Logger
	Timings   Timings
}

// wake stamps a scheduled transition with the round and phase it was
// scheduled for; a wake that no longer matches is stale.
type wake struct {
	round uint64
	phase Phase
	seq   uint64
}

// BaseTable owns the round lifecycle shared by every table variant: the
// phase, the monotonic round id, the single pending wake, and idle waiting.
// Variants embed it and hold its mutex around every state change.
type BaseTable struct {
	sync.Mutex

	Env    *TableEnv
	Logger *log.Logger

	phase    Phase
	round    uint64
	deadline time.Time
	timer    *quartz.Timer
	pending  func(ctx context.Context)
	stamp    wake
	seq      uint64
	idle     chan struct{}
	closing  bool
}

// InitBase prepares the embedded base for a table called name
func (b *BaseTable) InitBase(env *TableEnv, name string) {
	b.Env = env
	b.Logger = env.Logger.WithPrefix(name)
	b.idle = make(chan struct{})
	close(b.idle)
}

// PhaseLocked returns the current phase
func (b *BaseTable) PhaseLocked() Phase {
	return b.phase
}

// RoundLocked returns the current round id
func (b *BaseTable) RoundLocked() uint64 {
	return b.round
}

// DeadlineLocked returns when the pending wake fires, zero if none
func (b *BaseTable) DeadlineLocked() time.Time {
	return b.deadline
}

// Now reads the table clock
func (b *BaseTable) Now() time.Time {
	return b.Env.Clock.Now()
}

// BetGateLocked reports why a new bet cannot be taken right now
func (b *BaseTable) BetGateLocked() error {
	switch b.phase {
	case PhaseIdle:
		if b.closing {
			return StateConflictError("The table is closing.")
		}
		return nil
	case PhaseBetting:
		if !b.deadline.IsZero() && !b.Now().Before(b.deadline) {
			return StateConflictError("Betting has closed for this round.")
		}
		return nil
	case PhaseCooldown:
		return StateConflictError("The next game hasn't started yet.")
	default:
		return StateConflictError("You can't bet right now.")
	}
}

// CancelGateLocked reports why a bet cannot be withdrawn right now
func (b *BaseTable) CancelGateLocked() error {
	if b.phase != PhaseBetting {
		return StateConflictError("You can't cancel your bet now.")
	}
	if !b.deadline.IsZero() && b.deadline.Sub(b.Now()) <= b.Env.Timings.CancelCutoff {
		return StateConflictError("You can't cancel your bet now.")
	}
	return nil
}

// OpenRoundLocked starts a new round in the betting phase
func (b *BaseTable) OpenRoundLocked() error {
	if b.phase != PhaseIdle {
		return InternalError(nil, "round %d still %s", b.round, b.phase)
	}
	if b.closing {
		return StateConflictError("The table is closing.")
	}
	b.round++
	b.phase = PhaseBetting
	b.idle = make(chan struct{})
	b.Logger.Debug("round opened", "round", b.round)
	return nil
}

// SetPhaseLocked moves the round forward. Going backwards is refused.
func (b *BaseTable) SetPhaseLocked(p Phase) bool {
	if p <= b.phase {
		b.Logger.Error("refusing phase regression", "round", b.round, "from", b.phase, "to", p)
		return false
	}
	b.Logger.Debug("phase change", "round", b.round, "from", b.phase, "to", p)
	b.phase = p
	return true
}

// FinishRoundLocked returns the table to idle and releases idle waiters
func (b *BaseTable) FinishRoundLocked() {
	b.CancelWakeLocked()
	b.phase = PhaseIdle
	select {
	case <-b.idle:
	default:
		close(b.idle)
	}
	b.Logger.Debug("round finished", "round", b.round)
}

// ScheduleLocked replaces any pending wake with fn, due after d. The wake
// only runs if the round and phase are unchanged when it fires.
func (b *BaseTable) ScheduleLocked(d time.Duration, fn func(ctx context.Context)) {
	b.CancelWakeLocked()

	b.seq++
	stamp := wake{round: b.round, phase: b.phase, seq: b.seq}
	b.stamp = stamp
	b.pending = fn
	b.deadline = b.Now().Add(d)
	b.timer = b.Env.Clock.AfterFunc(d, func() {
		b.fire(stamp)
	}, "table", "wake")
}

// ExtendLocked pushes the pending wake back by extra
func (b *BaseTable) ExtendLocked(extra time.Duration) {
	if b.pending == nil {
		return
	}
	fn := b.pending
	remaining := b.deadline.Sub(b.Now())
	if remaining < 0 {
		remaining = 0
	}
	b.ScheduleLocked(remaining+extra, fn)
}

// CancelWakeLocked drops the pending wake
func (b *BaseTable) CancelWakeLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = nil
	b.deadline = time.Time{}
}

// AdvanceLocked runs the pending wake now
func (b *BaseTable) AdvanceLocked(ctx context.Context) error {
	if b.pending == nil {
		return StateConflictError("There is nothing to advance.")
	}
	fn := b.pending
	b.CancelWakeLocked()
	fn(ctx)
	return nil
}

func (b *BaseTable) fire(stamp wake) {
	b.Lock()
	defer b.Unlock()

	if b.pending == nil || stamp != b.stamp || stamp.round != b.round || stamp.phase != b.phase {
		b.Logger.Debug("ignoring stale wake", "wake_round", stamp.round, "wake_phase", stamp.phase,
			"round", b.round, "phase", b.phase)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wakeTimeout)
	defer cancel()

	fn := b.pending
	b.pending = nil
	b.timer = nil
	b.deadline = time.Time{}
	fn(ctx)
}

// MarkClosingLocked stops the table from opening further rounds
func (b *BaseTable) MarkClosingLocked() {
	b.closing = true
}

// WaitIdle blocks until the current round has fully finished
func (b *BaseTable) WaitIdle(ctx context.Context) error {
	b.Lock()
	ch := b.idle
	b.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseTable marks the table closing and waits for its round to finish
func (b *BaseTable) CloseTable(ctx context.Context) error {
	b.Lock()
	b.MarkClosingLocked()
	b.Unlock()
	return b.WaitIdle(ctx)
}

// Escrow takes the stake for a validated bet. Credit stakes are debited now;
// forfeit stakes pass the replay check and pick up the bonus multiplier.
func (e *TableEnv) Escrow(ctx context.Context, sender Sender, stake Stake) (Bet, error) {
	bet := Bet{
		PlayerID:   sender.ID,
		PlayerName: sender.Name,
		Stake:      stake.Amount,
		ForfeitKey: stake.ForfeitKey,
	}

	if !bet.IsForfeit() {
		_, err := e.Ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{
			Name:             sender.Name,
			CreditsIncrement: -bet.Stake,
		})
		if err != nil {
			return Bet{}, ledgerError(err)
		}
		return bet, nil
	}

	entry, err := e.Validator.ResolveForfeit(bet.ForfeitKey)
	if err != nil {
		return Bet{}, err
	}
	if err := e.Validator.CheckReplay(ctx, sender, entry); err != nil {
		return Bet{}, err
	}
	if m := e.Host.ForfeitMultiplier(); m > 1 {
		bet.Stake *= m
	}
	return bet, nil
}

// Debit takes extra credits for an in-round action such as a double or split
func (e *TableEnv) Debit(ctx context.Context, playerID int64, amount int64) error {
	_, err := e.Ledger.UpdatePlayer(ctx, playerID, models.PlayerUpdate{CreditsIncrement: -amount})
	return ledgerError(err)
}

// Refund returns an escrowed credit stake; forfeit stakes hold no credits
func (e *TableEnv) Refund(ctx context.Context, bet Bet) error {
	if bet.IsForfeit() {
		return nil
	}
	_, err := e.Ledger.UpdatePlayer(ctx, bet.PlayerID, models.PlayerUpdate{CreditsIncrement: bet.Stake})
	return ledgerError(err)
}

// Settle pays out or applies the forfeit for one bet and returns the line
// announcing it. Score tracks net winnings.
func (e *TableEnv) Settle(ctx context.Context, bet Bet, payout Payout) (string, error) {
	name := bet.PlayerName
	switch {
	case payout.Outcome == OutcomeWin:
		net := payout.Credits
		if !bet.IsForfeit() {
			net -= bet.Stake
		}
		_, err := e.Ledger.UpdatePlayer(ctx, bet.PlayerID, models.PlayerUpdate{
			CreditsIncrement: payout.Credits,
			ScoreIncrement:   net,
		})
		if err != nil {
			return fmt.Sprintf("%s's winnings could not be paid.", name), ledgerError(err)
		}
		return fmt.Sprintf("%s wins %d chips!", name, payout.Credits), nil

	case payout.Outcome == OutcomePush && bet.IsForfeit():
		return fmt.Sprintf("%s pushes, the forfeit is void.", name), nil

	case payout.Outcome == OutcomePush:
		if err := e.Refund(ctx, bet); err != nil {
			return fmt.Sprintf("%s's stake could not be returned.", name), err
		}
		return fmt.Sprintf("%s pushes and gets %d chips back.", name, bet.Stake), nil

	case bet.IsForfeit():
		entry, err := e.Validator.ResolveForfeit(bet.ForfeitKey)
		if err != nil {
			return fmt.Sprintf("%s's forfeit is unknown.", name), err
		}
		if err := e.Host.ApplyForfeit(ctx, bet); err != nil {
			return fmt.Sprintf("%s lost but the forfeit could not be applied.", name), err
		}
		return fmt.Sprintf("%s lost and gets: %s!", name, entry.Name), nil

	default:
		_, err := e.Ledger.UpdatePlayer(ctx, bet.PlayerID, models.PlayerUpdate{ScoreIncrement: -bet.Stake})
		if err != nil {
			return fmt.Sprintf("%s loses %d chips.", name, bet.Stake), ledgerError(err)
		}
		return fmt.Sprintf("%s loses %d chips.", name, bet.Stake), nil
	}
}

// Announce broadcasts to the room, logging transport failures
func (e *TableEnv) Announce(ctx context.Context, text string) {
	if err := e.Messenger.Broadcast(ctx, text); err != nil {
		e.Logger.Warn("broadcast failed", "err", err)
	}
}

func ledgerError(err error) error {
	if err == nil {
		return nil
	}
	var ce *CasinoError
	if errors.As(err, &ce) {
		return err
	}
	return InternalError(err, "ledger unavailable")
}
