package roulette

import (
	"context"
	"fmt"
	"strings"

	"ccasino/utils"
)

const helpText = `There are 37 numbers on the roulette wheel, 0 - 36. 0 is green.

Roulette bets:
bet red <amount> - Bet on red. Odds: 1:1.
bet black <amount> - Bet on black. Odds: 1:1.
bet even <amount> - Bet on even. Odds: 1:1.
bet odd <amount> - Bet on odd. Odds: 1:1.
bet 1-18 <amount> - Bet on 1 - 18. Odds: 1:1.
bet 19-36 <amount> - Bet on 19 - 36. Odds: 1:1.
bet 1-12 <amount> - Bet on 1 - 12. Odds: 2:1.
bet 13-24 <amount> - Bet on 13 - 24. Odds: 2:1.
bet 25-36 <amount> - Bet on 25 - 36. Odds: 2:1.
bet <number> <amount> - Bet on a single number. Odds: 35:1.
Any amount can be replaced by a forfeit name, e.g. bet 15 legbinder.
cancel - Cancel your bet.`

// Bet is a roulette stake on one target
type Bet struct {
	utils.Bet
	Target Target `json:"target"`
}

// Round is the state of one spin of the wheel
type Round struct {
	ID     uint64
	Bets   []*Bet
	Number int
	Spun   bool
}

func (r *Round) betFor(playerID int64) (int, *Bet) {
	for i, b := range r.Bets {
		if b.PlayerID == playerID {
			return i, b
		}
	}
	return -1, nil
}

// Table is a roulette table shared by everyone in the room
type Table struct {
	utils.BaseTable

	round      *Round
	lastResult string

	// Wheel draws the winning number
	Wheel func() int
}

var _ utils.TableGame = (*Table)(nil)

// NewTable creates an idle roulette table
func NewTable(env *utils.TableEnv) *Table {
	t := &Table{}
	t.InitBase(env, "roulette")
	t.Wheel = func() int {
		return env.Rand.IntN(utils.RouletteNumbers)
	}
	return t
}

func (t *Table) Name() string { return "roulette" }

func (t *Table) Help() string { return helpText }

// parseBetArgs accepts "<kind> <stake>" and "<stake> <kind>"
func (t *Table) parseBetArgs(args []string) (Target, utils.Stake, error) {
	if len(args) != 2 {
		return Target{}, utils.Stake{}, utils.UserInputError(
			"I couldn't understand that bet. Try, eg. bet red 10 or bet 1-12 boots")
	}
	v := t.Env.Validator
	if target, ok := ParseTarget(args[0]); ok {
		stake, err := v.ParseStake(args[1])
		if err == nil {
			return target, stake, nil
		}
		if target2, ok := ParseTarget(args[1]); ok && v.IsStake(args[0]) {
			stake, _ := v.ParseStake(args[0])
			return target2, stake, nil
		}
		return Target{}, utils.Stake{}, err
	}
	if target, ok := ParseTarget(args[1]); ok {
		stake, err := v.ParseStake(args[0])
		if err != nil {
			return Target{}, utils.Stake{}, err
		}
		return target, stake, nil
	}
	return Target{}, utils.Stake{}, utils.UserInputError("Invalid bet.")
}

func (t *Table) PlaceBet(ctx context.Context, sender utils.Sender, args []string) error {
	t.Lock()
	defer t.Unlock()

	if err := t.BetGateLocked(); err != nil {
		return err
	}

	target, stake, err := t.parseBetArgs(args)
	if err != nil {
		return err
	}

	if t.round != nil {
		if _, existing := t.round.betFor(sender.ID); existing != nil {
			return utils.StateConflictError("You already placed a bet. Use cancel to cancel it.")
		}
	}

	if stake.ForfeitKey != "" {
		entry, err := t.Env.Validator.ResolveForfeit(stake.ForfeitKey)
		if err != nil {
			return err
		}
		if err := t.Env.Validator.CheckForfeit(ctx, sender.ID, entry); err != nil {
			return err
		}
	}

	escrowed, err := t.Env.Escrow(ctx, sender, stake)
	if err != nil {
		return err
	}
	bet := &Bet{Bet: escrowed, Target: target}

	if t.PhaseLocked() == utils.PhaseIdle {
		if err := t.OpenRoundLocked(); err != nil {
			if rerr := t.Env.Refund(ctx, bet.Bet); rerr != nil {
				t.Logger.Error("refund after failed open", "player", sender.ID, "err", rerr)
			}
			return err
		}
		t.round = &Round{ID: t.RoundLocked()}
		t.ScheduleLocked(t.Env.Timings.BetWindow, t.spinLocked)
		t.Logger.Info("round opened", "round", t.round.ID, "spin_at", t.DeadlineLocked())
	}

	t.round.Bets = append(t.round.Bets, bet)
	t.Logger.Info("bet placed", "round", t.round.ID, "player", sender.ID, "target", target, "stake", bet.Stake, "forfeit", bet.ForfeitKey)
	t.Env.Announce(ctx, t.betLine(bet))
	return nil
}

func (t *Table) betLine(bet *Bet) string {
	if bet.IsForfeit() {
		entry, _ := t.Env.Validator.Catalog.Lookup(bet.ForfeitKey)
		name := bet.ForfeitKey
		if entry != nil {
			name = entry.Name
		}
		return fmt.Sprintf("%s bets %s for %d chips on %s", bet.PlayerName, name, bet.Stake, bet.Target)
	}
	return fmt.Sprintf("%s bets %d chips on %s", bet.PlayerName, bet.Stake, bet.Target)
}

func (t *Table) CancelBet(ctx context.Context, sender utils.Sender) error {
	t.Lock()
	defer t.Unlock()

	if t.round == nil {
		return utils.StateConflictError("You don't have a bet in play.")
	}
	idx, bet := t.round.betFor(sender.ID)
	if bet == nil {
		return utils.StateConflictError("You don't have a bet in play.")
	}
	if err := t.CancelGateLocked(); err != nil {
		return err
	}
	if err := t.Env.Refund(ctx, bet.Bet); err != nil {
		return err
	}
	t.round.Bets = append(t.round.Bets[:idx], t.round.Bets[idx+1:]...)
	t.Logger.Info("bet cancelled", "round", t.round.ID, "player", sender.ID, "stake", bet.Stake)
	return nil
}

func (t *Table) AdvancePhase(ctx context.Context) error {
	t.Lock()
	defer t.Unlock()
	return t.AdvanceLocked(ctx)
}

func (t *Table) Close(ctx context.Context) error {
	return t.CloseTable(ctx)
}

func (t *Table) spinLocked(ctx context.Context) {
	if len(t.round.Bets) == 0 {
		t.Logger.Info("no bets left, skipping spin", "round", t.round.ID)
		t.round = nil
		t.FinishRoundLocked()
		return
	}
	if !t.SetPhaseLocked(utils.PhaseSpinning) {
		return
	}

	t.round.Number = t.Wheel()
	t.round.Spun = true
	t.Logger.Info("wheel spinning", "round", t.round.ID, "number", t.round.Number)
	t.Env.Announce(ctx, "No more bets! The wheel is spinning...")
	t.ScheduleLocked(t.Env.Timings.Settle, t.resolveLocked)
}

func (t *Table) resolveLocked(ctx context.Context) {
	if !t.SetPhaseLocked(utils.PhaseResolving) {
		return
	}

	number := t.round.Number
	lines := []string{NumberText(number) + " wins."}
	for _, bet := range t.round.Bets {
		line, err := t.Env.Settle(ctx, bet.Bet, Settle(*bet, number))
		if err != nil {
			t.Logger.Error("bet settlement failed", "round", t.round.ID, "player", bet.PlayerID, "err", err)
		}
		lines = append(lines, line)
	}

	t.Env.Host.ResetForfeitMultiplier()
	t.lastResult = NumberText(number)
	t.Env.Announce(ctx, strings.Join(lines, "\n"))

	t.SetPhaseLocked(utils.PhaseCooldown)
	t.ScheduleLocked(t.Env.Timings.Cooldown, t.reopenLocked)
}

func (t *Table) reopenLocked(ctx context.Context) {
	t.round = nil
	t.FinishRoundLocked()
	t.Env.Announce(ctx, "Place bets!")
}

func (t *Table) DescribeRound() utils.RoundInfo {
	t.Lock()
	defer t.Unlock()

	info := utils.RoundInfo{
		Game:     t.Name(),
		Round:    t.RoundLocked(),
		Phase:    t.PhaseLocked().String(),
		Deadline: t.DeadlineLocked(),
		Result:   t.lastResult,
		Bets:     []utils.BetInfo{},
	}
	if t.round == nil {
		return info
	}
	for _, bet := range t.round.Bets {
		info.Bets = append(info.Bets, utils.BetInfo{Bet: bet.Bet, Target: bet.Target.String()})
	}
	if t.round.Spun && t.PhaseLocked() >= utils.PhaseResolving {
		info.Result = NumberText(t.round.Number)
	}
	return info
}
