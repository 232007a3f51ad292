package blackjack

import (
	"context"
	"fmt"
	"strings"

	"ccasino/utils"
)

const helpText = `Blackjack is a card game where the goal is to get as close to 21 as possible without going over.
Each player is dealt two cards, and can choose to "hit" (take another card) or "stand" (keep their current hand).
The dealer also has a hand, and must hit until they reach 17 or higher.
Blackjack (21 with two cards) pays 3:2 rounding down to the nearest whole number.

Every card has a value:
- Number cards (2-10) are worth their face value.
- Jacks, Queens, and Kings are worth 10.
- Aces can be worth 1 or 11, depending on what is more beneficial for the hand.

Blackjack bets:
bet <amount> - Bet on the next hand. Odds: 1:1. The amount can be a forfeit name.
hit - Take another card from the shoe.
stand - Keep your current hand.
double - Double your bet and take exactly one more card. Only on two cards, not for forfeits.
split - Split a pair into two hands, each with its own bet. Not for forfeits.
cancel - Cancel your bet. Only available before any cards are dealt.`

// Player is everyone's seats at the table in play order
type Player struct {
	ID     int64
	Name   string
	Seats  []*Seat
	Active int
}

func (p *Player) current() *Seat {
	if p.Active >= len(p.Seats) {
		return nil
	}
	return p.Seats[p.Active]
}

// advance moves the active pointer past every standing seat
func (p *Player) advance() {
	for p.Active < len(p.Seats) && p.Seats[p.Active].Standing {
		p.Active++
	}
}

func (p *Player) done() bool {
	return p.current() == nil
}

// Round is one deal of blackjack
type Round struct {
	ID      uint64
	Players []*Player
	Dealer  *utils.Hand
	Dealt   bool
}

func (r *Round) player(id int64) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Round) allDone() bool {
	for _, p := range r.Players {
		if !p.done() {
			return false
		}
	}
	return true
}

// Table is a multi-player blackjack table
type Table struct {
	utils.BaseTable

	round      *Round
	shoe       *utils.Shoe
	lastResult string

	// NewShoe builds a fresh shoe of the given number of decks
	NewShoe func(decks int) *utils.Shoe
}

var (
	_ utils.TableGame   = (*Table)(nil)
	_ utils.PlayActions = (*Table)(nil)
)

// NewTable creates an idle blackjack table
func NewTable(env *utils.TableEnv) *Table {
	t := &Table{}
	t.InitBase(env, "blackjack")
	t.NewShoe = func(decks int) *utils.Shoe {
		return utils.NewShoe(decks, env.Rand)
	}
	return t
}

func (t *Table) Name() string { return "blackjack" }

func (t *Table) Help() string { return helpText }

func (t *Table) PlaceBet(ctx context.Context, sender utils.Sender, args []string) error {
	t.Lock()
	defer t.Unlock()

	if err := t.BetGateLocked(); err != nil {
		return err
	}
	if len(args) != 1 {
		return utils.UserInputError("I couldn't understand that bet. Try, eg. bet 10 or bet boots")
	}
	stake, err := t.Env.Validator.ParseStake(args[0])
	if err != nil {
		return err
	}

	if t.round != nil && t.round.player(sender.ID) != nil {
		return utils.StateConflictError("You already placed a bet. Use cancel to cancel it.")
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

	bet, err := t.Env.Escrow(ctx, sender, stake)
	if err != nil {
		return err
	}

	if t.PhaseLocked() == utils.PhaseIdle {
		if err := t.OpenRoundLocked(); err != nil {
			if rerr := t.Env.Refund(ctx, bet); rerr != nil {
				t.Logger.Error("refund after failed open", "player", sender.ID, "err", rerr)
			}
			return err
		}
		t.round = &Round{ID: t.RoundLocked()}
		t.ScheduleLocked(t.Env.Timings.BetWindow, t.dealLocked)
		t.Logger.Info("round opened", "round", t.round.ID, "deal_at", t.DeadlineLocked())
	}

	t.round.Players = append(t.round.Players, &Player{
		ID:    sender.ID,
		Name:  sender.Name,
		Seats: []*Seat{{Bet: bet}},
	})
	t.Logger.Info("bet placed", "round", t.round.ID, "player", sender.ID, "stake", bet.Stake, "forfeit", bet.ForfeitKey)
	t.Env.Announce(ctx, t.betLine(bet))
	return nil
}

func (t *Table) betLine(bet utils.Bet) string {
	if bet.IsForfeit() {
		name := bet.ForfeitKey
		if entry, ok := t.Env.Validator.Catalog.Lookup(bet.ForfeitKey); ok {
			name = entry.Name
		}
		return fmt.Sprintf("%s bets %s for %d chips", bet.PlayerName, name, bet.Stake)
	}
	return fmt.Sprintf("%s bets %d chips", bet.PlayerName, bet.Stake)
}

func (t *Table) CancelBet(ctx context.Context, sender utils.Sender) error {
	t.Lock()
	defer t.Unlock()

	if t.round == nil || t.round.player(sender.ID) == nil {
		return utils.StateConflictError("You don't have a bet in play.")
	}
	if err := t.CancelGateLocked(); err != nil {
		return err
	}

	players := t.round.Players[:0]
	for _, p := range t.round.Players {
		if p.ID != sender.ID {
			players = append(players, p)
			continue
		}
		for _, seat := range p.Seats {
			if err := t.Env.Refund(ctx, seat.Bet); err != nil {
				return err
			}
		}
	}
	t.round.Players = players
	t.Logger.Info("bet cancelled", "round", t.round.ID, "player", sender.ID)
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

func (t *Table) dealLocked(ctx context.Context) {
	if len(t.round.Players) == 0 {
		t.Logger.Info("no bets left, skipping deal", "round", t.round.ID)
		t.round = nil
		t.FinishRoundLocked()
		return
	}
	if !t.SetPhaseLocked(utils.PhaseDealing) {
		return
	}

	players := len(t.round.Players)
	if t.shoe == nil || utils.ShoeIsLow(t.shoe.Remaining(), players) {
		if t.shoe != nil {
			t.Env.Announce(ctx, "The shoe is running low, shuffling a new one.")
		}
		t.shoe = t.NewShoe(utils.ShoeDecksFor(players))
		t.Logger.Info("new shoe", "round", t.round.ID, "decks", t.shoe.NumDecks, "cards", t.shoe.Remaining())
	}

	t.round.Dealer = utils.NewHand(t.shoe.Draw(), t.shoe.Draw())
	for _, p := range t.round.Players {
		seat := p.Seats[0]
		seat.Hand = utils.NewHand(t.shoe.Draw(), t.shoe.Draw())
		if seat.IsNatural() {
			seat.Standing = true
		}
		p.advance()
	}
	t.round.Dealt = true
	t.Logger.Info("cards dealt", "round", t.round.ID, "players", players, "shoe_remaining", t.shoe.Remaining())

	if t.round.Dealer.IsBlackjack() {
		t.Env.Announce(ctx, t.tableText(false)+"Dealer has blackjack!")
		t.resolveLocked(ctx)
		return
	}

	t.Env.Announce(ctx, t.tableText(true))
	if t.round.allDone() {
		t.resolveLocked(ctx)
		return
	}

	t.SetPhaseLocked(utils.PhasePlaying)
	t.ScheduleLocked(t.Env.Timings.AutoStand, t.autoStandLocked)
}

func (t *Table) autoStandLocked(ctx context.Context) {
	for _, p := range t.round.Players {
		for _, seat := range p.Seats {
			seat.Standing = true
		}
		p.advance()
	}
	t.Env.Announce(ctx, "All open bets have been automatically stood.")
	t.resolveLocked(ctx)
}

// seatFor returns the sender's active seat, refusing with the verb-specific
// message when nothing can be played.
func (t *Table) seatFor(sender utils.Sender, verb string) (*Player, *Seat, error) {
	if t.PhaseLocked() != utils.PhasePlaying || t.round == nil {
		return nil, nil, utils.StateConflictError("You can't %s right now.", verb)
	}
	p := t.round.player(sender.ID)
	if p == nil {
		return nil, nil, utils.StateConflictError("You don't have a bet in play.")
	}
	seat := p.current()
	if seat == nil {
		return nil, nil, utils.StateConflictError("You are already standing.")
	}
	return p, seat, nil
}

// afterActionLocked moves the player to their next hand and resolves the
// round once nobody has anything left to play.
func (t *Table) afterActionLocked(ctx context.Context, p *Player) {
	p.advance()
	if t.round.allDone() {
		t.CancelWakeLocked()
		t.resolveLocked(ctx)
	}
}

func (t *Table) Hit(ctx context.Context, sender utils.Sender) error {
	t.Lock()
	defer t.Unlock()

	p, seat, err := t.seatFor(sender, "hit")
	if err != nil {
		return err
	}
	card := t.shoe.Draw()
	seat.Hand.AddCard(card)
	if seat.Hand.Value() >= utils.BlackjackValue {
		seat.Standing = true
	}
	t.Logger.Debug("hit", "round", t.round.ID, "player", sender.ID, "card", card, "value", seat.Hand.Value())
	t.reply(ctx, sender, fmt.Sprintf("You hit and got a %s.\n%s", card, t.tableText(true)))
	t.afterActionLocked(ctx, p)
	return nil
}

func (t *Table) Stand(ctx context.Context, sender utils.Sender) error {
	t.Lock()
	defer t.Unlock()

	p, seat, err := t.seatFor(sender, "stand")
	if err != nil {
		return err
	}
	seat.Standing = true
	t.reply(ctx, sender, "You are standing.\n"+t.tableText(true))
	t.afterActionLocked(ctx, p)
	return nil
}

func (t *Table) Double(ctx context.Context, sender utils.Sender) error {
	t.Lock()
	defer t.Unlock()

	p, seat, err := t.seatFor(sender, "double down")
	if err != nil {
		return err
	}
	if seat.Bet.IsForfeit() {
		return utils.UserInputError("You can't double down on a forfeit bet.")
	}
	if seat.Hand.Count() != 2 || seat.FromSplit {
		return utils.UserInputError("You can only double down on your initial two cards.")
	}
	if err := t.Env.Debit(ctx, sender.ID, seat.Bet.Stake); err != nil {
		if utils.KindOf(err) == utils.KindInsufficientFunds {
			return utils.InsufficientFundsError("You don't have enough chips to double down.")
		}
		return err
	}

	seat.Bet.Stake *= 2
	seat.Doubled = true
	card := t.shoe.Draw()
	seat.Hand.AddCard(card)
	seat.Standing = true
	t.Logger.Info("double down", "round", t.round.ID, "player", sender.ID, "stake", seat.Bet.Stake, "card", card)
	t.reply(ctx, sender, fmt.Sprintf("You doubled down and got a %s.\n%s", card, t.tableText(true)))
	t.afterActionLocked(ctx, p)
	return nil
}

func (t *Table) Split(ctx context.Context, sender utils.Sender) error {
	t.Lock()
	defer t.Unlock()

	p, seat, err := t.seatFor(sender, "split")
	if err != nil {
		return err
	}
	if seat.Bet.IsForfeit() {
		return utils.UserInputError("You can't split a forfeit bet.")
	}
	if !seat.Hand.CanSplit() {
		return utils.UserInputError("You can only split two cards of the same rank.")
	}
	if len(p.Seats) >= utils.MaxSeatsPerPlayer {
		return utils.StateConflictError("You can't split into more than %d hands.", utils.MaxSeatsPerPlayer)
	}
	if err := t.Env.Debit(ctx, sender.ID, seat.Bet.Stake); err != nil {
		if utils.KindOf(err) == utils.KindInsufficientFunds {
			return utils.InsufficientFundsError("You don't have enough chips to split.")
		}
		return err
	}

	second := &Seat{
		Bet:       seat.Bet,
		Hand:      utils.NewHand(seat.Hand.Cards[1]),
		FromSplit: true,
	}
	seat.Hand = utils.NewHand(seat.Hand.Cards[0])
	seat.FromSplit = true
	seat.Hand.AddCard(t.shoe.Draw())
	second.Hand.AddCard(t.shoe.Draw())

	idx := p.Active + 1
	p.Seats = append(p.Seats, nil)
	copy(p.Seats[idx+1:], p.Seats[idx:])
	p.Seats[idx] = second

	t.ExtendLocked(t.Env.Timings.SplitExtension)
	t.Logger.Info("split", "round", t.round.ID, "player", sender.ID, "hands", len(p.Seats))
	t.reply(ctx, sender, fmt.Sprintf("You split into %d hands. Playing hand %d.\n%s",
		len(p.Seats), p.Active+1, t.tableText(true)))
	return nil
}

func (t *Table) resolveLocked(ctx context.Context) {
	if !t.SetPhaseLocked(utils.PhaseResolving) {
		return
	}

	dealer := t.round.Dealer
	for DealerShouldHit(dealer) {
		dealer.AddCard(t.shoe.Draw())
	}

	lines := []string{t.tableText(false) + fmt.Sprintf("Dealer has a hand of %d", dealer.Value())}
	for _, p := range t.round.Players {
		for i, seat := range p.Seats {
			if seat.Hand == nil {
				t.Logger.Error("no hand for seat", "round", t.round.ID, "player", p.ID, "seat", i)
				continue
			}
			line, err := t.Env.Settle(ctx, seat.Bet, Settle(seat, dealer))
			if err != nil {
				t.Logger.Error("bet settlement failed", "round", t.round.ID, "player", p.ID, "seat", i, "err", err)
			}
			lines = append(lines, line)
		}
	}

	t.discardLocked()
	t.Env.Host.ResetForfeitMultiplier()
	t.lastResult = fmt.Sprintf("Dealer %s (%d)", dealer, dealer.Value())
	t.Env.Announce(ctx, strings.Join(lines, "\n"))

	t.SetPhaseLocked(utils.PhaseCooldown)
	t.ScheduleLocked(t.Env.Timings.Cooldown, t.reopenLocked)
}

// discardLocked returns every card of the finished round to the shoe
func (t *Table) discardLocked() {
	t.shoe.Discard(t.round.Dealer.Cards...)
	for _, p := range t.round.Players {
		for _, seat := range p.Seats {
			if seat.Hand != nil {
				t.shoe.Discard(seat.Hand.Cards...)
			}
		}
	}
}

func (t *Table) reopenLocked(ctx context.Context) {
	t.round = nil
	t.FinishRoundLocked()
	t.Env.Announce(ctx, "Place bets!")
}

func (t *Table) reply(ctx context.Context, to utils.Sender, text string) {
	if err := t.Env.Messenger.Reply(ctx, to, text); err != nil {
		t.Logger.Warn("reply failed", "player", to.ID, "err", err)
	}
}

// tableText renders the dealer and every seat, one per line
func (t *Table) tableText(dealerHidden bool) string {
	var b strings.Builder
	dealer := t.round.Dealer
	if dealerHidden && dealer.Count() > 0 {
		fmt.Fprintf(&b, "Dealer's hand: [%s] [???] (???)\n", dealer.Cards[0])
	} else {
		fmt.Fprintf(&b, "Dealer's hand: %s (%d)\n", dealer, dealer.Value())
	}
	for _, p := range t.round.Players {
		for i, seat := range p.Seats {
			if seat.Hand == nil {
				continue
			}
			label := p.Name
			if len(p.Seats) > 1 {
				label = fmt.Sprintf("%s #%d", p.Name, i+1)
			}
			fmt.Fprintf(&b, "%s hand: %s (%d)\n", label, seat.Hand, seat.Hand.Value())
		}
	}
	return b.String()
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
	for _, p := range t.round.Players {
		for i, seat := range p.Seats {
			bi := utils.BetInfo{Bet: seat.Bet, Status: "waiting"}
			if seat.Hand != nil {
				bi.Hand = seat.Hand.String()
				bi.Value = seat.Hand.Value()
				switch {
				case seat.Hand.IsBust():
					bi.Status = "bust"
				case seat.Standing:
					bi.Status = "standing"
				case i == p.Active:
					bi.Status = "playing"
				default:
					bi.Status = "queued"
				}
			}
			info.Bets = append(info.Bets, bi)
		}
	}
	if t.round.Dealer != nil {
		hidden := t.PhaseLocked() < utils.PhaseResolving
		if hidden {
			info.Dealer = fmt.Sprintf("[%s] [???]", t.round.Dealer.Cards[0])
		} else {
			info.Dealer = fmt.Sprintf("%s (%d)", t.round.Dealer, t.round.Dealer.Value())
		}
	}
	return info
}
