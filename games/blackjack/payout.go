package blackjack

import (
	"ccasino/utils"
)

// Seat is one (bet, hand) pair. A player who splits owns several.
type Seat struct {
	Bet       utils.Bet
	Hand      *utils.Hand
	Standing  bool
	Doubled   bool
	FromSplit bool
}

// IsNatural reports a two-card 21 on an original, undoubled hand
func (s *Seat) IsNatural() bool {
	return !s.FromSplit && !s.Doubled && s.Hand.IsBlackjack()
}

// Settle computes the payout of one seat against the dealer's final hand.
// A natural is checked before the dealer-bust rule so it always pays 3:2.
func Settle(seat *Seat, dealer *utils.Hand) utils.Payout {
	stake := seat.Bet.Stake
	forfeit := seat.Bet.IsForfeit()
	player := seat.Hand.Value()
	house := dealer.Value()

	win := func(credits int64) utils.Payout {
		return utils.Payout{Outcome: utils.OutcomeWin, Credits: credits}
	}
	push := func() utils.Payout {
		if forfeit {
			return utils.Payout{Outcome: utils.OutcomePush}
		}
		return utils.Payout{Outcome: utils.OutcomePush, Credits: stake}
	}
	lose := utils.Payout{Outcome: utils.OutcomeLose}

	// A forfeit stake is not credit-funded: wins return the stake, not double.
	evenMoney := stake * 2
	natural := stake * 5 / 2
	if forfeit {
		evenMoney = stake
		natural = stake * 3 / 2
	}

	switch {
	case player > utils.BlackjackValue:
		return lose
	case seat.IsNatural():
		if dealer.IsBlackjack() {
			return push()
		}
		return win(natural)
	case house > utils.BlackjackValue:
		return win(evenMoney)
	case player == house:
		return push()
	case player > house:
		return win(evenMoney)
	default:
		return lose
	}
}

// DealerShouldHit reports whether the dealer draws: below 17, soft hands included
func DealerShouldHit(dealer *utils.Hand) bool {
	return dealer.Value() < utils.DealerStandValue
}
