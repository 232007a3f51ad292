package utils

import "time"

// Economy
const (
	StipendCredits     = 20
	StipendCooldown    = 20 * time.Hour
	RemoveCostFactor   = 4
	DefaultBonus       = 2
	MaxBonus           = 100
	ScoreboardSize     = 10
	DefaultCacheTTL    = 5 * time.Minute
	CasinoLockOwner    = "casino"
	CraftNamePrefix    = "CC Casino "
	ForfeitDifficulty  = 20
	FallbackItemColour = "#202020"
)

// Card System
var (
	CardSuits     = []string{"♠️", "♥️", "♦️", "♣️"}
	CardRankOrder = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	CardRanks     = map[string]int{
		"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
		"J": 10, "Q": 10, "K": 10, "A": 11,
	}
)

// Blackjack Game Constants
const (
	BlackjackValue      = 21
	DealerStandValue    = 17
	MaxShoeDecks        = 8
	PlayersPerDeck      = 2
	LowShoeCardsPerSeat = 7
	MaxSeatsPerPlayer   = 4
)

// Roulette Game Constants
const (
	RouletteNumbers      = 37
	SingleNumberMultiple = 36
	EvenMoneyMultiple    = 2
	DozenMultiple        = 3
)

// Timings holds the phase delays of one table variant
type Timings struct {
	BetWindow      time.Duration // first bet until spin/deal
	CancelCutoff   time.Duration // no cancels this close to the deadline
	Settle         time.Duration // spin until payouts (roulette)
	AutoStand      time.Duration // deal until forced stand (blackjack)
	SplitExtension time.Duration // added to the auto-stand deadline per split
	Cooldown       time.Duration // payouts until the next round may open
}

// DefaultRouletteTimings returns the production roulette delays
func DefaultRouletteTimings() Timings {
	return Timings{
		BetWindow:    60 * time.Second,
		CancelCutoff: 3 * time.Second,
		Settle:       12 * time.Second,
		Cooldown:     10 * time.Second,
	}
}

// DefaultBlackjackTimings returns the production blackjack delays
func DefaultBlackjackTimings() Timings {
	return Timings{
		BetWindow:      30 * time.Second,
		CancelCutoff:   3 * time.Second,
		AutoStand:      45 * time.Second,
		SplitExtension: 15 * time.Second,
		Cooldown:       10 * time.Second,
	}
}
