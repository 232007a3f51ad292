package utils

import (
	"context"
	"time"
)

// GameAction represents an action a player can take at a table
type GameAction string

const (
	ActionBet    GameAction = "bet"
	ActionCancel GameAction = "cancel"
	ActionHit    GameAction = "hit"
	ActionStand  GameAction = "stand"
	ActionDouble GameAction = "double"
	ActionSplit  GameAction = "split"
)

// Sender identifies the chat member behind a command
type Sender struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// Phase is the lifecycle position of a table's round
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBetting
	PhaseDealing
	PhasePlaying
	PhaseSpinning
	PhaseResolving
	PhaseCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBetting:
		return "betting"
	case PhaseDealing:
		return "dealing"
	case PhasePlaying:
		return "playing"
	case PhaseSpinning:
		return "spinning"
	case PhaseResolving:
		return "resolving"
	case PhaseCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Stake is a parsed bet amount: credits, or a forfeit valued in credits
type Stake struct {
	Amount     int64  `json:"amount"`
	ForfeitKey string `json:"forfeit_key,omitempty"`
}

// Bet is one player's stake in the current round
type Bet struct {
	PlayerID   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
	Stake      int64  `json:"stake"`
	ForfeitKey string `json:"forfeit_key,omitempty"`
}

// IsForfeit reports whether the bet is staked with a forfeit
func (b Bet) IsForfeit() bool {
	return b.ForfeitKey != ""
}

// Outcome is how a bet finished
type Outcome int

const (
	OutcomeLose Outcome = iota
	OutcomeWin
	OutcomePush
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomePush:
		return "push"
	default:
		return "lose"
	}
}

// Payout is the settlement of a single bet. Credits is what goes back to the
// player: winnings for a win, the stake for a credit push, zero otherwise.
type Payout struct {
	Outcome Outcome `json:"outcome"`
	Credits int64   `json:"credits"`
}

// BetInfo describes one bet on the table
type BetInfo struct {
	Bet
	Target string `json:"target,omitempty"`
	Hand   string `json:"hand,omitempty"`
	Value  int    `json:"value,omitempty"`
	Status string `json:"status,omitempty"`
}

// RoundInfo is a snapshot of a table's round
type RoundInfo struct {
	Game     string    `json:"game"`
	Round    uint64    `json:"round"`
	Phase    string    `json:"phase"`
	Deadline time.Time `json:"deadline,omitempty"`
	Bets     []BetInfo `json:"bets"`
	Dealer   string    `json:"dealer,omitempty"`
	Result   string    `json:"result,omitempty"`
}

// TableGame is the contract every table variant offers the coordinator
type TableGame interface {
	Name() string
	Help() string
	PlaceBet(ctx context.Context, sender Sender, args []string) error
	CancelBet(ctx context.Context, sender Sender) error
	// AdvancePhase runs the pending scheduled transition immediately.
	AdvancePhase(ctx context.Context) error
	DescribeRound() RoundInfo
	WaitIdle(ctx context.Context) error
	// Close stops new rounds from opening and waits for the table to go idle.
	Close(ctx context.Context) error
}

// PlayActions are the in-round actions of card tables
type PlayActions interface {
	Hit(ctx context.Context, sender Sender) error
	Stand(ctx context.Context, sender Sender) error
	Double(ctx context.Context, sender Sender) error
	Split(ctx context.Context, sender Sender) error
}

// Messenger is the outbound half of the chat transport
type Messenger interface {
	Reply(ctx context.Context, to Sender, text string) error
	Whisper(ctx context.Context, to Sender, text string) error
	Broadcast(ctx context.Context, text string) error
}

// Host is what a table needs from the casino around it
type Host interface {
	ForfeitMultiplier() int64
	ResetForfeitMultiplier()
	ApplyForfeit(ctx context.Context, bet Bet) error
}

// Punisher reacts to a detected forfeit replay
type Punisher interface {
	PunishCheater(ctx context.Context, sender Sender, strikes int)
}
