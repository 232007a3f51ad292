package models

import (
	"strconv"
	"time"
)

// Player is the ledger record for one chat member in the casino
type Player struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Credits           int64      `json:"credits"`
	Score             int64      `json:"score"`
	CheatStrikes      int        `json:"cheat_strikes"`
	LastFreeCreditsAt *time.Time `json:"last_free_credits_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// PlayerUpdate describes an atomic change to a player record.
// Increments are applied relative to the stored values.
type PlayerUpdate struct {
	Name                  string     `json:"name,omitempty"`
	CreditsIncrement      int64      `json:"credits_increment,omitempty"`
	ScoreIncrement        int64      `json:"score_increment,omitempty"`
	CheatStrikesIncrement int        `json:"cheat_strikes_increment,omitempty"`
	LastFreeCreditsAt     *time.Time `json:"last_free_credits_at,omitempty"`
}

// NewPlayer returns a fresh zero-balance record
func NewPlayer(id int64, now time.Time) *Player {
	return &Player{
		ID:        id,
		CreatedAt: now,
	}
}

// Apply applies the update in place. It reports false, leaving the record
// untouched, when the update would take credits below zero.
func (p *Player) Apply(upd PlayerUpdate) bool {
	if p.Credits+upd.CreditsIncrement < 0 {
		return false
	}
	p.Credits += upd.CreditsIncrement
	p.Score += upd.ScoreIncrement
	p.CheatStrikes += upd.CheatStrikesIncrement
	if upd.Name != "" {
		p.Name = upd.Name
	}
	if upd.LastFreeCreditsAt != nil {
		t := *upd.LastFreeCreditsAt
		p.LastFreeCreditsAt = &t
	}
	return true
}

// CanAffordBet checks if the player can cover a stake
func (p *Player) CanAffordBet(amount int64) bool {
	return p.Credits >= amount
}

// CanClaimStipend checks if the cooldown since the last free credits has elapsed
func (p *Player) CanClaimStipend(now time.Time, cooldown time.Duration) bool {
	if p.LastFreeCreditsAt == nil {
		return true
	}
	return !now.Before(p.LastFreeCreditsAt.Add(cooldown))
}

// TimeUntilStipend returns how long until the next stipend can be granted
func (p *Player) TimeUntilStipend(now time.Time, cooldown time.Duration) time.Duration {
	if p.CanClaimStipend(now, cooldown) {
		return 0
	}
	return p.LastFreeCreditsAt.Add(cooldown).Sub(now)
}

// DisplayName returns the stored name, falling back to the numeric id
func (p *Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "#" + strconv.FormatInt(p.ID, 10)
}
