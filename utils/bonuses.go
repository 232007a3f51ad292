package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"ccasino/models"
)

// StipendResult is the outcome of a stipend check on room entry
type StipendResult struct {
	Granted       bool           `json:"granted"`
	Amount        int64          `json:"amount"`
	TimeRemaining time.Duration  `json:"time_remaining"`
	Player        *models.Player `json:"player"`
}

// StipendManager hands out the free daily chips
type StipendManager struct {
	Ledger   Ledger
	Clock    quartz.Clock
	Amount   int64
	Cooldown time.Duration
	Logger   *log.Logger

	// claims are serialised so two joins cannot both pass the cooldown check
	mutex sync.Mutex
}

// NewStipendManager creates a manager paying amount once per cooldown
func NewStipendManager(ledger Ledger, clock quartz.Clock, amount int64, cooldown time.Duration, logger *log.Logger) *StipendManager {
	return &StipendManager{
		Ledger:   ledger,
		Clock:    clock,
		Amount:   amount,
		Cooldown: cooldown,
		Logger:   logger.WithPrefix("stipend"),
	}
}

// Claim grants the stipend if the player's cooldown has elapsed. The
// player's name is refreshed either way.
func (sm *StipendManager) Claim(ctx context.Context, sender Sender) (*StipendResult, error) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	now := sm.Clock.Now()
	player, err := sm.Ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{Name: sender.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to load player %d: %w", sender.ID, err)
	}

	if !player.CanClaimStipend(now, sm.Cooldown) {
		return &StipendResult{
			Granted:       false,
			TimeRemaining: player.TimeUntilStipend(now, sm.Cooldown),
			Player:        player,
		}, nil
	}

	player, err = sm.Ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{
		CreditsIncrement:  sm.Amount,
		LastFreeCreditsAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grant stipend to %d: %w", sender.ID, err)
	}

	sm.Logger.Info("stipend granted", "player", sender.ID, "amount", sm.Amount, "credits", player.Credits)
	return &StipendResult{
		Granted: true,
		Amount:  sm.Amount,
		Player:  player,
	}, nil
}

// Greeting is the whisper sent to a player entering the room
func (r *StipendResult) Greeting(name string) string {
	if r.Granted {
		return fmt.Sprintf("Welcome to the Casino, %s! Here are your %d free chips for today. Say help for how to play. Good luck!",
			name, r.Amount)
	}
	return fmt.Sprintf("Welcome back, %s. %s until your next free chips. Say help for how to play.",
		name, FormatDuration(r.TimeRemaining))
}

// FormatDuration formats a duration into a human-readable string
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "no time"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 24 {
		days := hours / 24
		hours = hours % 24
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	} else if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
