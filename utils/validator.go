package utils

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"ccasino/models"
)

// BetValidator turns raw stake arguments into typed stakes and runs the
// forfeit permission and replay checks.
type BetValidator struct {
	Catalog  *Catalog
	Avatar   Avatar
	Locks    *LockedItemRegistry
	Ledger   Ledger
	Punisher Punisher
	Logger   *log.Logger
}

// ParseStake accepts a positive decimal integer or a forfeit keyword
func (v *BetValidator) ParseStake(raw string) (Stake, error) {
	raw = strings.TrimSpace(raw)
	if entry, ok := v.Catalog.Lookup(raw); ok {
		return Stake{Amount: entry.Value, ForfeitKey: strings.ToLower(entry.Key)}, nil
	}
	if raw == "" {
		return Stake{}, UserInputError("Invalid stake.")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return Stake{}, UserInputError("Invalid stake.")
		}
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount < 1 {
		return Stake{}, UserInputError("Invalid stake.")
	}
	return Stake{Amount: amount}, nil
}

// IsStake reports whether raw would parse as a stake
func (v *BetValidator) IsStake(raw string) bool {
	_, err := v.ParseStake(raw)
	return err == nil
}

// CheckForfeit verifies the player can receive the forfeit: nothing already
// worn where it goes, interaction allowed, and no required item blocked.
func (v *BetValidator) CheckForfeit(ctx context.Context, playerID int64, entry *ForfeitEntry) error {
	var blockers []string
	for _, item := range entry.Items {
		if worn, ok := v.Avatar.Worn(ctx, playerID, item.Slot); ok {
			blockers = append(blockers, worn.Name)
		}
	}
	if len(blockers) > 0 {
		v.Logger.Info("blocked forfeit bet", "player", playerID, "forfeit", entry.Key, "blockers", blockers)
		return StateConflictError("You can't bet that while you have: %s", strings.Join(blockers, ", "))
	}

	if !v.Avatar.AllowsInteraction(ctx, playerID) {
		return PermissionDeniedError("You'll need to open up your permissions to bet restraints.")
	}

	var blocked []string
	for _, item := range entry.RequiredItems() {
		if v.Avatar.IsSlotBlocked(ctx, playerID, item.Slot) {
			blocked = append(blocked, item.Name)
		}
	}
	if len(blocked) > 0 {
		return PermissionDeniedError("You can't bet that forfeit because you've blocked: %s.", strings.Join(blocked, ", "))
	}
	return nil
}

// CheckReplay catches a bet on a single-item forfeit whose item should still
// be locked on the player. It records a strike and hands the player to the
// punisher before returning CheatDetected.
func (v *BetValidator) CheckReplay(ctx context.Context, sender Sender, entry *ForfeitEntry) error {
	item, ok := entry.SingleItem()
	if !ok || !v.Locks.IsLocked(sender.ID, item.Slot) {
		return nil
	}

	v.Logger.Warn("cheater detected", "player", sender.ID, "name", sender.Name, "forfeit", entry.Key)
	p, err := v.Ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{CheatStrikesIncrement: 1})
	if err != nil {
		return InternalError(err, "failed to record cheat strike")
	}
	if v.Punisher != nil {
		v.Punisher.PunishCheater(ctx, sender, p.CheatStrikes)
	}
	return CheatDetectedError("%s should still be locked on %s", entry.Name, sender.Name)
}

// ResolveForfeit looks up a stake's forfeit, failing for unknown keys
func (v *BetValidator) ResolveForfeit(key string) (*ForfeitEntry, error) {
	entry, ok := v.Catalog.Lookup(key)
	if !ok {
		return nil, InternalError(fmt.Errorf("unknown forfeit %q", key), "unknown forfeit")
	}
	return entry, nil
}
