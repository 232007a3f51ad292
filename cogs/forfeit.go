package cogs

import (
	"context"
	"fmt"
	"slices"
	"time"

	"ccasino/utils"
)

const (
	dunceHatColour = "#741010"
	signSlot       = "ItemMisc"
)

// ApplyForfeit puts a lost forfeit on the player. Single-item forfeits
// with a lock are recorded in the registry once the item is on.
func (c *Casino) ApplyForfeit(ctx context.Context, bet utils.Bet) error {
	entry, ok := c.catalog.Lookup(bet.ForfeitKey)
	if !ok {
		return utils.InternalError(fmt.Errorf("unknown forfeit %q", bet.ForfeitKey), "unknown forfeit")
	}
	now := c.clock.Now()

	if entry.Apply != nil {
		if err := entry.Apply(ctx, c.avatar, bet.PlayerID, now); err != nil {
			return utils.InternalError(err, "failed to apply %s", entry.Name)
		}
		c.recordLock(bet.PlayerID, entry, now)
		c.logger.Info("forfeit applied", "player", bet.PlayerID, "forfeit", entry.Key, "custom", true)
		return nil
	}

	colours := c.forfeitColours(ctx, bet.PlayerID, entry)
	for _, item := range entry.Items {
		worn := utils.WornItem{
			Slot:       item.Slot,
			Name:       item.Name,
			Craft:      utils.CraftNamePrefix + entry.Name,
			Colours:    colours,
			Difficulty: utils.ForfeitDifficulty,
		}
		if entry.LockDuration > 0 {
			worn.Lock = &utils.ItemLock{
				Password: utils.GeneratePassword(),
				Until:    now.Add(entry.LockDuration),
				Owner:    utils.CasinoLockOwner,
			}
		}
		if err := c.avatar.Equip(ctx, bet.PlayerID, worn); err != nil {
			return utils.InternalError(err, "failed to equip %s", item.Name)
		}
	}
	c.recordLock(bet.PlayerID, entry, now)
	c.logger.Info("forfeit applied", "player", bet.PlayerID, "forfeit", entry.Key, "lock", entry.LockDuration)
	return nil
}

func (c *Casino) recordLock(playerID int64, entry *utils.ForfeitEntry, now time.Time) {
	if item, single := entry.SingleItem(); single && entry.LockDuration > 0 {
		c.locks.Lock(playerID, item.Slot, now.Add(entry.LockDuration))
	}
}

// forfeitColours tints the listed colour layers with the wearer's hair
// colour, leaving the others at their default.
func (c *Casino) forfeitColours(ctx context.Context, playerID int64, entry *utils.ForfeitEntry) []string {
	hair, err := c.avatar.HairColour(ctx, playerID)
	if err != nil {
		c.logger.Debug("no hair colour, using fallback", "player", playerID, "err", err)
		hair = utils.FallbackItemColour
	}
	if len(entry.ColourLayers) == 0 {
		return []string{hair}
	}
	colours := make([]string, slices.Max(entry.ColourLayers)+1)
	for i := range colours {
		colours[i] = "Default"
	}
	for _, layer := range entry.ColourLayers {
		colours[layer] = hair
	}
	return colours
}

// PunishCheater escalates with each strike: two warnings, then the dunce hat
func (c *Casino) PunishCheater(ctx context.Context, sender utils.Sender, strikes int) {
	c.logger.Warn("punishing cheater", "player", sender.ID, "strikes", strikes)
	switch {
	case strikes <= 1:
		c.whisper(ctx, sender, "Cheating in the casino, hmm? Check your active forfeits with checkforfeits.")
	case strikes == 2:
		c.whisper(ctx, sender, fmt.Sprintf("Still trying to cheat, %s? Check your active forfeits with checkforfeits.", sender.Name))
	default:
		hat := utils.WornItem{Slot: "Hat", Name: "Dunce Hat", Colours: []string{dunceHatColour}}
		sign := utils.WornItem{Slot: signSlot, Name: "Wooden Sign", Craft: "Cheater"}
		for _, item := range []utils.WornItem{hat, sign} {
			if err := c.avatar.Equip(ctx, sender.ID, item); err != nil {
				c.logger.Error("failed to equip punishment", "player", sender.ID, "item", item.Name, "err", err)
			}
		}
		c.broadcast(ctx, fmt.Sprintf("%s has been caught cheating one time too many.", sender.Name))
	}
}
