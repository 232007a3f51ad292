package utils

import (
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// LockedItem is a registry row for a forfeit item still under the casino's padlock
type LockedItem struct {
	PlayerID int64     `json:"player_id"`
	Slot     string    `json:"slot"`
	Until    time.Time `json:"until"`
}

// LockedItemRegistry tracks which forfeit items should still be locked on
// each player, so a bet staking one of them can be caught.
type LockedItemRegistry struct {
	mutex sync.Mutex
	items map[int64]map[string]time.Time
	clock quartz.Clock
}

// NewLockedItemRegistry creates an empty registry
func NewLockedItemRegistry(clock quartz.Clock) *LockedItemRegistry {
	return &LockedItemRegistry{
		items: make(map[int64]map[string]time.Time),
		clock: clock,
	}
}

// Lock records slot as locked until the given time
func (r *LockedItemRegistry) Lock(playerID int64, slot string, until time.Time) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	slots, ok := r.items[playerID]
	if !ok {
		slots = make(map[string]time.Time)
		r.items[playerID] = slots
	}
	slots[slot] = until
}

// Unlock drops a lock early, e.g. after the player paid for removal
func (r *LockedItemRegistry) Unlock(playerID int64, slot string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if slots, ok := r.items[playerID]; ok {
		delete(slots, slot)
		if len(slots) == 0 {
			delete(r.items, playerID)
		}
	}
}

// IsLocked reports whether slot is still under an unexpired lock
func (r *LockedItemRegistry) IsLocked(playerID int64, slot string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	until, ok := r.items[playerID][slot]
	if !ok {
		return false
	}
	if !r.clock.Now().Before(until) {
		r.purgeLocked(playerID)
		return false
	}
	return true
}

// Active returns the player's unexpired locks soonest-expiring first,
// dropping any that have lapsed.
func (r *LockedItemRegistry) Active(playerID int64) []LockedItem {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.purgeLocked(playerID)
	slots := r.items[playerID]
	out := make([]LockedItem, 0, len(slots))
	for slot, until := range slots {
		out = append(out, LockedItem{PlayerID: playerID, Slot: slot, Until: until})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Until.Equal(out[j].Until) {
			return out[i].Slot < out[j].Slot
		}
		return out[i].Until.Before(out[j].Until)
	})
	return out
}

func (r *LockedItemRegistry) purgeLocked(playerID int64) {
	now := r.clock.Now()
	slots, ok := r.items[playerID]
	if !ok {
		return
	}
	for slot, until := range slots {
		if !now.Before(until) {
			delete(slots, slot)
		}
	}
	if len(slots) == 0 {
		delete(r.items, playerID)
	}
}
