package utils

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sort"
	"sync"
	"time"
)

// ItemLock is a timer padlock placed on a worn item
type ItemLock struct {
	Password string    `json:"password"`
	Until    time.Time `json:"until"`
	Owner    string    `json:"owner"`
}

// WornItem is one item occupying an avatar slot
type WornItem struct {
	Slot       string    `json:"slot"`
	Name       string    `json:"name"`
	Craft      string    `json:"craft,omitempty"`
	Colours    []string  `json:"colours,omitempty"`
	Difficulty int       `json:"difficulty,omitempty"`
	Lock       *ItemLock `json:"lock,omitempty"`
}

// Avatar is the appearance layer forfeits are applied through
type Avatar interface {
	Worn(ctx context.Context, playerID int64, slot string) (WornItem, bool)
	AllowsInteraction(ctx context.Context, playerID int64) bool
	IsSlotBlocked(ctx context.Context, playerID int64, slot string) bool
	HairColour(ctx context.Context, playerID int64) (string, error)
	Equip(ctx context.Context, playerID int64, item WornItem) error
	Remove(ctx context.Context, playerID int64, slot string) error
}

type wardrobeEntry struct {
	items      map[string]WornItem
	noConsent  bool
	blocked    map[string]bool
	hairColour string
}

// Wardrobe is an in-memory avatar layer for transports without a native one
type Wardrobe struct {
	mutex   sync.RWMutex
	players map[int64]*wardrobeEntry
}

// NewWardrobe creates an empty wardrobe
func NewWardrobe() *Wardrobe {
	return &Wardrobe{
		players: make(map[int64]*wardrobeEntry),
	}
}

func (w *Wardrobe) entryLocked(playerID int64) *wardrobeEntry {
	e, ok := w.players[playerID]
	if !ok {
		e = &wardrobeEntry{
			items:   make(map[string]WornItem),
			blocked: make(map[string]bool),
		}
		w.players[playerID] = e
	}
	return e
}

func (w *Wardrobe) Worn(ctx context.Context, playerID int64, slot string) (WornItem, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	e, ok := w.players[playerID]
	if !ok {
		return WornItem{}, false
	}
	item, ok := e.items[slot]
	return item, ok
}

// Items lists everything the player wears, ordered by slot
func (w *Wardrobe) Items(playerID int64) []WornItem {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	e, ok := w.players[playerID]
	if !ok {
		return nil
	}
	items := make([]WornItem, 0, len(e.items))
	for _, item := range e.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Slot < items[j].Slot })
	return items
}

func (w *Wardrobe) AllowsInteraction(ctx context.Context, playerID int64) bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	e, ok := w.players[playerID]
	return !ok || !e.noConsent
}

func (w *Wardrobe) IsSlotBlocked(ctx context.Context, playerID int64, slot string) bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	e, ok := w.players[playerID]
	return ok && e.blocked[slot]
}

func (w *Wardrobe) HairColour(ctx context.Context, playerID int64) (string, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	e, ok := w.players[playerID]
	if !ok || e.hairColour == "" {
		return "", fmt.Errorf("no hair colour for player %d", playerID)
	}
	return e.hairColour, nil
}

func (w *Wardrobe) Equip(ctx context.Context, playerID int64, item WornItem) error {
	if item.Slot == "" {
		return fmt.Errorf("item %q has no slot", item.Name)
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.entryLocked(playerID).items[item.Slot] = item
	return nil
}

func (w *Wardrobe) Remove(ctx context.Context, playerID int64, slot string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	e, ok := w.players[playerID]
	if !ok {
		return fmt.Errorf("player %d wears nothing in %s", playerID, slot)
	}
	if _, ok := e.items[slot]; !ok {
		return fmt.Errorf("player %d wears nothing in %s", playerID, slot)
	}
	delete(e.items, slot)
	return nil
}

// SetConsent records whether the casino may put items on the player
func (w *Wardrobe) SetConsent(playerID int64, allow bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.entryLocked(playerID).noConsent = !allow
}

// SetSlotBlocked records a per-slot permission block
func (w *Wardrobe) SetSlotBlocked(playerID int64, slot string, blocked bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	e := w.entryLocked(playerID)
	if blocked {
		e.blocked[slot] = true
	} else {
		delete(e.blocked, slot)
	}
}

// SetHairColour sets the colour forfeits are tinted with
func (w *Wardrobe) SetHairColour(playerID int64, colour string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.entryLocked(playerID).hairColour = colour
}

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// GeneratePassword returns a random padlock code
func GeneratePassword() string {
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = passwordAlphabet[rand.IntN(len(passwordAlphabet))]
	}
	return string(buf)
}
