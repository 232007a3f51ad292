package utils

import (
	"context"
	"sort"
	"strings"
	"time"
)

// ForfeitItem is one avatar item a forfeit puts on the loser
type ForfeitItem struct {
	Slot string `json:"slot"`
	Name string `json:"name"`
}

// PadlockItem is the pseudo item checked when a forfeit locks what it applies
var PadlockItem = ForfeitItem{Slot: "Padlock", Name: "Timer Password Padlock"}

// ApplyFunc replaces the default equip behaviour of a forfeit. now is the
// casino clock's time of the loss.
type ApplyFunc func(ctx context.Context, avatar Avatar, playerID int64, now time.Time) error

// ForfeitEntry is one row of the forfeit catalog
type ForfeitEntry struct {
	Key          string
	Name         string
	Value        int64
	Items        []ForfeitItem
	LockDuration time.Duration
	Apply        ApplyFunc
	ColourLayers []int
}

// RequiredItems returns every item the player must allow, padlock included
func (e *ForfeitEntry) RequiredItems() []ForfeitItem {
	items := append([]ForfeitItem(nil), e.Items...)
	if e.LockDuration > 0 {
		items = append(items, PadlockItem)
	}
	return items
}

// SingleItem returns the only item of a one-item forfeit
func (e *ForfeitEntry) SingleItem() (ForfeitItem, bool) {
	if len(e.Items) != 1 {
		return ForfeitItem{}, false
	}
	return e.Items[0], true
}

// Catalog is the read-only table of forfeit stakes
type Catalog struct {
	entries map[string]*ForfeitEntry
	order   []string
}

// NewCatalog builds a catalog from entries, keyed by lower-cased key
func NewCatalog(entries ...*ForfeitEntry) *Catalog {
	c := &Catalog{entries: make(map[string]*ForfeitEntry, len(entries))}
	for _, e := range entries {
		key := strings.ToLower(e.Key)
		if _, dup := c.entries[key]; !dup {
			c.order = append(c.order, key)
		}
		c.entries[key] = e
	}
	return c
}

// Lookup finds a forfeit by keyword
func (c *Catalog) Lookup(key string) (*ForfeitEntry, bool) {
	e, ok := c.entries[strings.ToLower(strings.TrimSpace(key))]
	return e, ok
}

// Entries returns the catalog in declaration order
func (c *Catalog) Entries() []*ForfeitEntry {
	out := make([]*ForfeitEntry, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.entries[key])
	}
	return out
}

// ByValue returns the catalog sorted by ascending value
func (c *Catalog) ByValue() []*ForfeitEntry {
	out := c.Entries()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// DefaultCatalog returns the built-in forfeits
func DefaultCatalog() *Catalog {
	return NewCatalog(
		&ForfeitEntry{
			Key:   "blindfold",
			Name:  "blindfold",
			Value: 4,
			Items: []ForfeitItem{{Slot: "ItemHead", Name: "Leather Blindfold"}},
		},
		&ForfeitEntry{
			Key:          "collar",
			Name:         "casino collar",
			Value:        3,
			Items:        []ForfeitItem{{Slot: "ItemNeck", Name: "Slim Leather Collar"}},
			LockDuration: time.Hour,
			ColourLayers: []int{0},
		},
		&ForfeitEntry{
			Key:          "gag",
			Name:         "ball gag",
			Value:        5,
			Items:        []ForfeitItem{{Slot: "ItemMouth", Name: "Ball Gag"}},
			LockDuration: 15 * time.Minute,
			ColourLayers: []int{1},
		},
		&ForfeitEntry{
			Key:   "boots",
			Name:  "ballet boots",
			Value: 5,
			Items: []ForfeitItem{{Slot: "ItemBoots", Name: "Ballet Heels"}},
		},
		&ForfeitEntry{
			Key:          "mittens",
			Name:         "leather mittens",
			Value:        6,
			Items:        []ForfeitItem{{Slot: "ItemHands", Name: "Leather Mittens"}},
			LockDuration: 20 * time.Minute,
			ColourLayers: []int{0, 2},
		},
		&ForfeitEntry{
			Key:          "legbinder",
			Name:         "leg binder",
			Value:        7,
			Items:        []ForfeitItem{{Slot: "ItemLegs", Name: "Leg Binder"}},
			LockDuration: 30 * time.Minute,
		},
		&ForfeitEntry{
			Key:   "maid",
			Name:  "maid uniform",
			Value: 8,
			Items: []ForfeitItem{
				{Slot: "Cloth", Name: "Maid Dress"},
				{Slot: "Hat", Name: "Maid Headband"},
				{Slot: "Gloves", Name: "Lace Gloves"},
			},
		},
		&ForfeitEntry{
			Key:          "armbinder",
			Name:         "armbinder",
			Value:        10,
			Items:        []ForfeitItem{{Slot: "ItemArms", Name: "Leather Armbinder"}},
			LockDuration: 30 * time.Minute,
			ColourLayers: []int{0},
		},
		&ForfeitEntry{
			Key:   "servant",
			Name:  "an hour as casino servant",
			Value: 12,
			Items: []ForfeitItem{{Slot: "ItemNeckAccessories", Name: "Servant Tag"}},
			Apply: func(ctx context.Context, avatar Avatar, playerID int64, now time.Time) error {
				return avatar.Equip(ctx, playerID, WornItem{
					Slot:  "ItemNeckAccessories",
					Name:  "Servant Tag",
					Craft: CraftNamePrefix + "Servant",
					Lock: &ItemLock{
						Password: GeneratePassword(),
						Until:    now.Add(time.Hour),
						Owner:    CasinoLockOwner,
					},
				})
			},
		},
		&ForfeitEntry{
			Key:          "belt",
			Name:         "chastity belt",
			Value:        15,
			Items:        []ForfeitItem{{Slot: "ItemPelvis", Name: "Polished Chastity Belt"}},
			LockDuration: 2 * time.Hour,
		},
	)
}
