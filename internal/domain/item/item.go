// Package item defines the core domain entities for inventory items and
// the shop catalog. This package is PURE and must NOT import any
// infrastructure packages.
package item

import "github.com/phantomguild/system-server/internal/domain/player"

// Type represents the kind of item.
type Type string

const (
	TypePotion   Type = "POTION"   // consumable, boosts today's counters
	TypeLootbox  Type = "LOOTBOX"  // consumable container
	TypeKey      Type = "KEY"      // consumable, opens lootboxes
	TypeGear     Type = "GEAR"     // equippable, occupies a body slot
	TypeMaterial Type = "MATERIAL" // consumable crafting material
	TypeRune     Type = "RUNE"     // equippable, rune slot only
)

// Rarity is the ordered quality tier of an item.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

// rarityOrder maps each tier to its position, lowest first.
var rarityOrder = map[Rarity]int{
	RarityCommon:    0,
	RarityRare:      1,
	RarityEpic:      2,
	RarityLegendary: 3,
}

// Order returns the tier position for sorting, lowest first.
func (r Rarity) Order() int {
	return rarityOrder[r]
}

// Item is one owned inventory entry. Created on purchase, destroyed on
// use or discard, never mutated otherwise.
type Item struct {
	ID     string `json:"id"` // unique per creation event
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Type   Type   `json:"type"`
	Rarity Rarity `json:"rarity"`

	// Slot is set iff the item is equippable (gear or rune).
	Slot player.EquipmentSlot `json:"slot,omitempty"`

	// Bonuses maps canonical stat keys to flat bonuses, equippables only.
	Bonuses map[string]int `json:"bonuses,omitempty"`
}

// Equippable reports whether the item can occupy an equipment slot.
func (i Item) Equippable() bool {
	return i.Slot != ""
}

// Spec describes a purchasable item template from the shop catalog.
type Spec struct {
	Name    string
	Desc    string
	Type    Type
	Rarity  Rarity
	Cost    int
	Slot    player.EquipmentSlot
	Bonuses map[string]int

	// Potion-only immediate boost applied to today's progress.
	BoostReps int
	BoostKm   float64
}

// Instantiate builds a concrete owned item from the spec. The caller
// supplies the unique identifier.
func (s Spec) Instantiate(id string) Item {
	var bonuses map[string]int
	if len(s.Bonuses) > 0 {
		bonuses = make(map[string]int, len(s.Bonuses))
		for k, v := range s.Bonuses {
			bonuses[k] = v
		}
	}
	return Item{
		ID:      id,
		Name:    s.Name,
		Desc:    s.Desc,
		Type:    s.Type,
		Rarity:  s.Rarity,
		Slot:    s.Slot,
		Bonuses: bonuses,
	}
}
