package item

import "github.com/phantomguild/system-server/internal/domain/player"

// Catalog contains every purchasable item and its properties.
// Keys are stable catalog identifiers used by the shop surface.
var Catalog = map[string]Spec{
	"fatigue_potion": {
		Name:      "Fatigue Potion",
		Desc:      "Recover fatigue. Counts toward today's training.",
		Type:      TypePotion,
		Rarity:    RarityCommon,
		Cost:      100,
		BoostReps: 20,
		BoostKm:   2,
	},
	"lootbox_basic": {
		Name:   "Sealed Supply Box",
		Desc:   "A locked container dropped from a cleared gate.",
		Type:   TypeLootbox,
		Rarity: RarityRare,
		Cost:   500,
	},
	"gate_key": {
		Name:   "Gate Key",
		Desc:   "Opens one sealed supply box.",
		Type:   TypeKey,
		Rarity: RarityCommon,
		Cost:   250,
	},
	"kasaka_dagger": {
		Name:    "Kasaka's Venom Fang",
		Desc:    "A dagger carved from a serpent's fang.",
		Type:    TypeGear,
		Rarity:  RarityEpic,
		Cost:    3000,
		Slot:    player.SlotWeapon,
		Bonuses: map[string]int{player.StatStrength: 5, player.StatAgility: 3},
	},
	"knight_armor": {
		Name:    "Knight Killer Armor",
		Desc:    "Heavy plate stripped from a dungeon knight.",
		Type:    TypeGear,
		Rarity:  RarityRare,
		Cost:    2000,
		Slot:    player.SlotArmor,
		Bonuses: map[string]int{player.StatVitality: 6},
	},
	"wind_cloak": {
		Name:    "Cloak of the Wind",
		Desc:    "Barely weighs anything at all.",
		Type:    TypeGear,
		Rarity:  RarityRare,
		Cost:    1500,
		Slot:    player.SlotCloak,
		Bonuses: map[string]int{player.StatAgility: 4},
	},
	"sense_ring": {
		Name:    "Ring of Perception",
		Desc:    "A thin band that sharpens the senses.",
		Type:    TypeGear,
		Rarity:  RarityEpic,
		Cost:    2500,
		Slot:    player.SlotRing1,
		Bonuses: map[string]int{player.StatSense: 5},
	},
	"sage_rune": {
		Name:    "Rune of the Sage",
		Desc:    "Etched glyph humming with mana.",
		Type:    TypeRune,
		Rarity:  RarityLegendary,
		Cost:    5000,
		Slot:    player.SlotRune,
		Bonuses: map[string]int{player.StatIntelligence: 8},
	},
	"mana_crystal": {
		Name:   "Mana Crystal",
		Desc:   "Raw crafting material harvested from a gate.",
		Type:   TypeMaterial,
		Rarity: RarityCommon,
		Cost:   50,
	},
}

// FromCatalog returns the spec for a catalog identifier.
func FromCatalog(id string) (Spec, bool) {
	spec, ok := Catalog[id]
	return spec, ok
}
