// Package player defines the core domain entities for the hunter profile.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package player

// Rank is the cosmetic tier label derived from the hunter's level.
type Rank string

const (
	RankE        Rank = "E-Rank"
	RankD        Rank = "D-Rank"
	RankC        Rank = "C-Rank"
	RankB        Rank = "B-Rank"
	RankA        Rank = "A-Rank"
	RankS        Rank = "S-Rank"
	RankNational Rank = "National Level"
)

// Class is the hunter job, also derived purely from level.
type Class string

const (
	ClassNone          Class = "None"
	ClassFighter       Class = "Fighter"
	ClassAssassin      Class = "Assassin"
	ClassNecromancer   Class = "Necromancer"
	ClassShadowMonarch Class = "Shadow Monarch"
)

// Canonical stat keys, used for equipment bonus maps.
const (
	StatStrength     = "strength"
	StatAgility      = "agility"
	StatSense        = "sense"
	StatVitality     = "vitality"
	StatIntelligence = "intelligence"
)

// StatKeys lists the five base attributes in display order.
var StatKeys = []string{StatStrength, StatAgility, StatSense, StatVitality, StatIntelligence}

// Stats holds the five base attributes plus the unspent point pool.
// Equipment bonuses are never stored here; they are derived at read time.
type Stats struct {
	Strength        int `json:"strength"`
	Agility         int `json:"agility"`
	Sense           int `json:"sense"`
	Vitality        int `json:"vitality"`
	Intelligence    int `json:"intelligence"`
	AvailablePoints int `json:"available_points"`
}

// Get returns the value of a base attribute by its canonical key.
func (s Stats) Get(key string) int {
	switch key {
	case StatStrength:
		return s.Strength
	case StatAgility:
		return s.Agility
	case StatSense:
		return s.Sense
	case StatVitality:
		return s.Vitality
	case StatIntelligence:
		return s.Intelligence
	}
	return 0
}

// Add increments a base attribute by its canonical key.
func (s *Stats) Add(key string, delta int) {
	switch key {
	case StatStrength:
		s.Strength += delta
	case StatAgility:
		s.Agility += delta
	case StatSense:
		s.Sense += delta
	case StatVitality:
		s.Vitality += delta
	case StatIntelligence:
		s.Intelligence += delta
	}
}

// DailyProgress is the single mutable record for one calendar date.
// Completed and PenaltySurvived are independent flags: a hunter can
// survive the penalty and still complete the quest the same day.
type DailyProgress struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	Pushups         int     `json:"pushups"`
	Situps          int     `json:"situps"`
	Squats          int     `json:"squats"`
	RunningKm       float64 `json:"running_km"`
	Completed       bool    `json:"completed"`
	PenaltySurvived bool    `json:"penalty_survived"`
}

// NewDailyProgress returns a zeroed record for the given date.
func NewDailyProgress(date string) DailyProgress {
	return DailyProgress{Date: date}
}

// EquipmentSlot is one of the 9 fixed body-location categories.
type EquipmentSlot string

const (
	SlotWeapon   EquipmentSlot = "weapon"
	SlotArmor    EquipmentSlot = "armor"
	SlotCloak    EquipmentSlot = "cloak"
	SlotGloves   EquipmentSlot = "gloves"
	SlotBoots    EquipmentSlot = "boots"
	SlotNecklace EquipmentSlot = "necklace"
	SlotRing1    EquipmentSlot = "ring1"
	SlotRing2    EquipmentSlot = "ring2"
	SlotRune     EquipmentSlot = "rune"
)

// SlotOrder is the stable iteration order for bonus aggregation.
var SlotOrder = []EquipmentSlot{
	SlotWeapon, SlotArmor, SlotCloak, SlotGloves, SlotBoots,
	SlotNecklace, SlotRing1, SlotRing2, SlotRune,
}

// Equipment maps every slot to an optional owned-item identifier.
// An empty string means the slot is empty. All 9 slots are always present.
type Equipment struct {
	Weapon   string `json:"weapon"`
	Armor    string `json:"armor"`
	Cloak    string `json:"cloak"`
	Gloves   string `json:"gloves"`
	Boots    string `json:"boots"`
	Necklace string `json:"necklace"`
	Ring1    string `json:"ring1"`
	Ring2    string `json:"ring2"`
	Rune     string `json:"rune"`
}

// Get returns the item identifier occupying a slot, or "" if empty.
func (e Equipment) Get(slot EquipmentSlot) string {
	switch slot {
	case SlotWeapon:
		return e.Weapon
	case SlotArmor:
		return e.Armor
	case SlotCloak:
		return e.Cloak
	case SlotGloves:
		return e.Gloves
	case SlotBoots:
		return e.Boots
	case SlotNecklace:
		return e.Necklace
	case SlotRing1:
		return e.Ring1
	case SlotRing2:
		return e.Ring2
	case SlotRune:
		return e.Rune
	}
	return ""
}

// Set places an item identifier into a slot, overwriting the previous occupant.
func (e *Equipment) Set(slot EquipmentSlot, itemID string) {
	switch slot {
	case SlotWeapon:
		e.Weapon = itemID
	case SlotArmor:
		e.Armor = itemID
	case SlotCloak:
		e.Cloak = itemID
	case SlotGloves:
		e.Gloves = itemID
	case SlotBoots:
		e.Boots = itemID
	case SlotNecklace:
		e.Necklace = itemID
	case SlotRing1:
		e.Ring1 = itemID
	case SlotRing2:
		e.Ring2 = itemID
	case SlotRune:
		e.Rune = itemID
	}
}

// Clear empties a slot. No-op-safe if already empty.
func (e *Equipment) Clear(slot EquipmentSlot) {
	e.Set(slot, "")
}

// Player is the root aggregate: identity, progression state, economy,
// stats, daily history and the equipment mapping.
type Player struct {
	Email     string          `json:"email"` // opaque identity key, no verification
	Username  string          `json:"username"`
	Level     int             `json:"level"`
	CurrentXP int             `json:"current_xp"`
	RequiredXP int            `json:"required_xp"`
	Gold      int             `json:"gold"`
	Rank      Rank            `json:"rank"`
	Class     Class           `json:"class"`
	Title     string          `json:"title"`
	Stats     Stats           `json:"stats"`
	Streak    int             `json:"streak"` // count of completions, not consecutive days
	History   []DailyProgress `json:"history"`
	Equipment Equipment       `json:"equipment"`
}

// NewPlayer creates a fresh hunter with default starting state.
func NewPlayer(email, username string) *Player {
	return &Player{
		Email:      email,
		Username:   username,
		Level:      1,
		CurrentXP:  0,
		RequiredXP: 100,
		Gold:       0,
		Rank:       RankE,
		Class:      ClassNone,
		Title:      "The Weakest",
		Stats: Stats{
			Strength:     10,
			Agility:      10,
			Sense:        10,
			Vitality:     10,
			Intelligence: 10,
		},
		History: []DailyProgress{},
	}
}

// LastProgress returns the most recent history entry, or nil if empty.
// History is ordered by append time; the last entry is the newest.
func (p *Player) LastProgress() *DailyProgress {
	if len(p.History) == 0 {
		return nil
	}
	return &p.History[len(p.History)-1]
}

// UpsertHistory replaces any existing entry for the record's date and
// appends the new record, keeping at most one entry per date.
func (p *Player) UpsertHistory(record DailyProgress) {
	kept := p.History[:0]
	for _, h := range p.History {
		if h.Date != record.Date {
			kept = append(kept, h)
		}
	}
	p.History = append(kept, record)
}

// Clone returns a deep copy. State transitions operate on copies so the
// caller can replace the old snapshot atomically.
func (p *Player) Clone() *Player {
	cp := *p
	cp.History = make([]DailyProgress, len(p.History))
	copy(cp.History, p.History)
	return &cp
}

// Normalize repairs a snapshot loaded from storage: missing history and
// level/requirement fields are defaulted so core logic never sees a
// malformed player. Called at the load boundary, never deep in the logic.
func (p *Player) Normalize() {
	if p.Level < 1 {
		p.Level = 1
	}
	if p.RequiredXP <= 0 {
		p.RequiredXP = 100
	}
	if p.CurrentXP < 0 {
		p.CurrentXP = 0
	}
	if p.Gold < 0 {
		p.Gold = 0
	}
	if p.Rank == "" {
		p.Rank = RankE
	}
	if p.Class == "" {
		p.Class = ClassNone
	}
	if p.Title == "" {
		p.Title = "The Weakest"
	}
	if p.History == nil {
		p.History = []DailyProgress{}
	}
}
