package engine

import (
	"errors"
	"testing"

	"github.com/phantomguild/system-server/internal/domain/item"
	"github.com/phantomguild/system-server/internal/domain/player"
)

func TestPurchaseDebitsGold(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	p.Gold = 150
	spec, _ := item.FromCatalog("fatigue_potion")

	after, purchased, err := Purchase(p, spec, "item-1")
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if after.Gold != 50 {
		t.Errorf("Expected balance 50 after a 100 gold purchase, got %d", after.Gold)
	}
	if purchased.ID != "item-1" || purchased.Type != item.TypePotion {
		t.Errorf("Unexpected purchased item: %+v", purchased)
	}
}

func TestPurchaseInsufficientFundsChangesNothing(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	p.Gold = 50
	spec, _ := item.FromCatalog("fatigue_potion") // costs 100

	_, _, err := Purchase(p, spec, "item-1")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if p.Gold != 50 {
		t.Errorf("Failed purchase must not touch the balance, got %d", p.Gold)
	}
}

func TestEquipRejectsNonGear(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	potion := item.Item{ID: "item-1", Type: item.TypePotion}

	_, err := Equip(p, potion)
	if !errors.Is(err, ErrNotEquippable) {
		t.Errorf("Expected ErrNotEquippable for a potion, got %v", err)
	}
}

func TestEquipOverwritesSlot(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	dagger := item.Item{ID: "item-1", Type: item.TypeGear, Slot: player.SlotWeapon}
	sword := item.Item{ID: "item-2", Type: item.TypeGear, Slot: player.SlotWeapon}

	p, err := Equip(p, dagger)
	if err != nil {
		t.Fatalf("Equip failed: %v", err)
	}
	p, err = Equip(p, sword)
	if err != nil {
		t.Fatalf("Equip failed: %v", err)
	}

	if got := p.Equipment.Get(player.SlotWeapon); got != "item-2" {
		t.Errorf("Expected the later item to occupy the slot, got %q", got)
	}
}

func TestDiscardCascadesToEquipment(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	dagger := item.Item{ID: "item-1", Type: item.TypeGear, Slot: player.SlotWeapon, Bonuses: map[string]int{player.StatStrength: 5}}
	inv := []item.Item{dagger}

	p, err := Equip(p, dagger)
	if err != nil {
		t.Fatalf("Equip failed: %v", err)
	}

	inv, _, ok := RemoveItem(inv, "item-1")
	if !ok {
		t.Fatal("Expected the item to be removed")
	}
	p = ClearReferences(p, "item-1")

	if got := p.Equipment.Get(player.SlotWeapon); got != "" {
		t.Errorf("Discard must clear the occupying slot, got %q", got)
	}
	bonuses := ComputeEquippedBonuses(p, inv)
	if bonuses[player.StatStrength] != 0 {
		t.Errorf("Discarded gear must contribute nothing, got +%d strength", bonuses[player.StatStrength])
	}
}

func TestBonusesSkipDanglingReferences(t *testing.T) {
	// Older persisted snapshots may reference items that no longer
	// exist; derivation tolerates them silently.
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	p.Equipment.Set(player.SlotWeapon, "ghost-item")

	bonuses := ComputeEquippedBonuses(p, nil)
	for key, v := range bonuses {
		if v != 0 {
			t.Errorf("Dangling slot must contribute zero, got %s=+%d", key, v)
		}
	}
	if len(bonuses) != len(player.StatKeys) {
		t.Errorf("Expected every stat key present, got %d entries", len(bonuses))
	}
}

func TestBonusesSumAcrossSlots(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	inv := []item.Item{
		{ID: "item-1", Type: item.TypeGear, Slot: player.SlotWeapon, Bonuses: map[string]int{player.StatStrength: 5, player.StatAgility: 3}},
		{ID: "item-2", Type: item.TypeGear, Slot: player.SlotRing1, Bonuses: map[string]int{player.StatSense: 5}},
		{ID: "item-3", Type: item.TypeRune, Slot: player.SlotRune, Bonuses: map[string]int{player.StatIntelligence: 8}},
	}
	for _, it := range inv {
		var err error
		p, err = Equip(p, it)
		if err != nil {
			t.Fatalf("Equip %s failed: %v", it.ID, err)
		}
	}

	bonuses := ComputeEquippedBonuses(p, inv)
	if bonuses[player.StatStrength] != 5 || bonuses[player.StatAgility] != 3 {
		t.Errorf("Unexpected weapon bonuses: %+v", bonuses)
	}
	if bonuses[player.StatSense] != 5 || bonuses[player.StatIntelligence] != 8 {
		t.Errorf("Unexpected ring/rune bonuses: %+v", bonuses)
	}
}

func TestRemoveItemUnknownID(t *testing.T) {
	inv := []item.Item{{ID: "item-1"}}

	newInv, _, ok := RemoveItem(inv, "missing")
	if ok {
		t.Error("Removing an unknown id should report failure")
	}
	if len(newInv) != 1 {
		t.Errorf("Collection must be unchanged, got %d items", len(newInv))
	}
}
