package engine

import (
	"github.com/phantomguild/system-server/internal/domain/item"
	"github.com/phantomguild/system-server/internal/domain/player"
)

// Purchase debits the item cost and materializes the purchased item.
// Fails with ErrInsufficientFunds when the balance is below cost; the
// returned player is then nil and no state changes. Appending the item
// to the inventory collection is the caller's half of the transaction.
func Purchase(p *player.Player, spec item.Spec, itemID string) (*player.Player, item.Item, error) {
	if p.Gold < spec.Cost {
		return nil, item.Item{}, ErrInsufficientFunds
	}

	after := p.Clone()
	after.Gold -= spec.Cost
	return after, spec.Instantiate(itemID), nil
}

// Equip places the item into its declared slot, unconditionally
// overwriting the previous occupant. Only one item occupies a slot by
// construction, so no auto-unequip bookkeeping is needed.
func Equip(p *player.Player, it item.Item) (*player.Player, error) {
	if !it.Equippable() {
		return nil, ErrNotEquippable
	}

	after := p.Clone()
	after.Equipment.Set(it.Slot, it.ID)
	return after, nil
}

// Unequip empties a slot. No-op-safe if the slot is already empty.
func Unequip(p *player.Player, slot player.EquipmentSlot) *player.Player {
	after := p.Clone()
	after.Equipment.Clear(slot)
	return after
}

// RemoveItem deletes an item from the inventory collection by
// identifier. The second return is the removed item; ok is false when
// the identifier was not present.
func RemoveItem(inv []item.Item, itemID string) (newInv []item.Item, removed item.Item, ok bool) {
	newInv = make([]item.Item, 0, len(inv))
	for _, it := range inv {
		if it.ID == itemID && !ok {
			removed = it
			ok = true
			continue
		}
		newInv = append(newInv, it)
	}
	return newInv, removed, ok
}

// ClearReferences empties every equipment slot occupied by the given
// item identifier. Used to cascade a discard so equipment never keeps
// pointing at an item that no longer exists.
func ClearReferences(p *player.Player, itemID string) *player.Player {
	after := p.Clone()
	for _, slot := range player.SlotOrder {
		if after.Equipment.Get(slot) == itemID {
			after.Equipment.Clear(slot)
		}
	}
	return after
}

// FindItem looks up an owned item by identifier.
func FindItem(inv []item.Item, itemID string) (item.Item, bool) {
	for _, it := range inv {
		if it.ID == itemID {
			return it, true
		}
	}
	return item.Item{}, false
}

// ComputeEquippedBonuses walks the 9 slots in stable order and sums the
// stat bonuses of every equipped item. Slots referencing an item absent
// from the inventory contribute nothing; older persisted snapshots may
// still carry such dangling identifiers. Pure: identical inputs always
// yield identical output.
func ComputeEquippedBonuses(p *player.Player, inv []item.Item) map[string]int {
	totals := make(map[string]int, len(player.StatKeys))
	for _, key := range player.StatKeys {
		totals[key] = 0
	}

	for _, slot := range player.SlotOrder {
		id := p.Equipment.Get(slot)
		if id == "" {
			continue
		}
		it, ok := FindItem(inv, id)
		if !ok {
			continue // dangling reference, silently skipped
		}
		for key, bonus := range it.Bonuses {
			totals[key] += bonus
		}
	}
	return totals
}
