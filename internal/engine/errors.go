package engine

import "errors"

// Rejected-action errors. None of these are fatal: the worst user-visible
// outcome is a refused action with an explanatory message.
var (
	// ErrInsufficientFunds means a purchase was attempted with a gold
	// balance below the item cost. No state change occurs.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotEquippable means an equip was attempted on an item that
	// declares no equipment slot. No state change occurs.
	ErrNotEquippable = errors.New("item is not equippable")

	// ErrAlreadyCompleted means quest completion was invoked twice for
	// one date. Callers should disable the action once completed.
	ErrAlreadyCompleted = errors.New("daily quest already completed")

	// ErrNoAvailablePoints means a stat upgrade was attempted with an
	// empty point pool. No state change occurs.
	ErrNoAvailablePoints = errors.New("no available stat points")

	// ErrItemNotFound means the referenced item is not in the owner's
	// inventory.
	ErrItemNotFound = errors.New("item not found in inventory")

	// ErrNoActiveSession means an action arrived while no hunter is
	// logged in.
	ErrNoActiveSession = errors.New("no active session")
)
