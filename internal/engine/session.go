package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/phantomguild/system-server/internal/domain/item"
	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/notify"
	"github.com/phantomguild/system-server/internal/platform/logger"
	"github.com/phantomguild/system-server/internal/platform/metrics"
)

// PlayerStore persists player snapshots. Implemented by infra/storage;
// the engine never touches the database directly.
type PlayerStore interface {
	SavePlayer(ctx context.Context, p *player.Player) error
	// LoadPlayer returns (nil, nil) when the key has never been written.
	LoadPlayer(ctx context.Context, email string) (*player.Player, error)
}

// InventoryStore persists the owned-item collection, independently of
// the player snapshot. No cross-key atomicity is provided or required.
type InventoryStore interface {
	SaveInventory(ctx context.Context, email string, inv []item.Item) error
	LoadInventory(ctx context.Context, email string) ([]item.Item, error)
}

// Session holds the state of one logged-in hunter: the current player
// snapshot, today's working record, the owned inventory and the penalty
// machine. All transitions go through pure functions; the session's job
// is sequencing, persistence and event emission.
type Session struct {
	mu sync.Mutex

	player    *player.Player
	today     player.DailyProgress
	inventory []item.Item
	penalty   *PenaltyMachine

	clock    Clock
	players  PlayerStore
	items    InventoryStore
	eventLog *events.EventLog
	logger   *logger.Logger
	notify   notify.Notifier

	cancel context.CancelFunc // stops the session-bound schedulers
}

// Player returns a snapshot copy of the current player.
func (s *Session) Player() *player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Clone()
}

// Today returns today's working record.
func (s *Session) Today() player.DailyProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.today
}

// Inventory returns a copy of the owned-item collection.
func (s *Session) Inventory() []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := make([]item.Item, len(s.inventory))
	copy(inv, s.inventory)
	return inv
}

// Penalty exposes the penalty machine for the action surface.
func (s *Session) Penalty() *PenaltyMachine {
	return s.penalty
}

// EquippedBonuses derives the current equipment stat bonuses.
func (s *Session) EquippedBonuses() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeEquippedBonuses(s.player, s.inventory)
}

// emit appends a session-scoped event.
func (s *Session) emit(t events.EventType, payload interface{}) {
	s.eventLog.Append(events.SystemEvent{
		Type:     t,
		PlayerID: s.player.Email,
		Date:     s.today.Date,
		Payload:  payload,
	})
}

// persistPlayer writes the current snapshot. Failures are logged, never
// surfaced: durability is best-effort per the store contract.
func (s *Session) persistPlayer(ctx context.Context) {
	if err := s.players.SavePlayer(ctx, s.player); err != nil {
		s.logger.Error("Failed to persist player %s: %v", s.player.Email, err)
	}
}

func (s *Session) persistInventory(ctx context.Context) {
	if err := s.items.SaveInventory(ctx, s.player.Email, s.inventory); err != nil {
		s.logger.Error("Failed to persist inventory %s: %v", s.player.Email, err)
	}
}

// UpdateProgress applies a typed update to one of the four counters and
// persists the record so a reload resumes mid-day progress.
func (s *Session) UpdateProgress(ctx context.Context, field string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.today.Completed {
		return ErrAlreadyCompleted
	}

	switch field {
	case "pushups":
		s.today = WithPushups(s.today, int(value))
	case "situps":
		s.today = WithSitups(s.today, int(value))
	case "squats":
		s.today = WithSquats(s.today, int(value))
	case "running":
		s.today = WithRunningKm(s.today, value)
	default:
		return fmt.Errorf("unknown progress field %q", field)
	}

	s.player.UpsertHistory(s.today)
	s.persistPlayer(ctx)
	s.emit(events.EventTypeProgressUpdated, s.today)
	return nil
}

// CompleteQuest resolves today's quest completion: rewards, cascading
// level-ups, tier transitions. Returns ErrAlreadyCompleted when invoked
// twice for one date.
func (s *Session) CompleteQuest(ctx context.Context) (CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := ResolveQuestCompletion(s.player, s.today)
	if err != nil {
		return CompletionResult{}, err
	}

	s.player = result.Player
	s.today = result.Progress
	s.persistPlayer(ctx)

	metrics.Get().RecordQuestCompleted()
	s.logger.Event("QUEST_COMPLETED", s.player.Email, fmt.Sprintf("level=%d streak=%d", s.player.Level, s.player.Streak))

	s.emit(events.EventTypeQuestCompleted, map[string]interface{}{
		"leveled_up": result.LeveledUp,
		"level":      s.player.Level,
		"streak":     s.player.Streak,
	})
	if result.LeveledUp {
		s.emit(events.EventTypeLevelUp, map[string]interface{}{
			"level":            s.player.Level,
			"available_points": s.player.Stats.AvailablePoints,
		})
	}
	if result.Transition.NewRank != nil {
		s.emit(events.EventTypeRankChanged, map[string]interface{}{"rank": *result.Transition.NewRank})
	}
	if result.Transition.NewClass != nil {
		s.emit(events.EventTypeClassChanged, map[string]interface{}{
			"class": *result.Transition.NewClass,
			"title": s.player.Title,
		})
	}

	return result, nil
}

// GoalsMet reports whether today's counters all reached their targets.
func (s *Session) GoalsMet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GoalsMet(s.today)
}

// Forfeit throws the hunter into the penalty zone voluntarily.
func (s *Session) Forfeit() bool {
	s.mu.Lock()
	email, date := s.player.Email, s.today.Date
	s.mu.Unlock()

	activated := s.penalty.Activate(email, date, "forfeit")
	if activated {
		metrics.Get().RecordPenaltyTriggered()
	}
	return activated
}

// triggerCutoffPenalty is fired by the cutoff watchdog.
func (s *Session) triggerCutoffPenalty(reason string) {
	s.mu.Lock()
	email, date := s.player.Email, s.today.Date
	s.mu.Unlock()

	if s.penalty.Activate(email, date, reason) {
		metrics.Get().RecordPenaltyTriggered()
		s.notify.Alert(email, "PENALTY QUEST", "The cutoff passed. Survive.")
	}
}

// Struggle processes one penalty interaction. When the hunter survives,
// today's record is marked penalty-survived (never completed: the two
// flags are independent) and persisted through the same
// replace-by-date rule as quest completion.
func (s *Session) Struggle(ctx context.Context) StruggleResult {
	result := s.penalty.Struggle()
	if !result.Survived {
		return result
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.today.PenaltySurvived = true
	s.player.UpsertHistory(s.today)
	s.persistPlayer(ctx)
	metrics.Get().RecordPenaltySurvived()
	return result
}

// UpgradeStat spends one point from the available pool on a base
// attribute. Fails with ErrNoAvailablePoints on an empty pool.
func (s *Session) UpgradeStat(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := false
	for _, k := range player.StatKeys {
		if k == key {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown stat %q", key)
	}
	if s.player.Stats.AvailablePoints <= 0 {
		return ErrNoAvailablePoints
	}

	after := s.player.Clone()
	after.Stats.Add(key, 1)
	after.Stats.AvailablePoints--
	s.player = after

	s.persistPlayer(ctx)
	s.emit(events.EventTypeStatUpgraded, map[string]interface{}{"stat": key})
	return nil
}

// PurchaseItem buys a catalog item. Player and inventory are persisted
// as two independent writes per the store contract. Potions apply their
// one-time boost to today's counters immediately.
func (s *Session) PurchaseItem(ctx context.Context, catalogID string) (item.Item, error) {
	spec, ok := item.FromCatalog(catalogID)
	if !ok {
		return item.Item{}, fmt.Errorf("unknown catalog item %q", catalogID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	after, purchased, err := Purchase(s.player, spec, uuid.NewString())
	if err != nil {
		return item.Item{}, err
	}

	s.player = after
	s.inventory = append(s.inventory, purchased)

	if spec.Type == item.TypePotion && !s.today.Completed {
		s.today = WithBoost(s.today, spec.BoostReps, spec.BoostKm)
		s.player.UpsertHistory(s.today)
	}

	s.persistPlayer(ctx)
	s.persistInventory(ctx)
	metrics.Get().RecordPurchase()

	s.emit(events.EventTypeItemPurchased, map[string]interface{}{
		"item_id": purchased.ID,
		"name":    purchased.Name,
		"cost":    spec.Cost,
	})
	return purchased, nil
}

// EquipItem places an owned item into its declared slot.
func (s *Session) EquipItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := FindItem(s.inventory, itemID)
	if !ok {
		return ErrItemNotFound
	}

	after, err := Equip(s.player, it)
	if err != nil {
		return err
	}
	s.player = after
	s.persistPlayer(ctx)
	s.emit(events.EventTypeItemEquipped, map[string]interface{}{"item_id": it.ID, "slot": it.Slot})
	return nil
}

// UnequipSlot empties one equipment slot.
func (s *Session) UnequipSlot(ctx context.Context, slot player.EquipmentSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player = Unequip(s.player, slot)
	s.persistPlayer(ctx)
	s.emit(events.EventTypeItemUnequipped, map[string]interface{}{"slot": slot})
}

// RemoveItem destroys an owned item (use and discard share the same
// lifecycle: the item leaves the collection). A discard of an equipped
// item cascades to clear the occupying slot.
func (s *Session) RemoveItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newInv, removed, ok := RemoveItem(s.inventory, itemID)
	if !ok {
		return ErrItemNotFound
	}

	s.inventory = newInv
	s.player = ClearReferences(s.player, itemID)
	s.persistPlayer(ctx)
	s.persistInventory(ctx)
	s.emit(events.EventTypeItemRemoved, map[string]interface{}{"item_id": removed.ID, "name": removed.Name})
	return nil
}

// watchdogShouldRun is the shared precondition for both schedulers.
func (s *Session) watchdogShouldRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.today.Completed || s.today.PenaltySurvived {
		return false
	}
	return s.penalty.State() == PenaltyIdle
}

// reminderShouldRun keeps nagging until the quest is done for the day.
func (s *Session) reminderShouldRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.today.Completed
}

// remind emits a reminder-due event for the narrator to pick up and
// pushes a notification alert alongside it. In the last hour before
// the cutoff the reminder carries a final-hour flag so the narration
// escalates to a failure warning.
func (s *Session) remind() {
	finalHour := s.clock.Now().Hour() >= CutoffHour-1
	s.emit(events.EventTypeReminderDue, map[string]interface{}{"final_hour": finalHour})

	s.mu.Lock()
	email := s.player.Email
	s.mu.Unlock()
	if finalHour {
		s.notify.Alert(email, "WARNING", "The cutoff approaches. Complete the Daily Quest.")
		return
	}
	s.notify.Alert(email, "DAILY QUEST", "The Daily Quest remains incomplete.")
}
