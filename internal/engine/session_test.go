package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phantomguild/system-server/internal/domain/item"
	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/platform/logger"
)

// memoryStore is an in-memory PlayerStore and InventoryStore.
type memoryStore struct {
	mu      sync.Mutex
	players map[string]*player.Player
	items   map[string][]item.Item
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		players: make(map[string]*player.Player),
		items:   make(map[string][]item.Item),
	}
}

func (m *memoryStore) SavePlayer(_ context.Context, p *player.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.Email] = p.Clone()
	return nil
}

func (m *memoryStore) LoadPlayer(_ context.Context, email string) (*player.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[email]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (m *memoryStore) SaveInventory(_ context.Context, email string, inv []item.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]item.Item, len(inv))
	copy(stored, inv)
	m.items[email] = stored
	return nil
}

func (m *memoryStore) LoadInventory(_ context.Context, email string) ([]item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[email], nil
}

func newTestManager(clock Clock) (*Manager, *memoryStore) {
	store := newMemoryStore()
	mgr := NewManager(clock, store, store, events.NewEventLog(nil), logger.NewLogger(), nil)
	return mgr, store
}

func midDayClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
}

func TestLoginRegistersFreshHunter(t *testing.T) {
	mgr, store := newTestManager(midDayClock())
	ctx := context.Background()

	s, err := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	defer mgr.Logout(ctx, "jin@hunter.io")

	p := s.Player()
	if p.Level != 1 || p.Rank != player.RankE || p.Title != "The Weakest" {
		t.Errorf("Fresh hunter has wrong defaults: %+v", p)
	}
	if s.Today().Date != "2026-08-31" {
		t.Errorf("Expected today's record bound to the clock date, got %s", s.Today().Date)
	}
	if _, ok := store.players["jin@hunter.io"]; !ok {
		t.Error("Registration must persist the initial snapshot")
	}
}

func TestLoginResumesExistingSession(t *testing.T) {
	mgr, _ := newTestManager(midDayClock())
	ctx := context.Background()

	s1, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	s2, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	defer mgr.Logout(ctx, "jin@hunter.io")

	if s1 != s2 {
		t.Error("Login while a session is live must return the same session")
	}
}

func TestProgressSurvivesRelogin(t *testing.T) {
	mgr, _ := newTestManager(midDayClock())
	ctx := context.Background()

	s, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	if err := s.UpdateProgress(ctx, "pushups", 60); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	mgr.Logout(ctx, "jin@hunter.io")

	s2, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	defer mgr.Logout(ctx, "jin@hunter.io")
	if s2.Today().Pushups != 60 {
		t.Errorf("Expected mid-day progress to resume after relogin, got %d", s2.Today().Pushups)
	}
}

func TestReloginRefreshesUsernameKeepsData(t *testing.T) {
	mgr, store := newTestManager(midDayClock())
	ctx := context.Background()

	s, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	if err := s.UpdateProgress(ctx, "situps", 40); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	mgr.Logout(ctx, "jin@hunter.io")

	s2, _ := mgr.Login(ctx, "jin@hunter.io", "shadow-monarch")
	defer mgr.Logout(ctx, "jin@hunter.io")

	p := s2.Player()
	if p.Username != "shadow-monarch" {
		t.Errorf("Relogin must refresh the username, got %q", p.Username)
	}
	if s2.Today().Situps != 40 {
		t.Errorf("Rename must not touch progress, got %d situps", s2.Today().Situps)
	}
	if stored := store.players["jin@hunter.io"]; stored.Username != "shadow-monarch" {
		t.Errorf("Refreshed username must be persisted, got %q", stored.Username)
	}

	// An empty username on relogin keeps the stored one.
	mgr.Logout(ctx, "jin@hunter.io")
	s3, _ := mgr.Login(ctx, "jin@hunter.io", "")
	defer mgr.Logout(ctx, "jin@hunter.io")
	if s3.Player().Username != "shadow-monarch" {
		t.Errorf("Empty username must not clear the stored name, got %q", s3.Player().Username)
	}
}

func TestCompleteQuestThroughSession(t *testing.T) {
	mgr, store := newTestManager(midDayClock())
	ctx := context.Background()

	s, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	defer mgr.Logout(ctx, "jin@hunter.io")

	result, err := s.CompleteQuest(ctx)
	if err != nil {
		t.Fatalf("CompleteQuest failed: %v", err)
	}
	if !result.LeveledUp {
		t.Error("First completion at level 1 must level up")
	}

	if _, err := s.CompleteQuest(ctx); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("Second completion the same day must fail, got %v", err)
	}

	persisted := store.players["jin@hunter.io"]
	if persisted.Level != 2 {
		t.Errorf("Expected the leveled snapshot persisted, got level %d", persisted.Level)
	}
}

func TestPenaltySurvivalIndependentOfCompletion(t *testing.T) {
	mgr, _ := newTestManager(midDayClock())
	ctx := context.Background()

	s, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	defer mgr.Logout(ctx, "jin@hunter.io")

	if !s.Forfeit() {
		t.Fatal("Forfeit should activate the penalty")
	}
	for i := 0; i <= PenaltyStartClicks; i++ {
		s.Struggle(ctx)
	}

	today := s.Today()
	if !today.PenaltySurvived {
		t.Error("Expected penalty-survived to be marked")
	}
	if today.Completed {
		t.Error("Surviving the penalty must not mark the quest completed")
	}

	// The other direction: completing afterwards keeps the survive flag.
	if _, err := s.CompleteQuest(ctx); err != nil {
		t.Fatalf("CompleteQuest failed: %v", err)
	}
	today = s.Today()
	if !today.Completed || !today.PenaltySurvived {
		t.Errorf("Both flags should be set independently, got %+v", today)
	}
}

func TestPotionPurchaseBoostsToday(t *testing.T) {
	mgr, _ := newTestManager(midDayClock())
	ctx := context.Background()

	s, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	defer mgr.Logout(ctx, "jin@hunter.io")

	if _, err := s.PurchaseItem(ctx, "fatigue_potion"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds with zero gold, got %v", err)
	}

	// Completing grants gold to spend.
	if _, err := s.CompleteQuest(ctx); err != nil {
		t.Fatalf("CompleteQuest failed: %v", err)
	}
	before := s.Today()

	purchased, err := s.PurchaseItem(ctx, "fatigue_potion")
	if err != nil {
		t.Fatalf("PurchaseItem failed: %v", err)
	}
	if purchased.Type != item.TypePotion {
		t.Errorf("Expected a potion, got %+v", purchased)
	}

	// The day is already completed, so the boost must not apply.
	if s.Today().Pushups != before.Pushups {
		t.Error("Boost must not apply to a completed day")
	}
	if len(s.Inventory()) != 1 {
		t.Errorf("Expected the potion in the inventory, got %d items", len(s.Inventory()))
	}
}

func TestEquipDiscardLifecycle(t *testing.T) {
	mgr, store := newTestManager(midDayClock())
	ctx := context.Background()

	rich := player.NewPlayer("jin@hunter.io", "jinwoo")
	rich.Gold = 5000
	store.players["jin@hunter.io"] = rich

	s, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	defer mgr.Logout(ctx, "jin@hunter.io")

	dagger, err := s.PurchaseItem(ctx, "kasaka_dagger")
	if err != nil {
		t.Fatalf("PurchaseItem failed: %v", err)
	}
	if err := s.EquipItem(ctx, dagger.ID); err != nil {
		t.Fatalf("EquipItem failed: %v", err)
	}
	if s.EquippedBonuses()[player.StatStrength] == 0 {
		t.Error("Expected the equipped dagger to grant strength")
	}

	if err := s.RemoveItem(ctx, dagger.ID); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if got := s.Player().Equipment.Get(player.SlotWeapon); got != "" {
		t.Errorf("Discard must cascade to the slot, got %q", got)
	}
	if s.EquippedBonuses()[player.StatStrength] != 0 {
		t.Error("Discarded gear must grant nothing")
	}

	if err := s.EquipItem(ctx, dagger.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Equipping a discarded item must fail, got %v", err)
	}
}

func TestUpgradeStatGuards(t *testing.T) {
	mgr, _ := newTestManager(midDayClock())
	ctx := context.Background()

	s, _ := mgr.Login(ctx, "jin@hunter.io", "jinwoo")
	defer mgr.Logout(ctx, "jin@hunter.io")

	if err := s.UpgradeStat(ctx, player.StatStrength); !errors.Is(err, ErrNoAvailablePoints) {
		t.Fatalf("Expected ErrNoAvailablePoints with an empty pool, got %v", err)
	}

	if _, err := s.CompleteQuest(ctx); err != nil {
		t.Fatalf("CompleteQuest failed: %v", err)
	}
	if err := s.UpgradeStat(ctx, player.StatStrength); err != nil {
		t.Fatalf("UpgradeStat failed: %v", err)
	}

	p := s.Player()
	if p.Stats.Strength != 11 {
		t.Errorf("Expected strength 11 after one upgrade, got %d", p.Stats.Strength)
	}
	if p.Stats.AvailablePoints != StatPointsPerLevel-1 {
		t.Errorf("Expected the pool decremented, got %d", p.Stats.AvailablePoints)
	}

	if err := s.UpgradeStat(ctx, "luck"); err == nil {
		t.Error("Unknown stat keys must be rejected")
	}
}
