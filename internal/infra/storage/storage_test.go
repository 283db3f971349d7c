package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/phantomguild/system-server/internal/domain/item"
	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/events"
)

func openTestDB(t *testing.T) *testDB {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "system.db"))
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &testDB{
		players: NewSQLitePlayerRepository(db),
		items:   NewSQLiteInventoryRepository(db),
		chats:   NewSQLiteChatRepository(db),
		events:  NewSQLiteEventRepository(db),
	}
}

type testDB struct {
	players *SQLitePlayerRepository
	items   *SQLiteInventoryRepository
	chats   *SQLiteChatRepository
	events  *SQLiteEventRepository
}

func TestPlayerRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	p.Level = 12
	p.Gold = 4200
	p.Rank = player.RankD
	p.Equipment.Set(player.SlotWeapon, "item-1")
	p.UpsertHistory(player.DailyProgress{Date: "2026-08-31", Pushups: 80, Completed: true})

	if err := db.players.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer failed: %v", err)
	}

	loaded, err := db.players.LoadPlayer(ctx, "jin@hunter.io")
	if err != nil {
		t.Fatalf("LoadPlayer failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected the saved player back")
	}
	if loaded.Level != 12 || loaded.Gold != 4200 || loaded.Rank != player.RankD {
		t.Errorf("Loaded snapshot differs: %+v", loaded)
	}
	if loaded.Equipment.Get(player.SlotWeapon) != "item-1" {
		t.Errorf("Equipment did not survive the round trip: %+v", loaded.Equipment)
	}
	if len(loaded.History) != 1 || loaded.History[0].Pushups != 80 {
		t.Errorf("History did not survive the round trip: %+v", loaded.History)
	}
}

func TestLoadUnknownPlayerReturnsNil(t *testing.T) {
	db := openTestDB(t)

	p, err := db.players.LoadPlayer(context.Background(), "nobody@hunter.io")
	if err != nil {
		t.Fatalf("LoadPlayer failed: %v", err)
	}
	if p != nil {
		t.Errorf("Unknown email must load as nil, got %+v", p)
	}
}

func TestSavePlayerUpserts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	if err := db.players.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer failed: %v", err)
	}
	p.Level = 5
	if err := db.players.SavePlayer(ctx, p); err != nil {
		t.Fatalf("Second SavePlayer failed: %v", err)
	}

	loaded, _ := db.players.LoadPlayer(ctx, "jin@hunter.io")
	if loaded.Level != 5 {
		t.Errorf("Expected the newer snapshot, got level %d", loaded.Level)
	}
}

func TestInventorySaveReplacesCollection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := []item.Item{
		{ID: "item-1", Name: "Kasaka's Venom Fang", Type: item.TypeGear, Rarity: item.RarityEpic, Slot: player.SlotWeapon, Bonuses: map[string]int{player.StatStrength: 5}},
		{ID: "item-2", Name: "Fatigue Recovery Potion", Type: item.TypePotion, Rarity: item.RarityCommon},
	}
	if err := db.items.SaveInventory(ctx, "jin@hunter.io", first); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}

	// The potion was consumed: the next save carries only the dagger.
	if err := db.items.SaveInventory(ctx, "jin@hunter.io", first[:1]); err != nil {
		t.Fatalf("Second SaveInventory failed: %v", err)
	}

	loaded, err := db.items.LoadInventory(ctx, "jin@hunter.io")
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "item-1" {
		t.Errorf("Expected only the dagger to remain, got %+v", loaded)
	}
	if loaded[0].Bonuses[player.StatStrength] != 5 {
		t.Errorf("Bonuses did not survive the round trip: %+v", loaded[0].Bonuses)
	}
}

func TestChatHistoryOrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	lines := []struct{ role, content string }{
		{"player", "what should I train first"},
		{"system", "[SYSTEM] Strength. Your weakness is measurable."},
		{"player", "noted"},
	}
	for _, l := range lines {
		if err := db.chats.AppendMessage(ctx, "jin@hunter.io", l.role, l.content); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	history, err := db.chats.History(ctx, "jin@hunter.io", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected the limit applied, got %d messages", len(history))
	}
	// The limit keeps the newest messages, returned oldest first.
	if history[0].Content != lines[1].content || history[1].Content != lines[2].content {
		t.Errorf("Unexpected transcript tail: %+v", history)
	}
}

func TestEventRepoAndRecap(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seed := []events.SystemEvent{
		{ID: "e1", PlayerID: "jin@hunter.io", Date: "2026-08-30", Timestamp: time.Now().Add(-48 * time.Hour), Type: events.EventTypeQuestCompleted},
		{ID: "e2", PlayerID: "jin@hunter.io", Date: "2026-08-31", Timestamp: time.Now().Add(-time.Hour), Type: events.EventTypePenaltyTriggered},
		{ID: "e3", PlayerID: "jin@hunter.io", Date: "2026-08-31", Timestamp: time.Now(), Type: events.EventTypePenaltyAlarm},
		{ID: "e4", PlayerID: "cha@hunter.io", Date: "2026-08-31", Timestamp: time.Now(), Type: events.EventTypeQuestCompleted},
	}
	for _, e := range seed {
		if err := db.events.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	mine, err := db.events.GetByPlayer(ctx, "jin@hunter.io")
	if err != nil {
		t.Fatalf("GetByPlayer failed: %v", err)
	}
	if len(mine) != 3 {
		t.Errorf("Expected 3 events for the hunter, got %d", len(mine))
	}

	recap, err := NewRecapper(db.events).GenerateRecap(ctx, "jin@hunter.io", "2026-08-31")
	if err != nil {
		t.Fatalf("GenerateRecap failed: %v", err)
	}
	// Only the penalty trigger survives: the older completion is before
	// the cutoff date and alarm ticks are filtered.
	if len(recap) != 1 {
		t.Fatalf("Expected 1 recap entry, got %d: %+v", len(recap), recap)
	}
	if recap[0].EventType != string(events.EventTypePenaltyTriggered) || recap[0].Impact != "NEGATIVE" {
		t.Errorf("Unexpected recap entry: %+v", recap[0])
	}
}
