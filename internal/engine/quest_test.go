package engine

import (
	"testing"
	"time"

	"github.com/phantomguild/system-server/internal/domain/player"
)

func TestResolveTodayProgressFreshDay(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	p.History = []player.DailyProgress{
		{Date: "2026-08-30", Pushups: 100, Completed: true},
	}

	today := ResolveTodayProgress(p, "2026-08-31")
	if today.Date != "2026-08-31" {
		t.Errorf("Expected a fresh record for 2026-08-31, got date %s", today.Date)
	}
	if today.Pushups != 0 || today.Completed {
		t.Errorf("Fresh record should start zeroed, got %+v", today)
	}
}

func TestResolveTodayProgressResumesSameDay(t *testing.T) {
	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	p.History = []player.DailyProgress{
		{Date: "2026-08-31", Pushups: 40, Situps: 20},
	}

	today := ResolveTodayProgress(p, "2026-08-31")
	if today.Pushups != 40 || today.Situps != 20 {
		t.Errorf("Expected mid-day counters to resume, got %+v", today)
	}
}

func TestGoalsMetBoundary(t *testing.T) {
	dp := player.DailyProgress{Pushups: 100, Situps: 100, Squats: 100, RunningKm: 10}
	if !GoalsMet(dp) {
		t.Error("Exact targets should satisfy the quest")
	}

	dp.RunningKm = 9.9
	if GoalsMet(dp) {
		t.Error("Quest should not be satisfied below the running target")
	}
}

func TestTypedUpdatesClampNegatives(t *testing.T) {
	dp := player.DailyProgress{Date: "2026-08-31", Pushups: 10}

	dp = WithPushups(dp, -5)
	if dp.Pushups != 0 {
		t.Errorf("Negative rep counts must clamp to zero, got %d", dp.Pushups)
	}

	dp = WithRunningKm(dp, -1.5)
	if dp.RunningKm != 0 {
		t.Errorf("Negative distance must clamp to zero, got %f", dp.RunningKm)
	}
}

func TestWithBoostAddsToCounters(t *testing.T) {
	dp := player.DailyProgress{Pushups: 10, Situps: 20, Squats: 30, RunningKm: 1}

	dp = WithBoost(dp, 20, 2)
	if dp.Pushups != 30 || dp.Situps != 40 || dp.Squats != 50 {
		t.Errorf("Boost should add to every rep counter, got %+v", dp)
	}
	if dp.RunningKm != 3 {
		t.Errorf("Boost should add to distance, got %f", dp.RunningKm)
	}
}

func TestDateKeyFormat(t *testing.T) {
	key := DateKey(time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC))
	if key != "2026-08-31" {
		t.Errorf("Expected calendar key 2026-08-31, got %s", key)
	}
}
