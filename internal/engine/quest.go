package engine

import (
	"time"

	"github.com/phantomguild/system-server/internal/domain/player"
)

// Daily quest targets. The quest is complete only when every counter
// meets or exceeds its target.
const (
	TargetPushups   = 100
	TargetSitups    = 100
	TargetSquats    = 100
	TargetRunningKm = 10.0
)

// DateKey formats a wall-clock instant as the calendar date key used
// throughout history and storage.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ResolveTodayProgress decides the current working record for today.
// If the last history entry (newest by append order) is today's, the
// hunter is resuming after a reload and that record is returned as-is.
// Otherwise a fresh zeroed record is constructed. History is never
// mutated here.
func ResolveTodayProgress(p *player.Player, todayKey string) player.DailyProgress {
	if last := p.LastProgress(); last != nil && last.Date == todayKey {
		return *last
	}
	return player.NewDailyProgress(todayKey)
}

// GoalsMet reports whether all four counters reached their targets.
func GoalsMet(dp player.DailyProgress) bool {
	return dp.Pushups >= TargetPushups &&
		dp.Situps >= TargetSitups &&
		dp.Squats >= TargetSquats &&
		dp.RunningKm >= TargetRunningKm
}

// Typed per-field update functions. Each returns a new validated record;
// there is no generic merge that could smuggle in unknown fields.

// WithPushups returns the record with the pushup counter replaced.
func WithPushups(dp player.DailyProgress, count int) player.DailyProgress {
	if count < 0 {
		count = 0
	}
	dp.Pushups = count
	return dp
}

// WithSitups returns the record with the situp counter replaced.
func WithSitups(dp player.DailyProgress, count int) player.DailyProgress {
	if count < 0 {
		count = 0
	}
	dp.Situps = count
	return dp
}

// WithSquats returns the record with the squat counter replaced.
func WithSquats(dp player.DailyProgress, count int) player.DailyProgress {
	if count < 0 {
		count = 0
	}
	dp.Squats = count
	return dp
}

// WithRunningKm returns the record with the running distance replaced.
func WithRunningKm(dp player.DailyProgress, km float64) player.DailyProgress {
	if km < 0 {
		km = 0
	}
	dp.RunningKm = km
	return dp
}

// WithBoost adds a flat boost to every rep counter and the running
// distance. Used by consumable potions.
func WithBoost(dp player.DailyProgress, reps int, km float64) player.DailyProgress {
	dp.Pushups += reps
	dp.Situps += reps
	dp.Squats += reps
	dp.RunningKm += km
	return dp
}
