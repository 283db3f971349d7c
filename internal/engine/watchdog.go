package engine

import (
	"context"
	"time"

	"github.com/phantomguild/system-server/internal/platform/logger"
)

// Scheduler policy.
const (
	// CutoffHour is the wall-clock hour after which an incomplete quest
	// triggers the penalty zone.
	CutoffHour = 20
	// CutoffPollInterval is how often the cutoff condition is re-checked.
	CutoffPollInterval = 30 * time.Second
	// ReminderInterval is how often the hunter is nagged about an
	// incomplete quest.
	ReminderInterval = time.Hour
)

// Clock abstracts wall-clock reads so schedulers are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// CutoffWatchdog polls wall-clock time and triggers the penalty when
// the cutoff hour passes with today's quest neither completed nor
// already penalty-survived. It is bound to a session: Run returns when
// the context is cancelled or when its precondition permanently flips,
// and a fresh call to Run restarts it safely.
type CutoffWatchdog struct {
	clock    Clock
	interval time.Duration
	logger   *logger.Logger

	// shouldRun reports whether the watchdog still has work: a hunter is
	// logged in, today's progress exists, it is not completed, not
	// penalty-survived and the penalty is not already active.
	shouldRun func() bool
	// pastCutoff reports whether the given instant is past the cutoff.
	pastCutoff func(now time.Time) bool
	// fire triggers the penalty. Must itself be idempotent.
	fire func(reason string)
}

// NewCutoffWatchdog wires a watchdog with the default policy.
func NewCutoffWatchdog(clock Clock, log *logger.Logger, shouldRun func() bool, fire func(reason string)) *CutoffWatchdog {
	return &CutoffWatchdog{
		clock:     clock,
		interval:  CutoffPollInterval,
		logger:    log,
		shouldRun: shouldRun,
		pastCutoff: func(now time.Time) bool {
			return now.Hour() >= CutoffHour
		},
		fire: fire,
	}
}

// Run executes the poll loop. Call in a goroutine.
func (w *CutoffWatchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.shouldRun() {
				// Condition flipped: self-cancel instead of idling.
				return
			}
			if w.pastCutoff(w.clock.Now()) {
				w.logger.Warn("Cutoff passed with quest incomplete. Penalty imminent.")
				w.fire("cutoff")
				return
			}
		}
	}
}

// Check performs a single poll iteration without the timer. Exposed for
// deterministic tests; Run is the production path.
func (w *CutoffWatchdog) Check() (fired bool, alive bool) {
	if !w.shouldRun() {
		return false, false
	}
	if w.pastCutoff(w.clock.Now()) {
		w.fire("cutoff")
		return true, false
	}
	return false, true
}

// ReminderTicker periodically asks the narrator to nag the hunter while
// today's quest is incomplete. Same lifecycle rules as CutoffWatchdog.
type ReminderTicker struct {
	interval  time.Duration
	shouldRun func() bool
	remind    func()
}

// NewReminderTicker wires a reminder loop with the default interval.
func NewReminderTicker(shouldRun func() bool, remind func()) *ReminderTicker {
	return &ReminderTicker{
		interval:  ReminderInterval,
		shouldRun: shouldRun,
		remind:    remind,
	}
}

// Run executes the reminder loop. Call in a goroutine.
func (r *ReminderTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.shouldRun() {
				return
			}
			r.remind()
		}
	}
}
