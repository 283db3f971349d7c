package engine

import (
	"testing"
	"time"

	"github.com/phantomguild/system-server/internal/platform/logger"
)

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func TestWatchdogFiresPastCutoff(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 31, CutoffHour, 0, 1, 0, time.UTC)}
	fired := ""
	w := NewCutoffWatchdog(clock, logger.NewLogger(),
		func() bool { return true },
		func(reason string) { fired = reason },
	)

	didFire, alive := w.Check()
	if !didFire {
		t.Fatal("Expected the watchdog to fire past the cutoff hour")
	}
	if alive {
		t.Error("Watchdog must stop after firing")
	}
	if fired != "cutoff" {
		t.Errorf("Expected the cutoff reason, got %q", fired)
	}
}

func TestWatchdogIdleBeforeCutoff(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 31, CutoffHour-1, 59, 0, 0, time.UTC)}
	fired := false
	w := NewCutoffWatchdog(clock, logger.NewLogger(),
		func() bool { return true },
		func(string) { fired = true },
	)

	didFire, alive := w.Check()
	if didFire || fired {
		t.Error("Watchdog must not fire before the cutoff hour")
	}
	if !alive {
		t.Error("Watchdog should keep polling before the cutoff")
	}
}

func TestWatchdogSelfCancelsWhenDone(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)}
	fired := false
	w := NewCutoffWatchdog(clock, logger.NewLogger(),
		func() bool { return false }, // quest already resolved
		func(string) { fired = true },
	)

	didFire, alive := w.Check()
	if didFire || fired {
		t.Error("Watchdog must not fire once its precondition flips")
	}
	if alive {
		t.Error("Watchdog should self-cancel when there is nothing to watch")
	}
}
