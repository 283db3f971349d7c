package engine

import (
	"sync"
	"time"

	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/platform/logger"
)

// Penalty Zone policy.
const (
	PenaltyStartClicks   = 50
	PenaltyAlarmInterval = 5 * time.Second
)

// PenaltyState is the coarse state of the penalty mini-game.
type PenaltyState int

const (
	// PenaltyIdle means no penalty is running.
	PenaltyIdle PenaltyState = iota
	// PenaltyActive means the hunter is struggling; clicks remain.
	PenaltyActive
	// PenaltyGateOpen is the terminal sub-state of Active: the click
	// counter reached zero and the next interaction exits the zone.
	PenaltyGateOpen
)

// PenaltyMachine runs the click-survival mini-game triggered by quest
// failure or forfeit. All transitions are guarded by a single mutex;
// entering Active is idempotent.
type PenaltyMachine struct {
	mu              sync.Mutex
	state           PenaltyState
	clicksRemaining int
	playerID        string
	date            string

	alarmStop     chan struct{}
	alarmInterval time.Duration
	eventLog      *events.EventLog
	logger        *logger.Logger
}

// NewPenaltyMachine creates an idle penalty machine.
func NewPenaltyMachine(eventLog *events.EventLog, log *logger.Logger) *PenaltyMachine {
	return &PenaltyMachine{
		state:         PenaltyIdle,
		alarmInterval: PenaltyAlarmInterval,
		eventLog:      eventLog,
		logger:        log,
	}
}

// State returns the current machine state.
func (pm *PenaltyMachine) State() PenaltyState {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.state
}

// ClicksRemaining returns the struggle clicks left in the current run.
func (pm *PenaltyMachine) ClicksRemaining() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.clicksRemaining
}

// Activate enters the penalty zone for the given hunter and date.
// A second trigger while already active is a no-op and returns false.
func (pm *PenaltyMachine) Activate(playerID, date, reason string) bool {
	pm.mu.Lock()
	if pm.state != PenaltyIdle {
		pm.mu.Unlock()
		return false
	}
	pm.state = PenaltyActive
	pm.clicksRemaining = PenaltyStartClicks
	pm.playerID = playerID
	pm.date = date
	pm.alarmStop = make(chan struct{})
	alarmStop := pm.alarmStop
	pm.mu.Unlock()

	pm.logger.Event("PENALTY_TRIGGERED", playerID, "reason="+reason)
	pm.eventLog.Append(events.SystemEvent{
		Type:     events.EventTypePenaltyTriggered,
		PlayerID: playerID,
		Date:     date,
		Payload:  map[string]interface{}{"reason": reason, "clicks": PenaltyStartClicks},
	})

	// Ambient alarm: repeats while the hunter is struggling and must
	// stop the moment the gate opens. Identity is captured here so the
	// goroutine never touches mutex-guarded fields.
	go pm.runAlarm(alarmStop, playerID, date)

	return true
}

// runAlarm emits a periodic alarm event until stopped.
func (pm *PenaltyMachine) runAlarm(stop chan struct{}, playerID, date string) {
	ticker := time.NewTicker(pm.alarmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pm.eventLog.Append(events.SystemEvent{
				Type:     events.EventTypePenaltyAlarm,
				PlayerID: playerID,
				Date:     date,
			})
		}
	}
}

// stopAlarmLocked closes the alarm channel exactly once. Caller holds mu.
func (pm *PenaltyMachine) stopAlarmLocked() {
	if pm.alarmStop != nil {
		close(pm.alarmStop)
		pm.alarmStop = nil
	}
}

// StruggleResult describes the outcome of one struggle interaction.
type StruggleResult struct {
	State           PenaltyState
	ClicksRemaining int
	// Survived is true on the interaction that exits the zone. The
	// caller marks today's record penalty-survived and persists it.
	Survived bool
}

// Struggle processes one interaction. While clicks remain it decrements
// the counter; the transition to gate-open happens exactly once, when
// the counter reaches zero. The first interaction after the gate opens
// exits the penalty entirely.
func (pm *PenaltyMachine) Struggle() StruggleResult {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	switch pm.state {
	case PenaltyIdle:
		return StruggleResult{State: PenaltyIdle}

	case PenaltyActive:
		pm.clicksRemaining--
		if pm.clicksRemaining <= 0 {
			pm.clicksRemaining = 0
			pm.state = PenaltyGateOpen
			pm.stopAlarmLocked()
			pm.eventLog.Append(events.SystemEvent{
				Type:     events.EventTypeGateOpened,
				PlayerID: pm.playerID,
				Date:     pm.date,
			})
		}
		return StruggleResult{State: pm.state, ClicksRemaining: pm.clicksRemaining}

	case PenaltyGateOpen:
		playerID, date := pm.playerID, pm.date
		pm.state = PenaltyIdle
		pm.clicksRemaining = 0
		pm.playerID = ""
		pm.date = ""
		pm.logger.Event("PENALTY_SURVIVED", playerID, "date="+date)
		pm.eventLog.Append(events.SystemEvent{
			Type:     events.EventTypePenaltySurvived,
			PlayerID: playerID,
			Date:     date,
		})
		return StruggleResult{State: PenaltyIdle, Survived: true}
	}

	return StruggleResult{State: pm.state}
}

// Reset forces the machine back to idle and silences the alarm. Used on
// logout so no orphaned alarm keeps firing against a dead session.
func (pm *PenaltyMachine) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.stopAlarmLocked()
	pm.state = PenaltyIdle
	pm.clicksRemaining = 0
	pm.playerID = ""
	pm.date = ""
}
