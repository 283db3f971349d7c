package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/notify"
	"github.com/phantomguild/system-server/internal/platform/logger"
	"github.com/phantomguild/system-server/internal/platform/metrics"
)

// Manager owns the session lifecycle: sessions are created on login and
// destroyed on logout, one per hunter keyed by email.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	clock    Clock
	players  PlayerStore
	items    InventoryStore
	eventLog *events.EventLog
	logger   *logger.Logger
	notify   notify.Notifier
}

// NewManager wires a session manager against its stores.
func NewManager(clock Clock, players PlayerStore, items InventoryStore, eventLog *events.EventLog, log *logger.Logger, notifier notify.Notifier) *Manager {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		clock:    clock,
		players:  players,
		items:    items,
		eventLog: eventLog,
		logger:   log,
		notify:   notifier,
	}
}

// Get returns the live session for a hunter, if one exists.
func (m *Manager) Get(email string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[email]
	return s, ok
}

// Login opens a session. An unknown email registers a fresh level-1
// hunter; a known one loads the persisted snapshot, repairs it and
// resumes today's progress if an entry for the current date already
// exists. Logging in while a session is live returns the existing
// session untouched.
func (m *Manager) Login(ctx context.Context, email, username string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[email]; ok {
		return s, nil
	}

	p, err := m.players.LoadPlayer(ctx, email)
	if err != nil {
		return nil, err
	}

	registered := false
	renamed := false
	if p == nil {
		p = player.NewPlayer(email, username)
		registered = true
	} else {
		// A returning hunter keeps all data but takes the name they
		// logged in with.
		if username != "" && username != p.Username {
			p.Username = username
			renamed = true
		}
		// Load-boundary repair: older snapshots may miss fields that
		// were added after they were written.
		p.Normalize()
	}

	inv, err := m.items.LoadInventory(ctx, email)
	if err != nil {
		return nil, err
	}

	today := DateKey(m.clock.Now())
	s := &Session{
		player:    p,
		today:     ResolveTodayProgress(p, today),
		inventory: inv,
		penalty:   NewPenaltyMachine(m.eventLog, m.logger),
		clock:     m.clock,
		players:   m.players,
		items:     m.items,
		eventLog:  m.eventLog,
		logger:    m.logger,
		notify:    m.notify,
	}

	if registered || renamed {
		s.persistPlayer(ctx)
	}

	// Session-bound schedulers. Both self-cancel when their condition
	// permanently flips; the cancel func covers logout.
	schedCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	watchdog := NewCutoffWatchdog(m.clock, m.logger, s.watchdogShouldRun, s.triggerCutoffPenalty)
	go watchdog.Run(schedCtx)
	reminder := NewReminderTicker(s.reminderShouldRun, s.remind)
	go reminder.Run(schedCtx)

	m.sessions[email] = s
	metrics.Get().RecordSessionOpened()
	m.logger.Event("SESSION_LOGIN", email, "registered="+boolStr(registered))
	m.eventLog.Append(events.SystemEvent{
		Type:     events.EventTypeSessionLogin,
		PlayerID: email,
		Date:     today,
		Payload:  map[string]interface{}{"registered": registered, "level": p.Level},
	})

	return s, nil
}

// Logout destroys a hunter's session: schedulers stop, a live penalty
// is silenced and the final snapshot is persisted. Unknown emails are
// a no-op.
func (m *Manager) Logout(ctx context.Context, email string) {
	m.mu.Lock()
	s, ok := m.sessions[email]
	if ok {
		delete(m.sessions, email)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	s.penalty.Reset()

	s.mu.Lock()
	date := s.today.Date
	s.persistPlayer(ctx)
	s.persistInventory(ctx)
	s.mu.Unlock()

	metrics.Get().RecordSessionClosed()
	m.logger.Event("SESSION_LOGOUT", email, "")
	m.eventLog.Append(events.SystemEvent{
		Type:     events.EventTypeSessionLogout,
		PlayerID: email,
		Date:     date,
	})
}

// Shutdown logs out every live session. Used on server stop.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	emails := make([]string, 0, len(m.sessions))
	for email := range m.sessions {
		emails = append(emails, email)
	}
	m.mu.Unlock()

	for _, email := range emails {
		m.Logout(ctx, email)
	}
}

// PlayerState renders a compact textual summary of a hunter's state
// for prompt building. The second return is false when no session is
// live for the email.
func (m *Manager) PlayerState(email string) (string, bool) {
	s, ok := m.Get(email)
	if !ok {
		return "", false
	}

	p := s.Player()
	today := s.Today()
	return fmt.Sprintf(
		"Level %d %s %s (%s). XP %d/%d, gold %d, streak %d.\n"+
			"Today: %d/100 pushups, %d/100 situps, %d/100 squats, %.1f/10 km. Completed: %v. Penalty survived: %v.",
		p.Level, p.Rank, p.Class, p.Title,
		p.CurrentXP, p.RequiredXP, p.Gold, p.Streak,
		today.Pushups, today.Situps, today.Squats, today.RunningKm,
		today.Completed, today.PenaltySurvived,
	), true
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
