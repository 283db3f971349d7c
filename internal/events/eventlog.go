// Package events provides the append-only log of system events. Every
// state change the hunter triggers leaves a trace here, which feeds the
// websocket push surface, the narrator and the persistence layer.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a system event.
type EventType string

const (
	EventTypeSessionLogin     EventType = "SESSION_LOGIN"
	EventTypeSessionLogout    EventType = "SESSION_LOGOUT"
	EventTypeProgressUpdated  EventType = "PROGRESS_UPDATED"
	EventTypeQuestCompleted   EventType = "QUEST_COMPLETED"
	EventTypeLevelUp          EventType = "LEVEL_UP"
	EventTypeRankChanged      EventType = "RANK_CHANGED"
	EventTypeClassChanged     EventType = "CLASS_CHANGED"
	EventTypePenaltyTriggered EventType = "PENALTY_TRIGGERED"
	EventTypePenaltyAlarm     EventType = "PENALTY_ALARM"
	EventTypeGateOpened       EventType = "GATE_OPENED"
	EventTypePenaltySurvived  EventType = "PENALTY_SURVIVED"
	EventTypeItemPurchased    EventType = "ITEM_PURCHASED"
	EventTypeItemEquipped     EventType = "ITEM_EQUIPPED"
	EventTypeItemUnequipped   EventType = "ITEM_UNEQUIPPED"
	EventTypeItemRemoved      EventType = "ITEM_REMOVED"
	EventTypeStatUpgraded     EventType = "STAT_UPGRADED"
	EventTypeReminderDue      EventType = "REMINDER_DUE"
	EventTypeSystemMessage    EventType = "SYSTEM_MESSAGE"
)

// SystemEvent is an immutable record of something that happened.
type SystemEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	PlayerID  string      `json:"player_id"` // owning hunter's email key
	Date      string      `json:"date"`      // calendar date the event belongs to
	Payload   interface{} `json:"payload"`   // event-specific data
}

// Persister defines how an event is durably stored.
type Persister interface {
	Append(event SystemEvent) error
}

// EventLog is the in-memory append-only log with optional write-through
// persistence.
type EventLog struct {
	mu          sync.RWMutex
	events      []SystemEvent
	persister   Persister
	subscribers []chan SystemEvent
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister Persister) *EventLog {
	return &EventLog{
		events:    make([]SystemEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event SystemEvent) {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	if el.persister != nil {
		// Write through to durable storage off the hot path.
		go func(e SystemEvent) {
			_ = el.persister.Append(e)
		}(event)
	}

	for _, sub := range el.subscribers {
		select {
		case sub <- event:
		default:
			// A slow listener drops events rather than block appends.
		}
	}
}

// Subscribe registers a listener that receives every event appended
// after the call. The returned channel is never closed; listeners are
// expected to live for the process lifetime.
func (el *EventLog) Subscribe(buffer int) <-chan SystemEvent {
	ch := make(chan SystemEvent, buffer)
	el.mu.Lock()
	defer el.mu.Unlock()
	el.subscribers = append(el.subscribers, ch)
	return ch
}

// GetByPlayer returns all events belonging to one hunter.
func (el *EventLog) GetByPlayer(playerID string) []SystemEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []SystemEvent
	for _, e := range el.events {
		if e.PlayerID == playerID {
			result = append(result, e)
		}
	}
	return result
}

// GetByDate returns all events recorded for a calendar date.
func (el *EventLog) GetByDate(date string) []SystemEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []SystemEvent
	for _, e := range el.events {
		if e.Date == date {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full event history for state reconstruction.
func (el *EventLog) Replay() []SystemEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
