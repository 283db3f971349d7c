// Package storage - recap.go
// Login recap: rebuilds a digest of what the System recorded for a
// hunter from the durable event log. State = f(events); the recap is a
// read-only projection of that log for the login screen.
package storage

import (
	"context"
	"fmt"

	"github.com/phantomguild/system-server/internal/events"
)

// Recapper builds login recaps from the event log.
type Recapper struct {
	eventRepo EventRepository
}

// NewRecapper creates a new recap builder.
func NewRecapper(eventRepo EventRepository) *Recapper {
	return &Recapper{eventRepo: eventRepo}
}

// RecapEntry is a simplified event for the login recap screen.
type RecapEntry struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// GenerateRecap builds the recap for a hunter from a calendar date
// onwards. Alarm ticks and raw progress updates are filtered out; only
// events a returning hunter cares about survive.
func (r *Recapper) GenerateRecap(ctx context.Context, email, sinceDate string) ([]RecapEntry, error) {
	all, err := r.eventRepo.GetByPlayer(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for recap: %w", err)
	}

	var recap []RecapEntry
	for _, e := range all {
		if sinceDate != "" && e.Date < sinceDate {
			continue
		}
		switch e.Type {
		case events.EventTypePenaltyAlarm, events.EventTypeProgressUpdated, events.EventTypeReminderDue:
			continue
		}

		recap = append(recap, RecapEntry{
			Timestamp: e.Timestamp.Format("2006-01-02 15:04"),
			EventType: string(e.Type),
			Summary:   summarizeEvent(e),
			Impact:    determineImpact(e.Type),
		})
	}

	return recap, nil
}

// summarizeEvent creates a human-readable summary.
func summarizeEvent(e events.SystemEvent) string {
	switch e.Type {
	case events.EventTypeQuestCompleted:
		return "Daily Quest completed. Rewards were accepted."
	case events.EventTypeLevelUp:
		return "You leveled up."
	case events.EventTypeRankChanged:
		return "Your rank was re-evaluated."
	case events.EventTypeClassChanged:
		return "You awakened a new class."
	case events.EventTypePenaltyTriggered:
		return "The Penalty Zone was invoked."
	case events.EventTypePenaltySurvived:
		return "You survived the Penalty Zone."
	case events.EventTypeItemPurchased:
		return "You purchased an item from the shop."
	case events.EventTypeStatUpgraded:
		return "You spent a stat point."
	default:
		return "The System recorded an event."
	}
}

// determineImpact classifies the event impact.
func determineImpact(t events.EventType) string {
	switch t {
	case events.EventTypeQuestCompleted, events.EventTypeLevelUp, events.EventTypeRankChanged,
		events.EventTypeClassChanged, events.EventTypePenaltySurvived:
		return "POSITIVE"
	case events.EventTypePenaltyTriggered, events.EventTypeGateOpened:
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}
