// Package notify delivers out-of-band alerts to the hunter: reminder
// nags and penalty alarms that should reach them even when no game
// view is focused.
package notify

import (
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/platform/logger"
)

// Notifier pushes an alert toward whatever notification channel the
// frontend registered.
type Notifier interface {
	// Alert delivers one notification. Best-effort: failures are the
	// implementation's problem, gameplay never blocks on delivery.
	Alert(email, title, body string)
}

// EventNotifier appends notifications to the event log so the push
// surface delivers them to connected clients as NOTIFICATION payloads
// under SYSTEM_MESSAGE.
type EventNotifier struct {
	eventLog *events.EventLog
}

// NewEventNotifier wires a notifier onto the event log.
func NewEventNotifier(eventLog *events.EventLog) *EventNotifier {
	return &EventNotifier{eventLog: eventLog}
}

func (n *EventNotifier) Alert(email, title, body string) {
	n.eventLog.Append(events.SystemEvent{
		Type:     events.EventTypeSystemMessage,
		PlayerID: email,
		Payload: map[string]interface{}{
			"notification": true,
			"title":        title,
			"body":         body,
		},
	})
}

// LogNotifier writes alerts to the server log. Used when no push
// channel exists, e.g. in the scenario runner.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Alert(email, title, body string) {
	n.logger.Event("NOTIFICATION", email, title+": "+body)
}

// NoopNotifier drops every alert.
type NoopNotifier struct{}

func (NoopNotifier) Alert(string, string, string) {}

var (
	_ Notifier = (*EventNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = NoopNotifier{}
)
