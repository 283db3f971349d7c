// Package narrator gives the System its voice. It watches the event
// log, turns gameplay events into short in-character lines through the
// LLM layer and falls back to canned lines when no provider responds.
package narrator

import (
	"context"
	"fmt"
	"time"

	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/infra/ai"
	"github.com/phantomguild/system-server/internal/platform/logger"
	"github.com/phantomguild/system-server/internal/platform/metrics"
)

// StateProvider exposes a textual summary of a hunter's current state
// for prompt building. Implemented by the engine's session manager.
type StateProvider interface {
	PlayerState(email string) (string, bool)
}

// ChatStore persists the conversation transcript between the hunter
// and the System.
type ChatStore interface {
	AppendMessage(ctx context.Context, email, role, content string) error
	History(ctx context.Context, email string, limit int) ([]ChatMessage, error)
}

// ChatMessage is one line of the hunter/System transcript.
type ChatMessage struct {
	Role      string    `json:"role"` // "player" or "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Narrator reacts to gameplay events with in-character narration.
type Narrator struct {
	provider ai.LLMProvider
	states   StateProvider
	chats    ChatStore
	eventLog *events.EventLog
	logger   *logger.Logger

	timeout time.Duration
}

// NewNarrator wires the narrator against its collaborators. chats may
// be nil when transcript persistence is disabled.
func NewNarrator(provider ai.LLMProvider, states StateProvider, chats ChatStore, eventLog *events.EventLog, log *logger.Logger) *Narrator {
	return &Narrator{
		provider: provider,
		states:   states,
		chats:    chats,
		eventLog: eventLog,
		logger:   log,
		timeout:  20 * time.Second,
	}
}

// Start begins watching the event log. Returns when ctx is cancelled.
// Call in a goroutine.
func (n *Narrator) Start(ctx context.Context) {
	n.logger.Info("The System is watching.")

	sub := n.eventLog.Subscribe(64)
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("The System falls silent.")
			return
		case event := <-sub:
			if event.Type == events.EventTypeReminderDue && isFinalHour(event) {
				n.Warn(ctx, event.PlayerID)
				continue
			}
			if tag, ok := contextTagFor(event.Type); ok {
				// Fire-and-forget: narration must never block gameplay.
				go n.narrate(ctx, event.PlayerID, tag, "")
			}
		}
	}
}

// isFinalHour reads the escalation flag off a reminder event.
func isFinalHour(e events.SystemEvent) bool {
	payload, ok := e.Payload.(map[string]interface{})
	if !ok {
		return false
	}
	final, _ := payload["final_hour"].(bool)
	return final
}

// contextTagFor maps gameplay events to narration contexts. Events
// without a mapping stay silent.
func contextTagFor(t events.EventType) (string, bool) {
	switch t {
	case events.EventTypeSessionLogin:
		return ai.ContextLoginWelcome, true
	case events.EventTypeLevelUp:
		return ai.ContextLevelUp, true
	case events.EventTypePenaltyTriggered:
		return ai.ContextPenaltyBrief, true
	case events.EventTypeReminderDue:
		return ai.ContextReminder, true
	}
	return "", false
}

// Ask answers a free-form question from the hunter and records both
// sides of the exchange in the transcript.
func (n *Narrator) Ask(ctx context.Context, email, query string) string {
	if n.chats != nil {
		if err := n.chats.AppendMessage(ctx, email, "player", query); err != nil {
			n.logger.Error("Failed to record chat message: %v", err)
		}
	}
	return n.narrate(ctx, email, ai.ContextFreeFormAdvice, query)
}

// Warn delivers the failure warning in the final hour before the cutoff.
func (n *Narrator) Warn(ctx context.Context, email string) {
	go n.narrate(ctx, email, ai.ContextFailureWarning, "")
}

// narrate produces one System line: LLM when available, canned line
// otherwise. The result is appended to the event log as a
// SYSTEM_MESSAGE so the push surface broadcasts it, and to the chat
// transcript when one is configured.
func (n *Narrator) narrate(ctx context.Context, email, contextTag, query string) string {
	line := n.generate(ctx, email, contextTag, query)

	n.eventLog.Append(events.SystemEvent{
		Type:     events.EventTypeSystemMessage,
		PlayerID: email,
		Payload: map[string]interface{}{
			"context": contextTag,
			"text":    line,
		},
	})

	if n.chats != nil {
		if err := n.chats.AppendMessage(ctx, email, "system", line); err != nil {
			n.logger.Error("Failed to record system message: %v", err)
		}
	}
	return line
}

// generate runs the LLM call with a hard timeout.
func (n *Narrator) generate(ctx context.Context, email, contextTag, query string) string {
	if n.provider == nil || !n.provider.IsAvailable() {
		return ai.Fallback(contextTag)
	}

	state, ok := n.states.PlayerState(email)
	if !ok {
		return ai.Fallback(contextTag)
	}

	recent := n.recentEventLines(email, 10)

	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	resp, err := n.provider.Complete(callCtx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: ai.SystemPersonaPrompt},
			{Role: "user", Content: ai.BuildNarrationPrompt(contextTag, state, recent, query)},
		},
		MaxTokens:   200,
		Temperature: 0.8,
	})
	if err != nil {
		n.logger.Warn("Narration fell back to canned line (%s): %v", contextTag, err)
		return ai.Fallback(contextTag)
	}

	metrics.Get().RecordLLMCall(resp.TotalTokens, 0, time.Since(start))
	return resp.Content
}

// recentEventLines summarizes the hunter's last events for the prompt.
func (n *Narrator) recentEventLines(email string, limit int) []string {
	all := n.eventLog.GetByPlayer(email)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}

	lines := make([]string, 0, len(all))
	for _, e := range all {
		lines = append(lines, fmt.Sprintf("%s %s", e.Timestamp.Format("15:04"), e.Type))
	}
	return lines
}
