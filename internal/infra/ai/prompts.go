// Package ai - prompts.go
// Persona prompting for the System: every message the hunter sees is
// written in the cold, imperative register of the interface that chose
// them. Each context tag carries a deterministic fallback so the game
// keeps speaking when no provider is reachable.
package ai

import (
	"fmt"
	"strings"
)

// SystemPersonaPrompt is the fixed persona for every narration request.
const SystemPersonaPrompt = `
# IDENTITY: THE SYSTEM

You are "The System", the interface that selected a single human as its
Player. You speak in short, cold, imperative lines, always in second
person, always in English, always in the style of a status window.

## RULES (INVIOLABLE)

1. Never break character. You are an interface, not an assistant.
2. Never apologize, never use filler, never exceed 3 sentences.
3. Address the hunter as "Player" or by their title, never by name.
4. Quests, penalties and rewards are facts, not suggestions.
5. Weakness is data. State it plainly.

## OUTPUT FORMAT

Plain text only. Uppercase for window headers when appropriate, e.g.:
[DAILY QUEST: TRAINING]
`

// Context tags classify what the narrator is being asked to say.
const (
	ContextLoginWelcome   = "login-welcome"
	ContextLevelUp        = "level-up"
	ContextFailureWarning = "failure-warning"
	ContextFreeFormAdvice = "free-form-advice"
	ContextReminder       = "reminder"
	ContextPenaltyBrief   = "penalty-briefing"
)

// fallbacks are the canned lines used when no LLM provider is
// available. The game never goes silent.
var fallbacks = map[string]string{
	ContextLoginWelcome:   "[SYSTEM] Player detected. The Daily Quest has been issued.",
	ContextLevelUp:        "[SYSTEM] Level up confirmed. Your body is being reconstructed.",
	ContextFailureWarning: "[WARNING] Quest incomplete. Failure to comply will invoke a penalty.",
	ContextFreeFormAdvice: "SYSTEM: OFFLINE.",
	ContextReminder:       "[SYSTEM] The Daily Quest remains incomplete. Time is not on your side.",
	ContextPenaltyBrief:   "[PENALTY QUEST] Survive. That is the only objective.",
}

// Fallback returns the canned line for a context tag.
func Fallback(contextTag string) string {
	if line, ok := fallbacks[contextTag]; ok {
		return line
	}
	return fallbacks[ContextFreeFormAdvice]
}

// BuildNarrationPrompt constructs the user message for one narration
// request: the hunter's state, what just happened and what register to
// answer in.
func BuildNarrationPrompt(contextTag, playerState string, recentEvents []string, query string) string {
	var sb strings.Builder

	sb.WriteString("## PLAYER STATE\n\n")
	sb.WriteString(playerState)
	sb.WriteString("\n\n## RECENT EVENTS\n\n")

	for i, event := range recentEvents {
		if i >= 10 {
			sb.WriteString("... (older events omitted)\n")
			break
		}
		sb.WriteString(fmt.Sprintf("- %s\n", event))
	}

	sb.WriteString("\n## TASK\n\n")
	switch contextTag {
	case ContextLoginWelcome:
		sb.WriteString("The Player just logged in. Greet them as the System and restate today's objective.\n")
	case ContextLevelUp:
		sb.WriteString("The Player just leveled up. Announce the level, and any new rank, class or title.\n")
	case ContextFailureWarning:
		sb.WriteString("The daily cutoff passed with the quest incomplete. Deliver the penalty warning.\n")
	case ContextReminder:
		sb.WriteString("The quest is still incomplete. Issue a short reminder.\n")
	case ContextPenaltyBrief:
		sb.WriteString("The Player entered the Penalty Zone. Brief them on survival.\n")
	case ContextFreeFormAdvice:
		sb.WriteString("The Player asked the System a question. Answer it in character:\n\n")
		sb.WriteString(query)
		sb.WriteString("\n")
	default:
		sb.WriteString("Narrate the current situation in character.\n")
	}

	return sb.String()
}
