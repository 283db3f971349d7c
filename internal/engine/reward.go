package engine

import (
	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/progression"
)

// Quest completion rewards.
const (
	QuestXPReward      = 150
	QuestGoldReward    = 1000
	StatPointsPerLevel = 3
)

// CompletionResult is the outcome of resolving a quest completion.
type CompletionResult struct {
	Player     *player.Player
	Progress   player.DailyProgress
	LeveledUp  bool
	Transition progression.Transition
}

// ResolveQuestCompletion grants the daily rewards, resolves cascading
// level-ups and marks the record completed. It is a pure transformation:
// no persistence or side effects happen here, the caller persists the
// returned snapshot.
//
// Preconditions: dp belongs to the current date and is not yet completed.
func ResolveQuestCompletion(p *player.Player, dp player.DailyProgress) (CompletionResult, error) {
	if dp.Completed {
		return CompletionResult{}, ErrAlreadyCompleted
	}

	before := p
	after := p.Clone()

	after.CurrentXP += QuestXPReward
	after.Gold += QuestGoldReward

	// Cascading level-ups: one large grant may cross several thresholds,
	// and the requirement changes per level, so this must stay a loop
	// rather than a closed form. Terminates in O(levels gained).
	leveled := false
	for after.CurrentXP >= after.RequiredXP {
		after.CurrentXP -= after.RequiredXP
		after.Level++
		after.Stats.AvailablePoints += StatPointsPerLevel
		after.RequiredXP = progression.RequiredXP(after.Level)
		leveled = true
	}

	dp.Completed = true
	after.UpsertHistory(dp)
	after.Streak++ // count of completions, not consecutive days

	transition := progression.DetectTransition(before, after)
	transition.Apply(after)

	return CompletionResult{
		Player:     after,
		Progress:   dp,
		LeveledUp:  leveled,
		Transition: transition,
	}, nil
}
