// Package progression holds the pure progression rules: the experience
// curve and the level-to-tier step functions. Everything here is
// stateless and deterministic; same level in, same tier out.
package progression

import (
	"math"

	"github.com/phantomguild/system-server/internal/domain/player"
)

// Experience curve: 100 * 1.15^(level-1), floored. Strictly increasing.
const (
	xpBase   = 100
	xpGrowth = 1.15
)

// RequiredXP returns the experience needed to clear the given level.
func RequiredXP(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(xpBase * math.Pow(xpGrowth, float64(level-1))))
}

// RankForLevel maps a level onto the seven-tier rank ladder.
func RankForLevel(level int) player.Rank {
	switch {
	case level >= 100:
		return player.RankNational
	case level >= 80:
		return player.RankS
	case level >= 60:
		return player.RankA
	case level >= 40:
		return player.RankB
	case level >= 20:
		return player.RankC
	case level >= 10:
		return player.RankD
	default:
		return player.RankE
	}
}

// ClassForLevel maps a level onto the five class thresholds, pairing
// each class with its fixed title.
func ClassForLevel(level int) (player.Class, string) {
	switch {
	case level >= 75:
		return player.ClassShadowMonarch, "King of the Dead"
	case level >= 45:
		return player.ClassNecromancer, "Mage of Death"
	case level >= 25:
		return player.ClassAssassin, "Silent Killer"
	case level >= 10:
		return player.ClassFighter, "Wolf Slayer"
	default:
		return player.ClassNone, "The Weakest"
	}
}

// Transition reports the tier changes detected between two snapshots.
// Nil fields mean no change.
type Transition struct {
	NewRank  *player.Rank
	NewClass *player.Class
	NewTitle *string
}

// Changed reports whether any tier moved.
func (t Transition) Changed() bool {
	return t.NewRank != nil || t.NewClass != nil
}

// DetectTransition recomputes rank and class from the after snapshot's
// final level and compares against the values stored on the before
// snapshot. Skipped thresholds are invisible: a jump from level 9 to 11
// reports exactly the tier for level 11, never an intermediate one.
func DetectTransition(before, after *player.Player) Transition {
	var t Transition

	rank := RankForLevel(after.Level)
	if rank != before.Rank {
		t.NewRank = &rank
	}

	class, title := ClassForLevel(after.Level)
	if class != before.Class {
		t.NewClass = &class
		t.NewTitle = &title
	}

	return t
}

// Apply writes the detected tiers onto the player snapshot.
func (t Transition) Apply(p *player.Player) {
	if t.NewRank != nil {
		p.Rank = *t.NewRank
	}
	if t.NewClass != nil {
		p.Class = *t.NewClass
		p.Title = *t.NewTitle
	}
}
