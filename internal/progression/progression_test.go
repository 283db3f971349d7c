package progression

import (
	"testing"

	"github.com/phantomguild/system-server/internal/domain/player"
)

func TestRequiredXPStrictlyIncreasing(t *testing.T) {
	prev := RequiredXP(1)
	if prev != 100 {
		t.Errorf("Expected RequiredXP(1) = 100, got %d", prev)
	}

	for level := 2; level <= 120; level++ {
		cur := RequiredXP(level)
		if cur <= prev {
			t.Errorf("Curve not strictly increasing at level %d: %d <= %d", level, cur, prev)
		}
		prev = cur
	}
}

func TestRankForLevelThresholds(t *testing.T) {
	cases := []struct {
		level int
		want  player.Rank
	}{
		{1, player.RankE},
		{9, player.RankE},
		{10, player.RankD},
		{19, player.RankD},
		{20, player.RankC},
		{40, player.RankB},
		{60, player.RankA},
		{80, player.RankS},
		{99, player.RankS},
		{100, player.RankNational},
		{150, player.RankNational},
	}

	for _, c := range cases {
		if got := RankForLevel(c.level); got != c.want {
			t.Errorf("RankForLevel(%d) = %s, want %s", c.level, got, c.want)
		}
	}
}

func TestRankMonotonicNonDecreasing(t *testing.T) {
	order := map[player.Rank]int{
		player.RankE: 0, player.RankD: 1, player.RankC: 2, player.RankB: 3,
		player.RankA: 4, player.RankS: 5, player.RankNational: 6,
	}

	prev := RankForLevel(1)
	for level := 2; level <= 120; level++ {
		cur := RankForLevel(level)
		if order[cur] < order[prev] {
			t.Errorf("Rank decreased at level %d: %s -> %s", level, prev, cur)
		}
		prev = cur
	}
}

func TestClassForLevelThresholds(t *testing.T) {
	cases := []struct {
		level int
		want  player.Class
		title string
	}{
		{1, player.ClassNone, "The Weakest"},
		{10, player.ClassFighter, "Wolf Slayer"},
		{25, player.ClassAssassin, "Silent Killer"},
		{45, player.ClassNecromancer, "Mage of Death"},
		{75, player.ClassShadowMonarch, "King of the Dead"},
	}

	for _, c := range cases {
		class, title := ClassForLevel(c.level)
		if class != c.want {
			t.Errorf("ClassForLevel(%d) = %s, want %s", c.level, class, c.want)
		}
		if title != c.title {
			t.Errorf("ClassForLevel(%d) title = %q, want %q", c.level, title, c.title)
		}
	}
}

func TestDetectTransitionMultiLevelJump(t *testing.T) {
	// Level 9 -> 11 in one event must report the tier for 11, not an
	// intermediate value for the passed-through level 10.
	before := player.NewPlayer("hunter@system.local", "Jin")
	before.Level = 9
	before.Rank = player.RankE
	before.Class = player.ClassNone

	after := before.Clone()
	after.Level = 11

	tr := DetectTransition(before, after)
	if tr.NewRank == nil || *tr.NewRank != player.RankD {
		t.Fatalf("Expected rank change to %s, got %v", player.RankD, tr.NewRank)
	}
	if tr.NewClass == nil || *tr.NewClass != player.ClassFighter {
		t.Fatalf("Expected class change to %s, got %v", player.ClassFighter, tr.NewClass)
	}
	if tr.NewTitle == nil || *tr.NewTitle != "Wolf Slayer" {
		t.Fatalf("Expected title Wolf Slayer, got %v", tr.NewTitle)
	}
}

func TestDetectTransitionNoChange(t *testing.T) {
	before := player.NewPlayer("hunter@system.local", "Jin")
	before.Level = 12
	before.Rank = player.RankD
	before.Class = player.ClassFighter

	after := before.Clone()
	after.Level = 15 // still D-Rank Fighter

	tr := DetectTransition(before, after)
	if tr.Changed() {
		t.Errorf("Expected no transition between levels 12 and 15, got %+v", tr)
	}
}
