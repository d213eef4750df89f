package scripting

import (
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestLevelCurveMonotonic(t *testing.T) {
	e := newTestEngine(t)
	prev := -1
	for lvl := 1; lvl <= 30; lvl++ {
		xp := e.XPForLevel(lvl)
		if xp <= prev {
			t.Fatalf("xp_for_level not strictly increasing at level %d: %d <= %d", lvl, xp, prev)
		}
		prev = xp
	}
}

func TestLevelFromXPInvertsCurve(t *testing.T) {
	e := newTestEngine(t)
	for lvl := 1; lvl <= 20; lvl++ {
		xp := e.XPForLevel(lvl)
		if got := e.LevelFromXP(xp); got != lvl {
			t.Fatalf("LevelFromXP(XPForLevel(%d)) = %d", lvl, got)
		}
	}
	if got := e.LevelFromXP(0); got != 1 {
		t.Fatalf("zero xp should be level 1, got %d", got)
	}
}

func TestKillXP(t *testing.T) {
	e := newTestEngine(t)
	if xp := e.XPForKill("TundraWolf"); xp != 35 {
		t.Fatalf("wolf kill xp = %d, want 35", xp)
	}
	if xp := e.XPForKill("NoSuchSpecies"); xp != 10 {
		t.Fatalf("default kill xp = %d, want 10", xp)
	}
	if xp := e.XPForPlayerKill(); xp != 50 {
		t.Fatalf("player kill xp = %d, want 50", xp)
	}
}
