package components

import (
	"math"
	"testing"
)

func TestLifecycleSurvivesDraw(t *testing.T) {
	tests := []struct {
		name     string
		lifespan int
		draw     int
		want     bool
	}{
		{"well above draw", 100, 45, true},
		{"equal to draw", 45, 45, true},
		{"below draw", 44, 45, false},
		{"negative lifespan zero draw", -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(tt.lifespan, false)
			if got := l.SurvivesDraw(tt.draw); got != tt.want {
				t.Errorf("SurvivesDraw(%d) with lifespan %d = %v, want %v", tt.draw, tt.lifespan, got, tt.want)
			}
			if l.Alive != tt.want {
				t.Errorf("Alive = %v, want %v", l.Alive, tt.want)
			}
		})
	}
}

func TestLifecycleDeathIsSticky(t *testing.T) {
	l := NewLifecycle(10, false)
	l.SurvivesDraw(45)
	l.Advance(-100)
	if l.SurvivesDraw(0) {
		t.Error("a dead agent must not come back to life")
	}
}

func TestModeValidity(t *testing.T) {
	var b Bee
	if b.SetMode(BeeMode(7)) {
		t.Error("invalid bee mode accepted")
	}
	if b.Mode != BeeSearch {
		t.Errorf("mode changed to %v after rejected set", b.Mode)
	}
	if !b.SetMode(BeeForage) || b.Mode != BeeForage {
		t.Error("valid bee mode rejected")
	}

	var m Mite
	if m.SetMode(MiteMode(9)) {
		t.Error("invalid mite mode accepted")
	}
	for _, mode := range []MiteMode{MiteWait, MiteTransport, MiteReproduce, MiteDrop} {
		if !mode.Valid() || mode.String() == "UNKNOWN" {
			t.Errorf("mode %d should be valid and named", mode)
		}
	}
}

func TestMiteDropFoldsIntoWait(t *testing.T) {
	m := NewMite()
	m.Mode = MiteTransport
	m.Attached = true
	m.Drop()
	if m.Mode != MiteWait || m.Attached {
		t.Errorf("after Drop mode=%v attached=%v, want WAIT and detached", m.Mode, m.Attached)
	}
}

func TestPositionHelpers(t *testing.T) {
	p := Position{X: 2, Y: 3}
	if got := p.Add(Offset{DX: -1, DY: 1}); got != (Position{X: 1, Y: 4}) {
		t.Errorf("Add = %v", got)
	}
	if d := p.DistanceTo(Position{X: 5, Y: 7}); math.Abs(d-5) > 1e-9 {
		t.Errorf("DistanceTo = %v, want 5", d)
	}
	if !(Position{X: 9, Y: 0}).Less(Position{X: 0, Y: 1}) {
		t.Error("Less should order by row first")
	}
}
