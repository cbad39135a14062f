package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewGame(t *testing.T) {
	h := newHarness(t, mustLevel(t, 0, scenarioLayout...))
	if err := h.game.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := h.game.Snapshot()
	if snap.LevelIndex != 0 || snap.LevelCount != 1 {
		t.Errorf("Expected level 0 of 1, got %d of %d", snap.LevelIndex, snap.LevelCount)
	}
	if snap.RemainingTiles != 3 || snap.TotalTiles != 3 {
		t.Errorf("Expected 3/3 tiles, got %d/%d", snap.RemainingTiles, snap.TotalTiles)
	}
	if snap.Piece == nil || snap.Piece.Position != (Vec2{1, -1}) {
		t.Errorf("Expected piece at spawn, got %+v", snap.Piece)
	}
	if snap.Replay.State != "idle" {
		t.Errorf("Expected idle replay, got %s", snap.Replay.State)
	}
	if snap.Instance == "" {
		t.Error("Expected a level instance token")
	}
	if snap.ViewSize <= 0 {
		t.Errorf("Expected camera framing, got view size %v", snap.ViewSize)
	}
	if snap.Grid[1] != "#o.##" {
		t.Errorf("Expected rendered piece, got %q", snap.Grid[1])
	}
	if _, err := json.Marshal(snap); err != nil {
		t.Errorf("Snapshot must serialise: %v", err)
	}
}

func TestNewGame_InvalidOptions(t *testing.T) {
	if _, err := NewGame(Options{Tuning: DefaultTuning()}); !errors.Is(err, ErrNoLevels) {
		t.Errorf("Expected ErrNoLevels, got %v", err)
	}

	bad := DefaultTuning()
	bad.MoveSpeed = 0
	if _, err := NewGame(Options{Tuning: bad, Levels: []*Level{mustLevel(t, 0, scenarioLayout...)}}); err == nil {
		t.Error("Expected tuning validation error")
	}
}

func TestGame_TimeScale(t *testing.T) {
	h := newHarness(t, mustLevel(t, 0, "S.."))
	if err := h.game.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.game.SetTimeScale(-1); err == nil {
		t.Error("Expected error for negative time scale")
	}
	if err := h.game.SetTimeScale(0); err != nil {
		t.Fatalf("SetTimeScale: %v", err)
	}

	h.game.Slide(DirRight)
	h.game.Tick(1)
	if got := h.game.Sequencer().Piece().Position(); got != (Vec2{0, 0}) {
		t.Errorf("Expected no motion at time scale 0, got %v", got)
	}

	h.game.SetTimeScale(0.5)
	h.game.Tick(0.2) // 0.1s of game time inside the burst window
	if x := h.game.Sequencer().Piece().Position().X; x < 0.99 || x > 1.01 {
		t.Errorf("Expected x≈1.0 after scaled tick, got %v", x)
	}
}

func TestGame_PanelPausesAndStopsTime(t *testing.T) {
	h := newHarness(t, mustLevel(t, 0, "S.."))
	if err := h.game.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.game.SetPanelOpen(true)
	snap := h.game.Snapshot()
	if !snap.Paused || !snap.PanelOpen || snap.TimeScale != 0 {
		t.Errorf("Expected paused panel with stopped time, got %+v", snap)
	}
	if h.game.Slide(DirRight) {
		t.Error("Expected slide to be rejected while a panel is open")
	}

	h.game.SetPanelOpen(false)
	snap = h.game.Snapshot()
	if snap.Paused || snap.TimeScale != 1 {
		t.Errorf("Expected resumed game, got paused=%v scale=%v", snap.Paused, snap.TimeScale)
	}
	if h.events.count(EventPauseChanged) != 2 {
		t.Errorf("Expected 2 pause events, got %d", h.events.count(EventPauseChanged))
	}
}

func TestGame_Close(t *testing.T) {
	h := newHarness(t, mustLevel(t, 0, scenarioLayout...))
	if err := h.game.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	bus := h.game.PauseBus()
	h.game.Close()
	h.game.Close()

	if !h.game.Closed() {
		t.Error("Expected game to report closed")
	}
	if bus.Subscribers() != 0 {
		t.Errorf("Expected all pause subscribers removed, got %d", bus.Subscribers())
	}
	if h.game.Slide(DirRight) {
		t.Error("Expected slide to fail after close")
	}
	if err := h.game.Start(); !errors.Is(err, ErrTornDown) {
		t.Errorf("Expected ErrTornDown, got %v", err)
	}
}
