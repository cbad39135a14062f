package config

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func createValidLevel(name string, order int) *engine.LevelConfig {
	return &engine.LevelConfig{
		Name:        name,
		Description: "Test level",
		Order:       order,
		Layout: []string{
			"#####",
			"#S.##",
			"##.##",
			"#####",
		},
	}
}

func writeLevelFile(t *testing.T, dir, name string, level any) {
	t.Helper()
	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal level: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write level file: %v", err)
	}
}

func newTestManager(t *testing.T, dir string) *Manager {
	t.Helper()
	m, err := NewManager(dir, quietLogger())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManager(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "missing"), quietLogger()); err == nil {
		t.Error("Expected error for missing directory")
	}
	m := newTestManager(t, t.TempDir())
	if m.schema == nil {
		t.Error("Expected compiled schema")
	}
}

func TestManager_LoadLevel(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "alpha", createValidLevel("Alpha", 1))
	writeLevelFile(t, dir, "unnamed", map[string]any{"layout": []string{"#####", "#S..#", "#####"}})
	m := newTestManager(t, dir)

	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  error
	}{
		{"plain name", "alpha", "Alpha", nil},
		{"with suffix", "alpha.json", "Alpha", nil},
		{"name defaults to file", "unnamed", "unnamed", nil},
		{"missing", "nope", "", ErrLevelNotFound},
		{"path traversal", "../alpha", "", ErrLevelNotFound},
		{"hidden", ".alpha", "", ErrLevelNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := m.LoadLevel(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadLevel: %v", err)
			}
			if level.Name != tt.wantName {
				t.Errorf("Expected name %q, got %q", tt.wantName, level.Name)
			}
		})
	}

	first, _ := m.LoadLevel("alpha")
	second, _ := m.LoadLevel("alpha")
	if first != second {
		t.Error("Expected cached level to be returned")
	}
}

func TestManager_InvalidLevels(t *testing.T) {
	dir := t.TempDir()
	files := map[string]any{
		"bad-char":     map[string]any{"name": "x", "layout": []string{"#####", "#S?.#", "#####"}},
		"no-start":     map[string]any{"name": "x", "layout": []string{"#####", "#...#", "#####"}},
		"two-starts":   map[string]any{"name": "x", "layout": []string{"#####", "#S.S#", "#####"}},
		"extra-field":  map[string]any{"name": "x", "battery": 3, "layout": []string{"#####", "#S..#", "#####"}},
		"bad-size":     map[string]any{"name": "x", "camera_target": map[string]any{"width": 0, "height": 3}, "layout": []string{"#####", "#S..#", "#####"}},
		"ragged":       map[string]any{"name": "x", "layout": []string{"#####", "#S.#", "#####"}},
		"short":        map[string]any{"name": "x", "layout": []string{"#S.#"}},
		"open-edge":    map[string]any{"name": "x", "layout": []string{"#####", "#S...", "#####"}},
		"not-an-array": map[string]any{"name": "x", "layout": "#S.#"},
	}
	for name, level := range files {
		writeLevelFile(t, dir, name, level)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, dir)

	for name := range files {
		t.Run(name, func(t *testing.T) {
			if _, err := m.LoadLevel(name); !errors.Is(err, ErrInvalidLevel) {
				t.Errorf("Expected ErrInvalidLevel, got %v", err)
			}
		})
	}
	if _, err := m.LoadLevel("broken"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel for malformed JSON, got %v", err)
	}

	levels, err := m.ListLevels()
	if err != nil {
		t.Fatalf("ListLevels: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("Expected invalid levels to be skipped, got %d", len(levels))
	}
	if _, err := m.Pack(); !errors.Is(err, engine.ErrNoLevels) {
		t.Errorf("Expected ErrNoLevels for an empty pack, got %v", err)
	}
}

func TestManager_ListLevelsOrder(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "c", createValidLevel("C", 1))
	writeLevelFile(t, dir, "b", createValidLevel("B", 2))
	writeLevelFile(t, dir, "a", createValidLevel("A", 2))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, dir)

	levels, err := m.ListLevels()
	if err != nil {
		t.Fatalf("ListLevels: %v", err)
	}
	var ids []string
	for _, l := range levels {
		ids = append(ids, l.LevelID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("Expected order c,a,b, got %v", ids)
	}
	if levels[0].Width != 5 || levels[0].Height != 4 || levels[0].Tiles != 3 {
		t.Errorf("Unexpected level info: %+v", levels[0])
	}

	pack, err := m.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(pack) != 3 || pack[0].Name != "C" || pack[2].Name != "B" {
		t.Errorf("Expected pack to follow list order, got %d levels", len(pack))
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "alpha", createValidLevel("Before", 1))
	m := newTestManager(t, dir)

	if l, _ := m.LoadLevel("alpha"); l.Name != "Before" {
		t.Fatalf("Expected Before, got %s", l.Name)
	}
	writeLevelFile(t, dir, "alpha", createValidLevel("After", 1))
	if l, _ := m.LoadLevel("alpha"); l.Name != "Before" {
		t.Error("Expected cached level before refresh")
	}
	m.RefreshCache()
	if l, _ := m.LoadLevel("alpha"); l.Name != "After" {
		t.Errorf("Expected After, got %s", l.Name)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "alpha", createValidLevel("Alpha", 1))
	writeLevelFile(t, dir, "beta", createValidLevel("Beta", 2))
	m := newTestManager(t, dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if _, err := m.LoadLevel("alpha"); err != nil {
					t.Errorf("LoadLevel: %v", err)
				}
			} else if _, err := m.Pack(); err != nil {
				t.Errorf("Pack: %v", err)
			}
			if i%5 == 0 {
				m.RefreshCache()
			}
		}(i)
	}
	wg.Wait()
}

func TestShippedLevelsAreValidAndSolvable(t *testing.T) {
	m := newTestManager(t, "../../levels")
	pack, err := m.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(pack) < 5 {
		t.Errorf("Expected at least 5 shipped levels, got %d", len(pack))
	}
	levels, err := engine.BuildLevels(pack)
	if err != nil {
		t.Fatalf("BuildLevels: %v", err)
	}
	for _, level := range levels {
		sol, err := engine.Solve(level)
		if err != nil {
			t.Errorf("%s: %v", level.Name, err)
			continue
		}
		if !sol.Solvable {
			t.Errorf("%s: expected a solution", level.Name)
		}
	}
	if pack[0].Name != "First Steps" {
		t.Errorf("Expected First Steps to open the pack, got %s", pack[0].Name)
	}
}
