package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
)

var errNotFound = errors.New("session not found")

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{sessions: make(map[string]*service.Session)}
}

func (m *MockSessionManager) Create(id, profile string, game *engine.Game) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}
	s := service.NewSession(id, profile, game)
	m.sessions[id] = s
	return s, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errNotFound
	}
	return s, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*service.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return errNotFound
	}
	s.Close()
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error { return nil }

func (m *MockSessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MockLevelManager implements service.LevelManager over in-memory configs
type MockLevelManager struct {
	levels []*engine.LevelConfig
}

func NewMockLevelManager() *MockLevelManager {
	return &MockLevelManager{levels: []*engine.LevelConfig{
		{Name: "corner", Layout: []string{"#####", "#S.##", "##.##", "#####"}},
		{Name: "corridor", Layout: []string{"#####", "#S..#", "#####"}},
		{Name: "stuck", Layout: []string{"#####", "#S#.#", "#####"}},
	}}
}

func (m *MockLevelManager) LoadLevel(name string) (*engine.LevelConfig, error) {
	for _, l := range m.levels {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("level not found: %s", name)
}

func (m *MockLevelManager) ListLevels() ([]*service.LevelInfo, error) {
	out := make([]*service.LevelInfo, 0, len(m.levels))
	for i, l := range m.levels {
		out = append(out, &service.LevelInfo{LevelID: l.Name, Name: l.Name, Order: i})
	}
	return out, nil
}

func (m *MockLevelManager) Pack() ([]*engine.LevelConfig, error) { return m.levels[:2], nil }

type memProgress struct {
	mu    sync.Mutex
	index int
}

func (p *memProgress) LoadProgress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

func (p *memProgress) SaveProgress(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = index
	return nil
}

func (p *memProgress) ResetProgress() error { return p.SaveProgress(0) }

type fixture struct {
	svc      service.GameService
	sessions *MockSessionManager
	progress map[string]*memProgress
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	f := &fixture{
		sessions: NewMockSessionManager(),
		progress: make(map[string]*memProgress),
	}
	f.svc = service.NewGameService(f.sessions, NewMockLevelManager(), service.Config{
		Tuning: engine.DefaultTuning(),
		Progress: func(profile string) engine.ProgressStore {
			if p, ok := f.progress[profile]; ok {
				return p
			}
			p := &memProgress{}
			f.progress[profile] = p
			return p
		},
		AdDuration: 1,
		Logger:     log,
	})
	return f
}

func (f *fixture) create(t *testing.T, profile string) *service.SessionInfo {
	t.Helper()
	info, err := f.svc.CreateSession(context.Background(), profile)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return info
}

func (f *fixture) settle(t *testing.T, id string) *engine.Snapshot {
	t.Helper()
	res, err := f.svc.Advance(context.Background(), id, 0.05, 40)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	return res.State
}

func hasEvent(events []service.EventRecord, typ engine.EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestGameService_CreateSession(t *testing.T) {
	f := newFixture(t)
	info := f.create(t, "")

	if info.ID == "" {
		t.Error("Expected session ID")
	}
	if info.Profile != service.DefaultProfile {
		t.Errorf("Expected default profile, got %q", info.Profile)
	}
	if info.State == nil {
		t.Fatal("Expected state")
	}
	if info.State.LevelCount != 2 || info.State.LevelIndex != 0 {
		t.Errorf("Expected level 0 of 2, got %d of %d", info.State.LevelIndex, info.State.LevelCount)
	}
	if info.State.RemainingTiles != 3 {
		t.Errorf("Expected 3 tiles, got %d", info.State.RemainingTiles)
	}
}

func TestGameService_CreateSessionResumesProfile(t *testing.T) {
	f := newFixture(t)
	f.progress["ana"] = &memProgress{index: 1}

	info := f.create(t, "ana")
	if info.State.LevelIndex != 1 {
		t.Errorf("Expected persisted level 1, got %d", info.State.LevelIndex)
	}
}

func TestGameService_PlayThroughLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "p1").ID

	res, err := f.svc.Move(ctx, id, "right")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !res.Accepted || res.Direction != "right" {
		t.Errorf("Expected accepted right move, got %+v", res)
	}
	if !hasEvent(res.Events, engine.EventMoveStarted) {
		t.Error("Expected move_started in captured events")
	}
	if state := f.settle(t, id); state.RemainingTiles != 1 {
		t.Errorf("Expected 1 tile left, got %d", state.RemainingTiles)
	}

	if res, _ := f.svc.Move(ctx, id, "down"); !res.Accepted {
		t.Fatalf("Expected down move accepted: %s", res.Message)
	}
	adv, err := f.svc.Advance(ctx, id, 0.05, 400)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !hasEvent(adv.Events, engine.EventLevelCompleted) || !hasEvent(adv.Events, engine.EventLevelAdvanced) {
		t.Error("Expected completion and advancement events")
	}
	if !hasEvent(adv.Events, service.EventSuccessEffect) {
		t.Error("Expected success effect to be relayed")
	}
	if adv.State.LevelIndex != 1 {
		t.Errorf("Expected level 1, got %d", adv.State.LevelIndex)
	}
	if adv.State.Replay.State != "idle" {
		t.Errorf("Expected idle replay, got %s", adv.State.Replay.State)
	}
	if got := f.progress["p1"].LoadProgress(); got != 1 {
		t.Errorf("Expected persisted index 1, got %d", got)
	}
}

func TestGameService_InterstitialPausesOnCadence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "ads").ID

	// first advance
	if _, err := f.svc.ActivateLevel(ctx, id, 1); err != nil {
		t.Fatalf("ActivateLevel: %v", err)
	}
	f.svc.Move(ctx, id, "right")
	adv, _ := f.svc.Advance(ctx, id, 0.05, 200)
	if adv.State.LevelIndex != 0 {
		t.Fatalf("Expected wrap to level 0, got %d", adv.State.LevelIndex)
	}

	// second advance shows the ad
	f.svc.Move(ctx, id, "right")
	f.settle(t, id)
	f.svc.Move(ctx, id, "down")
	var state *engine.Snapshot
	for i := 0; i < 400; i++ {
		adv, _ = f.svc.Advance(ctx, id, 0.05, 1)
		if hasEvent(adv.Events, engine.EventAdShown) {
			state = adv.State
			break
		}
	}
	if state == nil {
		t.Fatal("Expected an interstitial on the second advance")
	}
	if !state.Paused {
		t.Error("Expected the ad to pause the game")
	}
	if state.TimeScale != 1 {
		t.Errorf("Expected the ad to leave time running, got scale %v", state.TimeScale)
	}
	if res, _ := f.svc.Move(ctx, id, "right"); res.Accepted {
		t.Error("Expected moves to be rejected while the ad shows")
	}

	adv, _ = f.svc.Advance(ctx, id, 0.05, 30)
	if adv.State.Paused {
		t.Error("Expected the ad to close after its duration")
	}
}

func TestGameService_InvalidInputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "").ID

	if _, err := f.svc.Move(ctx, id, "sideways"); !errors.Is(err, service.ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
	if _, err := f.svc.Move(ctx, "nope", "up"); err == nil {
		t.Error("Expected error for unknown session")
	}
	if _, err := f.svc.Advance(ctx, id, -1, 1); err == nil {
		t.Error("Expected error for negative dt")
	}
	if _, err := f.svc.ActivateLevel(ctx, id, 9); !errors.Is(err, engine.ErrInvalidLevelIndex) {
		t.Errorf("Expected ErrInvalidLevelIndex, got %v", err)
	}

	res, err := f.svc.Swipe(ctx, id, engine.Vec2{}, engine.Vec2{X: 10})
	if err != nil {
		t.Fatalf("Swipe: %v", err)
	}
	if res.Accepted {
		t.Error("Expected sub-threshold swipe to be ignored")
	}
	if !hasEvent(res.Events, engine.EventGestureIgnored) {
		t.Error("Expected gesture_ignored event")
	}
}

func TestGameService_PauseAndPanel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "").ID

	res, err := f.svc.SetPaused(ctx, id, true)
	if err != nil || !res.State.Paused {
		t.Fatalf("Expected paused state, got %+v, %v", res, err)
	}
	if mv, _ := f.svc.Move(ctx, id, "right"); mv.Accepted || mv.Message != "Game is paused" {
		t.Errorf("Expected paused rejection, got %+v", mv)
	}
	f.svc.SetPaused(ctx, id, false)

	res, _ = f.svc.SetPanelOpen(ctx, id, true)
	if !res.State.PanelOpen || res.State.TimeScale != 0 {
		t.Errorf("Expected open panel with stopped time, got %+v", res.State)
	}
	res, _ = f.svc.SetPanelOpen(ctx, id, false)
	if res.State.Paused || res.State.TimeScale != 1 {
		t.Errorf("Expected resumed game, got %+v", res.State)
	}
}

func TestGameService_SkipAndReplacePiece(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "").ID

	res, err := f.svc.Skip(ctx, id)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if res.Success {
		t.Error("Expected skip to be unavailable outside a replay")
	}

	rp, err := f.svc.ReplacePiece(ctx, id)
	if err != nil {
		t.Fatalf("ReplacePiece: %v", err)
	}
	if !hasEvent(rp.Events, engine.EventPieceReplaced) {
		t.Error("Expected piece_replaced event")
	}

	rs, err := f.svc.ResetProgress(ctx, id)
	if err != nil || !rs.Success {
		t.Errorf("ResetProgress: %+v, %v", rs, err)
	}
}

func TestGameService_History(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "").ID
	f.svc.Move(ctx, id, "right")
	f.settle(t, id)

	hist, err := f.svc.GetHistory(ctx, id, service.HistoryOptions{Limit: 2, Order: "asc"})
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(hist.Stops) != 2 {
		t.Errorf("Expected 2 recorded stops, got %v", hist.Stops)
	}
	if len(hist.Events) != 2 || hist.Events[0].Type != engine.EventLevelActivated {
		t.Errorf("Expected activation first, got %+v", hist.Events)
	}
	if !hist.HasNext || hist.HasPrevious {
		t.Errorf("Expected a first page with more to come, got %+v", hist)
	}

	desc, _ := f.svc.GetHistory(ctx, id, service.HistoryOptions{})
	if desc.Events[0].Seq != desc.TotalEvents {
		t.Errorf("Expected newest event first, got seq %d of %d", desc.Events[0].Seq, desc.TotalEvents)
	}
}

func TestGameService_SubscribeAndTickAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "").ID

	var got []string
	unsubscribe := f.svc.Subscribe(func(sessionID string, rec service.EventRecord) {
		got = append(got, sessionID+":"+string(rec.Type))
	})

	f.svc.Move(ctx, id, "right")
	for i := 0; i < 40; i++ {
		f.svc.TickAll(0.05)
	}
	joined := strings.Join(got, ",")
	if !strings.Contains(joined, id+":move_started") || !strings.Contains(joined, id+":move_stopped") {
		t.Errorf("Expected move events via subscription, got %s", joined)
	}

	unsubscribe()
	unsubscribe()
	n := len(got)
	f.svc.Move(ctx, id, "down")
	if len(got) != n {
		t.Error("Expected no events after unsubscribe")
	}
}

func TestGameService_CreateSessionWhileTicking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				f.svc.TickAll(0.01)
			}
		}
	}()

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		ids = append(ids, f.create(t, fmt.Sprintf("p%d", i)).ID)
	}
	close(done)
	wg.Wait()

	for _, id := range ids {
		hist, err := f.svc.GetHistory(ctx, id, service.HistoryOptions{Limit: 1, Order: "asc"})
		if err != nil {
			t.Fatalf("GetHistory: %v", err)
		}
		if len(hist.Events) != 1 || hist.Events[0].Type != engine.EventLevelActivated {
			t.Errorf("Expected session %s to record its activation, got %+v", id, hist.Events)
		}
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info := f.create(t, "")
	sess, _ := f.sessions.Get(info.ID)

	if err := f.svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if !sess.Game.Closed() {
		t.Error("Expected game to be closed")
	}
	if _, err := f.svc.GetSession(ctx, info.ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
	if err := f.svc.DeleteSession(ctx, info.ID); err == nil {
		t.Error("Expected error deleting twice")
	}
}

func TestGameService_Levels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	levels, err := f.svc.ListLevels(ctx)
	if err != nil || len(levels) != 3 {
		t.Fatalf("Expected 3 levels, got %d, %v", len(levels), err)
	}

	sol, err := f.svc.SolveLevel(ctx, "corner")
	if err != nil {
		t.Fatalf("SolveLevel: %v", err)
	}
	if !sol.Solvable || len(sol.Path) != 2 {
		t.Errorf("Expected a 2-move solution, got %+v", sol)
	}

	sol, err = f.svc.SolveLevel(ctx, "stuck")
	if err != nil {
		t.Fatalf("SolveLevel: %v", err)
	}
	if sol.Solvable {
		t.Error("Expected the walled-off tile to be unsolvable")
	}

	if _, err := f.svc.SolveLevel(ctx, "missing"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
