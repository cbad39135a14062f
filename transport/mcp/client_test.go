package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
)

type recordedCall struct {
	Method string
	Path   string
	Body   string
}

// fakeAPI answers REST calls from a route table and records every call
type fakeAPI struct {
	mu     sync.Mutex
	calls  []recordedCall
	routes map[string]interface{}
}

func newFakeAPI(t *testing.T, routes map[string]interface{}) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{routes: routes}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return api, NewClient(server.URL)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: r.Method, Path: r.URL.RequestURI(), Body: string(body)})
	resp, ok := f.routes[key]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session not found: " + key})
		return
	}
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) last() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return recordedCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text, result.IsError
}

func levelState() *engine.Snapshot {
	return &engine.Snapshot{
		LevelIndex:     1,
		LevelCount:     5,
		LevelTitle:     "Corner",
		RemainingTiles: 3,
		TotalTiles:     5,
		Piece:          &engine.PieceState{Position: engine.Vec2{X: 2, Y: -1}},
		Replay:         engine.ReplayStatus{State: engine.ReplayIdle.String()},
		Grid:           []string{"#####", "#xxo#", "#...#", "#####"},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	api, client := newFakeAPI(t, map[string]interface{}{
		"GET /api/sessions/a1b2/state": levelState(),
	})

	var state engine.Snapshot
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/a1b2/state", nil, &state); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if state.LevelTitle != "Corner" || state.RemainingTiles != 3 {
		t.Errorf("Unexpected state %+v", state)
	}
	if api.count() != 1 {
		t.Errorf("Expected 1 call, got %d", api.count())
	}

	err := client.apiCall(context.Background(), "GET", "/api/sessions/zzzz/state", nil, &state)
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Expected the API error message, got %v", err)
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.apiCall(context.Background(), "GET", "/test", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error: 500") {
		t.Errorf("Expected 'API error: 500', got: %v", err)
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	if err := client.apiCall(context.Background(), "GET", "/api/levels", nil, nil); err == nil {
		t.Error("Expected a connection error")
	}
}

func TestClient_createSession(t *testing.T) {
	api, client := newFakeAPI(t, map[string]interface{}{
		"POST /api/sessions": service.SessionInfo{ID: "a1b2", Profile: "alice", State: levelState()},
	})

	text, isErr := call(t, client.handleCreateSession, map[string]interface{}{"profile": "alice"})
	if isErr {
		t.Fatalf("Unexpected error result: %s", text)
	}
	if !strings.Contains(text, "a1b2") || !strings.Contains(text, "alice") {
		t.Errorf("Expected session and profile in result, got: %s", text)
	}
	if !strings.Contains(api.last().Body, `"profile":"alice"`) {
		t.Errorf("Expected profile forwarded, got body %s", api.last().Body)
	}

	// nil arguments must not panic
	if _, isErr := call(t, client.handleCreateSession, nil); isErr {
		t.Error("Expected create without arguments to succeed")
	}
}

func TestClient_moveSettles(t *testing.T) {
	settled := levelState()
	settled.RemainingTiles = 1
	api, client := newFakeAPI(t, map[string]interface{}{
		"POST /api/sessions/a1b2/move": service.MoveResult{
			Accepted: true, Direction: "down", Message: "Moving down", State: levelState(),
			Events: []service.EventRecord{{Event: engine.Event{Type: engine.EventMoveStarted, Direction: "down"}, Seq: 4}},
		},
		"POST /api/sessions/a1b2/advance": service.AdvanceResult{
			Steps: 90, DT: 1.0 / 60, State: settled,
			Events: []service.EventRecord{{Event: engine.Event{Type: engine.EventTileBroken, Position: &engine.Vec2{X: 2, Y: -2}}, Seq: 5}},
		},
	})

	text, isErr := call(t, client.handleMove, map[string]interface{}{"session_id": "a1b2", "direction": "down", "intent": "clear the middle row"})
	if isErr {
		t.Fatalf("Unexpected error result: %s", text)
	}
	if !strings.Contains(text, "✓ Moving down") {
		t.Errorf("Expected accepted move, got: %s", text)
	}
	if !strings.Contains(text, "tile_broken at (2,2)") || !strings.Contains(text, "move_started down") {
		t.Errorf("Expected events from move and settle, got: %s", text)
	}
	if !strings.Contains(text, "Tiles left: 1/5") {
		t.Errorf("Expected settled state, got: %s", text)
	}
	if last := api.last(); last.Path != "/api/sessions/a1b2/advance" || !strings.Contains(last.Body, "seconds") {
		t.Errorf("Expected a settle advance call, got %+v", last)
	}
}

func TestClient_moveWithoutSettle(t *testing.T) {
	api, client := newFakeAPI(t, map[string]interface{}{
		"POST /api/sessions/a1b2/move": service.MoveResult{Accepted: false, Message: "Game is paused", State: levelState()},
	})

	text, _ := call(t, client.handleMove, map[string]interface{}{"session_id": "a1b2", "direction": "up", "settle": false})
	if !strings.Contains(text, "✗ Game is paused") {
		t.Errorf("Expected rejected move, got: %s", text)
	}
	if api.count() != 1 {
		t.Errorf("Expected no settle call, got %d calls", api.count())
	}
}

func TestClient_errorsBecomeToolErrors(t *testing.T) {
	_, client := newFakeAPI(t, map[string]interface{}{})

	text, isErr := call(t, client.handleGameState, map[string]interface{}{"session_id": "zzzz"})
	if !isErr || !strings.Contains(text, "session not found") {
		t.Errorf("Expected tool error, got %v %s", isErr, text)
	}

	text, isErr = call(t, client.handleSelectLevel, map[string]interface{}{"session_id": "zzzz"})
	if !isErr || !strings.Contains(text, "index is required") {
		t.Errorf("Expected missing index error, got %v %s", isErr, text)
	}

	text, isErr = call(t, client.handleSolveLevel, map[string]interface{}{})
	if !isErr || !strings.Contains(text, "level_id is required") {
		t.Errorf("Expected missing level error, got %v %s", isErr, text)
	}
}

func TestClient_controls(t *testing.T) {
	ok := service.ActionResult{Success: true, Message: "done", State: levelState()}
	api, client := newFakeAPI(t, map[string]interface{}{
		"POST /api/sessions/a1b2/skip":           ok,
		"POST /api/sessions/a1b2/pause":          ok,
		"POST /api/sessions/a1b2/level":          ok,
		"POST /api/sessions/a1b2/replace-piece":  ok,
		"POST /api/sessions/a1b2/reset-progress": ok,
		"POST /api/sessions/a1b2/swipe":          service.MoveResult{Accepted: true, Message: "Moving right", State: levelState()},
		"POST /api/sessions/a1b2/advance":        service.AdvanceResult{Steps: 60, DT: 1.0 / 60, Elapsed: 3, State: levelState()},
	})
	sid := map[string]interface{}{"session_id": "a1b2"}

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
		path    string
		body    string
	}{
		{"skip", client.handleSkip, sid, "/api/sessions/a1b2/skip", ""},
		{"pause", client.handlePause, map[string]interface{}{"session_id": "a1b2", "paused": true}, "/api/sessions/a1b2/pause", `"paused":true`},
		{"level", client.handleSelectLevel, map[string]interface{}{"session_id": "a1b2", "index": float64(3)}, "/api/sessions/a1b2/level", `"index":3`},
		{"replace", client.handleReplacePiece, sid, "/api/sessions/a1b2/replace-piece", ""},
		{"reset", client.handleResetProgress, sid, "/api/sessions/a1b2/reset-progress", ""},
		{"swipe", client.handleSwipe, map[string]interface{}{"session_id": "a1b2", "start_x": float64(0), "start_y": float64(0), "end_x": float64(120), "end_y": float64(4)}, "/api/sessions/a1b2/swipe", `"end":{"x":120,"y":4}`},
		{"advance", client.handleAdvance, sid, "/api/sessions/a1b2/advance", `"seconds":1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, tt.handler, tt.args)
			if isErr {
				t.Fatalf("Unexpected error result: %s", text)
			}
			last := api.last()
			if last.Method != "POST" || last.Path != tt.path {
				t.Errorf("Expected POST %s, got %s %s", tt.path, last.Method, last.Path)
			}
			if tt.body != "" && !strings.Contains(last.Body, tt.body) {
				t.Errorf("Expected body to contain %s, got %s", tt.body, last.Body)
			}
			if !strings.Contains(text, "Level 2/5: Corner") {
				t.Errorf("Expected formatted state, got: %s", text)
			}
		})
	}
}

func TestClient_history(t *testing.T) {
	api, client := newFakeAPI(t, map[string]interface{}{
		"GET /api/sessions/a1b2/history": service.HistoryResponse{
			Stops:       []engine.Vec2{{X: 1, Y: -1}, {X: 3, Y: -1}},
			Events:      []service.EventRecord{{Event: engine.Event{Type: engine.EventMoveStopped, Detail: "wall"}, Seq: 9}},
			TotalEvents: 30,
			Page:        2,
			TotalPages:  3,
			HasNext:     true,
		},
	})

	text, _ := call(t, client.handleHistory, map[string]interface{}{"session_id": "a1b2", "page": float64(2), "limit": float64(10)})
	if !strings.Contains(text, "(1,1) (3,1)") {
		t.Errorf("Expected stop positions, got: %s", text)
	}
	if !strings.Contains(text, "Page 2 of 3, Total: 30") || !strings.Contains(text, "#9") {
		t.Errorf("Expected paged events, got: %s", text)
	}
	if last := api.last(); !strings.Contains(last.Path, "limit=10") || !strings.Contains(last.Path, "page=2") {
		t.Errorf("Expected paging forwarded, got %s", last.Path)
	}
}

func TestClient_levels(t *testing.T) {
	_, client := newFakeAPI(t, map[string]interface{}{
		"GET /api/levels": []service.LevelInfo{
			{LevelID: "first-steps", Name: "First Steps", Width: 5, Height: 3, Tiles: 3},
		},
		"GET /api/levels/corner/solve": engine.Solution{Solvable: true, Path: []string{"right", "down"}, Explored: 12},
		"GET /api/levels/stuck/solve":  engine.Solution{Solvable: false, Explored: 4},
	})

	text, _ := call(t, client.handleListLevels, nil)
	if !strings.Contains(text, "0. First Steps (first-steps)") || !strings.Contains(text, "Grid: 5x3, Tiles: 3") {
		t.Errorf("Unexpected level list: %s", text)
	}

	text, _ = call(t, client.handleSolveLevel, map[string]interface{}{"level_id": "corner"})
	if !strings.Contains(text, "solved in 2 moves") || !strings.Contains(text, "right, down") {
		t.Errorf("Unexpected solution: %s", text)
	}

	text, _ = call(t, client.handleSolveLevel, map[string]interface{}{"level_id": "stuck"})
	if !strings.Contains(text, "no solution") {
		t.Errorf("Expected unsolvable report, got: %s", text)
	}
}

func TestFormatSnapshot(t *testing.T) {
	state := levelState()
	state.Paused = true
	state.Replay = engine.ReplayStatus{State: "rewinding", StepsTotal: 4, StepsCompleted: 1}

	result := formatSnapshot(state)
	for _, want := range []string{"Level 2/5: Corner", "Tiles left: 3/5", "Piece: (2,1) resting", "Replay: rewinding (1/4", "Paused", "#xxo#"} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in %s", want, result)
		}
	}

	if formatSnapshot(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	text, _ := call(t, client.handleGameInstructions, nil)
	for _, want := range []string{"GAME OBJECTIVE:", "GRID LEGEND:", "TIME:", "STRATEGY:"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in instructions", want)
		}
	}
}
