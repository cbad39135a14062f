package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tile Slide",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tile Slide - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide the piece (o) across every path tile (.) of a level. A slide keeps
going until the piece hits a wall (#) and breaks every tile it crosses.
Clearing the last tile plays a rewind replay, then the next level starts.

Time only moves when you call advance_time. After a move, advance about one
second so the slide can finish before the next move.

AVAILABLE TOOLS:
- create_session, get_session, list_sessions: session management
- game_state: current level grid and piece
- move: slide up/down/left/right (explain your intent)
- swipe: raw gesture in screen units, y grows upward
- advance_time: run the simulation forward
- skip_replay: fast-forward the level-complete replay
- pause, select_level, replace_piece, reset_progress: controls
- history: stop positions and recent events
- list_levels, solve_level: level pack tools
- game_instructions: full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnly(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. Progress is saved per profile, so reusing a profile resumes its last level.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile": map[string]interface{}{
					"type":        "string",
					"description": "Player profile (optional, defaults to \"default\")",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(sessionOnly("get_session", "Get details of a specific session"), c.handleGetSession)
	c.mcpServer.AddTool(sessionOnly("game_state", "Get the current level grid, piece and replay status"), c.handleGameState)

	// Play
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide the piece in a direction. The slide runs until a wall, so advance time afterwards.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"settle": map[string]interface{}{
					"type":        "boolean",
					"description": "Advance time until the slide finishes before returning (default true)",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "swipe",
		Description: "Feed a raw swipe gesture. Coordinates are screen units with y growing upward; short swipes are ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"start_x":    map[string]interface{}{"type": "number"},
				"start_y":    map[string]interface{}{"type": "number"},
				"end_x":      map[string]interface{}{"type": "number"},
				"end_y":      map[string]interface{}{"type": "number"},
			},
			Required: []string{"session_id", "start_x", "start_y", "end_x", "end_y"},
		},
	}, c.handleSwipe)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance_time",
		Description: "Run the simulation forward",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"seconds": map[string]interface{}{
					"type":        "number",
					"description": "Simulated seconds to advance (default 1)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAdvance)

	c.mcpServer.AddTool(sessionOnly("skip_replay", "Fast-forward the level-complete rewind replay"), c.handleSkip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause",
		Description: "Pause or resume the game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"paused": map[string]interface{}{
					"type":        "boolean",
					"description": "true to pause, false to resume",
				},
			},
			Required: []string{"session_id", "paused"},
		},
	}, c.handlePause)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_level",
		Description: "Jump to a level by its 0-based index in the pack",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Level index",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleSelectLevel)

	c.mcpServer.AddTool(sessionOnly("replace_piece", "Respawn the piece where it stands and restart its stop history"), c.handleReplacePiece)
	c.mcpServer.AddTool(sessionOnly("reset_progress", "Forget the saved level for this session's profile"), c.handleResetProgress)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "history",
		Description: "Get the stop positions of the current level and recent events",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHistory)

	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List the level pack in play order",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_level",
		Description: "Find the shortest slide sequence that clears a level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Level identifier from list_levels",
				},
			},
			Required: []string{"level_id"},
		},
	}, c.handleSolveLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) string {
	id, _ := args["session_id"].(string)
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]string{}
	if profile, _ := args["profile"].(string); profile != "" {
		body["profile"] = profile
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nProfile: %s\n\n%s", session.ID, session.Profile, formatSnapshot(session.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		level := "-"
		if s.State != nil {
			level = fmt.Sprintf("%d/%d %s", s.State.LevelIndex+1, s.State.LevelCount, s.State.LevelTitle)
		}
		fmt.Fprintf(&b, "- %s (Profile: %s, Level: %s, Created: %s)\n",
			s.ID, s.Profile, level, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(arguments(request), ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(arguments(request), "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSnapshot(&state)), nil
}

// settleSeconds is how long move advances the clock when settle is on. It
// covers a slide across the largest level at the default speed.
const settleSeconds = 1.5

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	direction, _ := args["direction"].(string)
	settle := true
	if v, ok := args["settle"].(bool); ok {
		settle = v
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(args, "/move"), map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatMoveResult(&result)
	if settle && result.Accepted {
		var adv service.AdvanceResult
		if err := c.apiCall(ctx, "POST", sessionPath(args, "/advance"), map[string]float64{"seconds": settleSeconds}, &adv); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		response = formatMoveResult(&service.MoveResult{
			Accepted:  true,
			Direction: result.Direction,
			Message:   result.Message,
			State:     adv.State,
			Events:    append(result.Events, adv.Events...),
		})
	}
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleSwipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	num := func(key string) float64 {
		v, _ := args[key].(float64)
		return v
	}
	body := map[string]engine.Vec2{
		"start": {X: num("start_x"), Y: num("start_y")},
		"end":   {X: num("end_x"), Y: num("end_y")},
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(args, "/swipe"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	seconds, ok := args["seconds"].(float64)
	if !ok {
		seconds = 1
	}

	var result service.AdvanceResult
	if err := c.apiCall(ctx, "POST", sessionPath(args, "/advance"), map[string]float64{"seconds": seconds}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := fmt.Sprintf("Advanced %d steps (%.2fs simulated, %.2fs total)\n", result.Steps, float64(result.Steps)*result.DT, result.Elapsed)
	response += formatEvents(result.Events)
	response += "\n" + formatSnapshot(result.State)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleSkip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, sessionPath(arguments(request), "/skip"), nil)
}

func (c *Client) handlePause(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	paused, _ := args["paused"].(bool)
	return c.action(ctx, sessionPath(args, "/pause"), map[string]bool{"paused": paused})
}

func (c *Client) handleSelectLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	index, ok := args["index"].(float64)
	if !ok {
		return mcp.NewToolResultError("index is required"), nil
	}
	return c.action(ctx, sessionPath(args, "/level"), map[string]int{"index": int(index)})
}

func (c *Client) handleReplacePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, sessionPath(arguments(request), "/replace-piece"), nil)
}

func (c *Client) handleResetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, sessionPath(arguments(request), "/reset-progress"), nil)
}

func (c *Client) action(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	query := url.Values{}
	if page, ok := args["page"].(float64); ok {
		query.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		query.Set("limit", fmt.Sprint(int(limit)))
	}
	path := sessionPath(args, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for i, l := range levels {
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n   Grid: %dx%d, Tiles: %d\n\n",
			i, l.Name, l.LevelID, l.Description, l.Width, l.Height, l.Tiles)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleSolveLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, _ := args["level_id"].(string)
	if id == "" {
		return mcp.NewToolResultError("level_id is required"), nil
	}

	var solution engine.Solution
	if err := c.apiCall(ctx, "GET", "/api/levels/"+url.PathEscape(id)+"/solve", nil, &solution); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSolution(id, &solution)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Tile Slide - Complete Instructions

GAME OBJECTIVE:
Break every path tile of a level by sliding the piece over it.

GAME MECHANICS:
- A move slides the piece in one direction until the next cell is a wall
  or off the level. It cannot stop halfway.
- Every tile the piece crosses or stops on breaks. Broken tiles stay broken
  for the rest of the level.
- When the last tile breaks the level is complete. The piece rewinds along
  every place it stopped, the camera zooms out and back, then the next level
  loads. Use skip_replay to hurry the rewind.
- Every second completed level shows a short interstitial that pauses play.
- Progress is saved per profile. A new session on the same profile starts
  at the last level reached.

GRID LEGEND:
- o  the piece
- .  unbroken path tile
- x  broken tile
- #  wall
- (space) void, holds no tile; the piece slides straight across it

TIME:
The simulation only runs when time advances. move advances time for you
unless settle is false; swipe does not. A slide at default speed covers
roughly ten cells per second.

STRATEGY:
- Plan routes where each stop is against a wall. A slide with no wall
  ahead carries the piece off the level.
- Dead ends are common. select_level with the current index restarts the
  level with every tile restored.
- solve_level returns a shortest solution when you are stuck.

Good luck!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nProfile: %s\nCreated: %s\n\n%s",
		session.ID, session.Profile,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSnapshot(session.State))
}

func formatSnapshot(state *engine.Snapshot) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Level %d/%d: %s | Tiles left: %d/%d\n",
		state.LevelIndex+1, state.LevelCount, state.LevelTitle, state.RemainingTiles, state.TotalTiles)

	if p := state.Piece; p != nil {
		status := "resting"
		if p.Moving {
			status = "moving " + p.LastDirection
		}
		fmt.Fprintf(&b, "Piece: %s %s\n", cellString(p.Position), status)
	}
	if state.Replay.State != engine.ReplayIdle.String() {
		fmt.Fprintf(&b, "Replay: %s (%d/%d rewind steps)\n",
			state.Replay.State, state.Replay.StepsCompleted, state.Replay.StepsTotal)
	}
	if state.Paused {
		b.WriteString("Paused\n")
	}

	b.WriteString("\n")
	for _, row := range state.Grid {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// cellString prints a level position as (column,row) of the layout
func cellString(p engine.Vec2) string {
	c := engine.CellAt(p)
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

func formatEvents(events []service.EventRecord) string {
	if len(events) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Events:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s", ev.Type)
		if ev.Direction != "" {
			fmt.Fprintf(&b, " %s", ev.Direction)
		}
		if ev.Position != nil {
			fmt.Fprintf(&b, " at %s", cellString(*ev.Position))
		}
		if ev.Detail != "" {
			fmt.Fprintf(&b, ": %s", ev.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var response string
	if result.Accepted {
		response = "✓ " + result.Message + "\n"
	} else {
		response = "✗ " + result.Message + "\n"
	}
	response += formatEvents(result.Events)
	response += "\n" + formatSnapshot(result.State)
	return response
}

func formatActionResult(result *service.ActionResult) string {
	mark := "✓"
	if !result.Success {
		mark = "✗"
	}
	return fmt.Sprintf("%s %s\n%s\n%s", mark, result.Message, formatEvents(result.Events), formatSnapshot(result.State))
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString("Stops this level:")
	for _, p := range history.Stops {
		fmt.Fprintf(&b, " %s", cellString(p))
	}
	fmt.Fprintf(&b, "\n\nEvents (Page %d of %d, Total: %d):\n", history.Page, history.TotalPages, history.TotalEvents)
	for _, ev := range history.Events {
		fmt.Fprintf(&b, "#%d %s %s", ev.Seq, ev.Timestamp.Format("15:04:05"), ev.Type)
		if ev.Detail != "" {
			fmt.Fprintf(&b, " (%s)", ev.Detail)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		b.WriteString("\nMore events on the next page.\n")
	}
	return b.String()
}

func formatSolution(id string, solution *engine.Solution) string {
	if !solution.Solvable {
		return fmt.Sprintf("%s has no solution (%d states explored)", id, solution.Explored)
	}
	if len(solution.Path) == 0 {
		return fmt.Sprintf("%s is already clear", id)
	}
	return fmt.Sprintf("%s solved in %d moves (%d states explored):\n%s",
		id, len(solution.Path), solution.Explored, strings.Join(solution.Path, ", "))
}
