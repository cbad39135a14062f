// Command autoplay clears levels on a running server through the REST API.
//
// It creates a session, reads the live grid, solves it from the piece's
// current cell and plays the moves, advancing the clock until the next level
// is loaded. It is a smoke test for a deployment as much as a demo.
//
//	autoplay -url http://localhost:8080 -levels 3
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
	"github.com/wricardo/mcp-training/tileslide/logger"
)

const (
	// settleSeconds is advanced after every move
	settleSeconds = 1.5
	// waitSeconds is advanced per poll while waiting for the next level
	waitSeconds = 2.0
	// maxWaits bounds polls per level before giving up
	maxWaits = 30
)

var (
	errStuck      = errors.New("level did not advance")
	errUnsolvable = errors.New("no solution from current position")
)

// Client drives one session over the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(data, result)
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// CreateSession starts a session for profile and remembers its id
func (c *Client) CreateSession(ctx context.Context, profile string) (*engine.Snapshot, error) {
	var info service.SessionInfo
	if err := c.call(ctx, http.MethodPost, "/api/sessions", map[string]string{"profile": profile}, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return info.State, nil
}

// State returns the current snapshot
func (c *Client) State(ctx context.Context) (*engine.Snapshot, error) {
	var state engine.Snapshot
	if err := c.call(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Move requests a slide
func (c *Client) Move(ctx context.Context, dir string) (*service.MoveResult, error) {
	var res service.MoveResult
	err := c.call(ctx, http.MethodPost, c.sessionPath("/move"), map[string]string{"direction": dir}, &res)
	return &res, err
}

// Advance runs the session clock forward
func (c *Client) Advance(ctx context.Context, seconds float64) (*engine.Snapshot, error) {
	var res service.AdvanceResult
	if err := c.call(ctx, http.MethodPost, c.sessionPath("/advance"), map[string]float64{"seconds": seconds}, &res); err != nil {
		return nil, err
	}
	return res.State, nil
}

// Skip fast-forwards a running replay
func (c *Client) Skip(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, c.sessionPath("/skip"), nil, nil)
}

// layoutFromGrid turns a rendered grid back into a level layout whose
// spawn is the piece and whose tiles are the ones still standing.
func layoutFromGrid(grid []string) []string {
	layout := make([]string, len(grid))
	for i, row := range grid {
		layout[i] = strings.Map(func(r rune) rune {
			switch r {
			case engine.CellBrokenMark:
				return engine.CellVoidAlt
			case engine.CellPieceMark:
				return engine.CellStartBare
			default:
				return r
			}
		}, row)
	}
	return layout
}

// planMoves solves the level as it stands in state.
func planMoves(state *engine.Snapshot) ([]string, error) {
	level, err := engine.BuildLevel(&engine.LevelConfig{
		Name:   state.LevelName,
		Layout: layoutFromGrid(state.Grid),
	}, state.LevelIndex)
	if err != nil {
		return nil, err
	}
	sol, err := engine.Solve(level)
	if err != nil {
		return nil, err
	}
	if !sol.Solvable {
		return nil, fmt.Errorf("%w: %s", errUnsolvable, state.LevelName)
	}
	return sol.Path, nil
}

// ready reports whether the session accepts input
func ready(state *engine.Snapshot) bool {
	return state.InputEnabled && !state.Paused && state.Piece != nil && !state.Piece.Moving
}

// Player clears levels with a Client
type Player struct {
	client *Client
	log    logrus.FieldLogger
}

// waitUntil advances and skips until done reports true.
func (p *Player) waitUntil(ctx context.Context, state *engine.Snapshot, done func(*engine.Snapshot) bool) (*engine.Snapshot, error) {
	for i := 0; !done(state); i++ {
		if i >= maxWaits {
			return state, errStuck
		}
		if state.Replay.SkipEnabled && !state.Replay.SkipRequested {
			if err := p.client.Skip(ctx); err != nil {
				p.log.WithError(err).Debug("Skip refused")
			}
		}
		var err error
		if state, err = p.client.Advance(ctx, waitSeconds); err != nil {
			return state, err
		}
	}
	return state, nil
}

// ClearLevel plays the current level to completion and returns the state
// after the next level is loaded.
func (p *Player) ClearLevel(ctx context.Context, state *engine.Snapshot) (*engine.Snapshot, error) {
	state, err := p.waitUntil(ctx, state, ready)
	if err != nil {
		return state, err
	}

	instance := state.Instance
	moves, err := planMoves(state)
	if err != nil {
		return state, err
	}
	log := p.log.WithFields(logrus.Fields{"level": state.LevelName, "moves": len(moves)})
	log.Info("Playing level")

	for _, dir := range moves {
		res, err := p.client.Move(ctx, dir)
		if err != nil {
			return state, err
		}
		if !res.Accepted {
			return state, fmt.Errorf("move %s rejected: %s", dir, res.Message)
		}
		if state, err = p.client.Advance(ctx, settleSeconds); err != nil {
			return state, err
		}
	}

	state, err = p.waitUntil(ctx, state, func(s *engine.Snapshot) bool {
		return s.Instance != instance && s.Replay.State == engine.ReplayIdle.String()
	})
	if err != nil {
		return state, fmt.Errorf("%s: %w", log.Data["level"], err)
	}
	log.WithField("next", state.LevelName).Info("Level cleared")
	return state, nil
}

// Play creates a session and clears count levels. count <= 0 plays the
// whole pack once.
func (p *Player) Play(ctx context.Context, profile string, count int) (*engine.Snapshot, error) {
	state, err := p.client.CreateSession(ctx, profile)
	if err != nil {
		return nil, err
	}
	if state == nil {
		if state, err = p.client.State(ctx); err != nil {
			return nil, err
		}
	}
	if count <= 0 {
		count = state.LevelCount
	}
	p.log.WithFields(logrus.Fields{"session": p.client.sessionID, "levels": count}).Info("Session started")

	for i := 0; i < count; i++ {
		if state, err = p.ClearLevel(ctx, state); err != nil {
			return state, err
		}
	}
	return state, nil
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Server base URL")
	levels := flag.Int("levels", 0, "Levels to clear (0 = whole pack)")
	profile := flag.String("profile", "autoplay", "Player profile")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := logger.New(os.Stderr, *debug)
	p := &Player{client: NewClient(*baseURL), log: log}

	start := time.Now()
	state, err := p.Play(context.Background(), *profile, *levels)
	if err != nil {
		log.WithError(err).Fatal("Autoplay failed")
	}
	log.WithFields(logrus.Fields{
		"session":  p.client.sessionID,
		"level":    state.LevelIndex,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Done")
}
