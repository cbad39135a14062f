package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/tileslide/api"
	"github.com/wricardo/mcp-training/tileslide/game/config"
	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
	"github.com/wricardo/mcp-training/tileslide/game/session"
	"github.com/wricardo/mcp-training/tileslide/logger"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	levels, err := config.NewManager("../../levels", log)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	sessions := session.NewManager(log)
	t.Cleanup(sessions.Close)

	svc := service.NewGameService(sessions, levels, service.Config{
		Tuning: engine.DefaultTuning(),
		Progress: func(profile string) engine.ProgressStore {
			return session.NewProgress(store, profile, log)
		},
		AdDuration: 1,
		Logger:     log,
	})
	ts := httptest.NewServer(api.NewServer(svc, nil, api.Options{Logger: log}))
	t.Cleanup(ts.Close)
	return ts
}

func TestLayoutFromGrid(t *testing.T) {
	grid := []string{
		"#####",
		"#xo.#",
		"#####",
	}
	assert.Equal(t, []string{
		"#####",
		"#-s.#",
		"#####",
	}, layoutFromGrid(grid))
}

func TestPlanMoves(t *testing.T) {
	state := &engine.Snapshot{
		LevelName: "corner",
		Grid: []string{
			"#####",
			"#o..#",
			"###.#",
			"###.#",
			"#####",
		},
	}
	moves, err := planMoves(state)
	require.NoError(t, err)
	assert.Equal(t, []string{"right", "down"}, moves)
}

func TestPlanMoves_Unsolvable(t *testing.T) {
	state := &engine.Snapshot{
		LevelName: "blocked",
		Grid: []string{
			"#####",
			"#o#.#",
			"#####",
		},
	}
	_, err := planMoves(state)
	assert.ErrorIs(t, err, errUnsolvable)
}

func TestPlay_ClearsWholePack(t *testing.T) {
	ts := startServer(t)
	p := &Player{client: NewClient(ts.URL + "/"), log: logger.Discard()}

	state, err := p.Play(context.Background(), "bot", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, p.client.sessionID)
	assert.Equal(t, 0, state.LevelIndex, "pack wraps back to the first level")
}

func TestPlay_PartialPack(t *testing.T) {
	ts := startServer(t)
	p := &Player{client: NewClient(ts.URL), log: logger.Discard()}

	state, err := p.Play(context.Background(), "bot", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, state.LevelIndex)
}

func TestClient_Errors(t *testing.T) {
	ts := startServer(t)
	c := NewClient(ts.URL)
	c.sessionID = "nope"

	_, err := c.State(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
