package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/tileslide/game/session"
	"github.com/wricardo/mcp-training/tileslide/logger"
	"github.com/wricardo/mcp-training/tileslide/transport/mcp"
)

func testOptions() options {
	return options{
		LevelsDir: "levels",
		Store:     session.StoreConfig{Kind: session.StoreMemory},
	}
}

func newTestApp(t *testing.T, opts options) *app {
	t.Helper()
	a, err := initializeServices(opts, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Tile Slide Server" {
		t.Errorf("Expected app name %q, got %q", "Tile Slide Server", AppName)
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}
	if *host == "" {
		t.Error("Host should have a default value")
	}
	if *levelsDir == "" {
		t.Error("Levels directory should have a default value")
	}
	if *tickHz <= 0 {
		t.Errorf("Invalid default tick rate: %d", *tickHz)
	}
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("TILESLIDE_TEST_VALUE", "")
	assert.Equal(t, "fallback", envDefault("TILESLIDE_TEST_VALUE", "fallback"))

	t.Setenv("TILESLIDE_TEST_VALUE", "set")
	assert.Equal(t, "set", envDefault("TILESLIDE_TEST_VALUE", "fallback"))
}

func TestInitializeServices(t *testing.T) {
	a := newTestApp(t, testOptions())

	info, err := a.Service.CreateSession(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Profile)
	assert.Equal(t, 1, a.Sessions.Count())

	levels, err := a.Service.ListLevels(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, levels)
}

func TestInitializeServices_FileStore(t *testing.T) {
	opts := testOptions()
	opts.Store = session.StoreConfig{
		Kind: session.StoreFile,
		Path: filepath.Join(t.TempDir(), "progress.json"),
	}
	newTestApp(t, opts)
}

func TestInitializeServices_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *options)
		want   string
	}{
		{"missing levels dir", func(o *options) { o.LevelsDir = "/non/existent/path" }, "level manager"},
		{"unknown store", func(o *options) { o.Store.Kind = "tape" }, "progress store"},
		{"missing tuning file", func(o *options) { o.TuningPath = "/non/existent/tuning.yaml" }, "tuning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.modify(&opts)
			_, err := initializeServices(opts, logger.Discard())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunTickLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var (
		mu       sync.Mutex
		ticks    int
		observed int
		lastDT   float64
	)
	runTickLoop(ctx, 200,
		func(dt float64) {
			mu.Lock()
			defer mu.Unlock()
			ticks++
			lastDT = dt
		},
		func(time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			observed++
		},
	)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, ticks, 0)
	assert.Equal(t, ticks, observed)
	assert.InDelta(t, 1.0/200, lastDT, 1e-12)
}

func TestRunTickLoop_AdvancesSessions(t *testing.T) {
	a := newTestApp(t, testOptions())
	info, err := a.Service.CreateSession(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	runTickLoop(ctx, 100, a.Service.TickAll, a.Metrics.ObserveTick)

	state, err := a.Service.GetState(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Greater(t, state.Elapsed, 0.0)
}

func TestSessionCleanupRoutine_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sessionCleanupRoutine(ctx, session.NewManager(logger.Discard()), time.Hour, logger.Discard())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup routine did not stop")
	}
}

func TestExternalAPIAvailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	assert.True(t, externalAPIAvailable(ts.URL))

	ts.Close()
	assert.False(t, externalAPIAvailable(ts.URL))
}

func TestRouter(t *testing.T) {
	a := newTestApp(t, testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer, unsubscribe := newAPIServer(ctx, a, logger.Discard())
	defer unsubscribe()

	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	defer ts.Close()
	handler = newRouter(apiServer, mcp.NewClient(ts.URL), logger.Discard())

	post := func(t *testing.T, path, body string) (*http.Response, string) {
		t.Helper()
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		var sb strings.Builder
		_, err = sb.ReadFrom(resp.Body)
		require.NoError(t, err)
		return resp, sb.String()
	}

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("mcp rejects GET", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/mcp")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("mcp initialize", func(t *testing.T) {
		resp, body := post(t, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Contains(t, body, "Tile Slide")
	})

	t.Run("mcp tool reaches the service", func(t *testing.T) {
		before := a.Sessions.Count()
		resp, _ := post(t, "/mcp", `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"create_session","arguments":{"profile":"bot"}}}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, before+1, a.Sessions.Count())
	})
}
