// Command tileslide starts the Tile Slide puzzle server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, metrics and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Every session is simulated by a single fixed-rate tick loop. Flags control
// host/port, the level directory, tuning, where level progress is persisted,
// audio output, debug logging, and optional ngrok tunneling.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/tileslide/api"
	"github.com/wricardo/mcp-training/tileslide/game/audio"
	"github.com/wricardo/mcp-training/tileslide/game/config"
	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/metrics"
	"github.com/wricardo/mcp-training/tileslide/game/service"
	"github.com/wricardo/mcp-training/tileslide/game/session"
	"github.com/wricardo/mcp-training/tileslide/logger"
	"github.com/wricardo/mcp-training/tileslide/transport/mcp"
	"github.com/wricardo/mcp-training/tileslide/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tile Slide Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelsDir    = flag.String("levels-dir", envDefault("LEVELS_DIR", "levels"), "Directory containing level files")
	staticDir    = flag.String("static-dir", os.Getenv("STATIC_DIR"), "Directory of web client files served at / (optional)")
	tuningPath   = flag.String("tuning", "", "Tuning YAML file (or use "+config.TuningEnv+" env var)")
	storeKind    = flag.String("store", envDefault("STORE", session.StoreFile), "Progress store: memory, file, badger or redis")
	storePath    = flag.String("store-path", os.Getenv("STORE_PATH"), "Progress file or badger directory")
	redisAddr    = flag.String("redis-addr", envDefault("REDIS_ADDR", "localhost:6379"), "Redis address for the redis store")
	tickHz       = flag.Int("tick-hz", 60, "Simulation ticks per second")
	adSeconds    = flag.Float64("ad-seconds", 0, "Seconds the simulated interstitial keeps a session paused (0 = no pause)")
	sessionTTL   = flag.Duration("session-ttl", 24*time.Hour, "Remove sessions idle for longer than this")
	audioEnabled = flag.Bool("audio", false, "Play sounds on the local speaker")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envDefault returns the environment value of key, or def when it is unset.
func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                         # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store badger -audio    # Persist progress in badger and play sounds\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp               # Run MCP stdio server\n", os.Args[0])
	}
}

// options is everything initializeServices needs, read from flags in main.
type options struct {
	LevelsDir  string
	TuningPath string
	Store      session.StoreConfig
	Audio      bool
	AdDuration float64
}

func optionsFromFlags() options {
	return options{
		LevelsDir:  *levelsDir,
		TuningPath: *tuningPath,
		Store: session.StoreConfig{
			Kind:          *storeKind,
			Path:          *storePath,
			RedisAddr:     *redisAddr,
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
		Audio:      *audioEnabled,
		AdDuration: *adSeconds,
	}
}

// app holds the long-lived services shared by every mode.
type app struct {
	Service  service.GameService
	Sessions *session.Manager
	Metrics  *metrics.Recorder

	store  session.Store
	output *audio.Output
	log    logrus.FieldLogger
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	// Stdout carries the MCP stdio protocol, so logs always go to stderr
	log := logger.New(os.Stderr, *debug)
	if envErr == nil {
		log.Debug("Loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		log.WithError(envErr).Warn("Error loading .env file")
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.WithFields(logrus.Fields{"version": Version, "mode": mode}).Infof("Starting %s", AppName)

	a, err := initializeServices(optionsFromFlags(), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runTickLoop(ctx, *tickHz, a.Service.TickAll, a.Metrics.ObserveTick)
	}()
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, a.Sessions, *sessionTTL, log)
	}()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(ctx, a, log)
	case "server", "http":
		runHTTPServer(ctx, a, log)
	default:
		log.Errorf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}

	stop()
	wg.Wait()
	log.Info("Server stopped")
}

// initializeServices opens the progress store and level pack and wires the
// game service with its collaborators.
func initializeServices(opts options, log logrus.FieldLogger) (*app, error) {
	levels, err := config.NewManager(opts.LevelsDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}
	if _, err := levels.Pack(); err != nil {
		return nil, fmt.Errorf("failed to load level pack: %w", err)
	}

	tuning, err := config.LoadTuning(opts.TuningPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tuning: %w", err)
	}

	store, err := session.OpenStore(opts.Store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}

	a := &app{store: store, log: log}
	a.Sessions = session.NewManager(log)
	a.Metrics = metrics.New(a.Sessions.Count)

	if opts.Audio {
		out, err := audio.OpenOutput()
		if err != nil {
			log.WithError(err).Warn("Audio output unavailable, continuing muted")
		} else {
			a.output = out
		}
	}
	bank := audio.NewBank()

	a.Service = service.NewGameService(a.Sessions, levels, service.Config{
		Tuning: tuning,
		Progress: func(profile string) engine.ProgressStore {
			return session.NewProgress(store, profile, log)
		},
		Audio: func() engine.Audio {
			return audio.NewPlayer(bank, a.output, log)
		},
		Observer:   a.Metrics,
		AdDuration: opts.AdDuration,
		Logger:     log,
	})
	return a, nil
}

// Close tears down sessions and releases the store and audio device.
func (a *app) Close() {
	a.Sessions.Close()
	if a.output != nil {
		a.output.Close()
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close progress store")
	}
}

// runTickLoop calls tick with a fixed delta hz times per second until ctx
// is done. observe receives the wall time each tick took.
func runTickLoop(ctx context.Context, hz int, tick func(dt float64), observe func(time.Duration)) {
	if hz <= 0 {
		hz = 60
	}
	dt := 1.0 / float64(hz)
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			tick(dt)
			if observe != nil {
				observe(time.Since(start))
			}
		}
	}
}

// newRouter mounts the API server at root and the MCP tools on /mcp.
func newRouter(apiServer http.Handler, mcpClient *mcp.Client, log logrus.FieldLogger) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			log.WithError(err).Error("Failed to marshal MCP response")
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mainRouter
}

// newAPIServer builds the REST API with a websocket hub subscribed to the
// service's events. The returned func unsubscribes the hub.
func newAPIServer(ctx context.Context, a *app, log logrus.FieldLogger) (*api.Server, func()) {
	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	unsubscribe := a.Service.Subscribe(hub.OnEvent)

	apiServer := api.NewServer(a.Service, hub, api.Options{
		Metrics:   a.Metrics.Handler(),
		StaticDir: *staticDir,
		Logger:    log,
	})
	return apiServer, unsubscribe
}

// runHTTPServer serves the REST API, WebSocket hub and /mcp endpoint until
// ctx is done. If ngrok is enabled (via flag or environment), it also
// provisions a public tunnel.
func runHTTPServer(ctx context.Context, a *app, log logrus.FieldLogger) {
	apiServer, unsubscribe := newAPIServer(ctx, a, log)
	defer unsubscribe()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(apiServer, mcpClient, log)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Infof("HTTP server listening on %s", addr)
		log.Infof("REST API: http://%s/api", addr)
		log.Infof("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Infof("MCP endpoint: http://%s/mcp", addr)
		log.Infof("Metrics: http://%s/metrics", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
		}
	}()

	if ngrokShouldRun() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, mainRouter, log)
		}()
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
}

// ngrokShouldRun checks the flag, then NGROK_ENABLED.
func ngrokShouldRun() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, handler http.Handler, log logrus.FieldLogger) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}
	if authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Info("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Infof("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	ngrokURL := tun.URL()
	log.Infof("Ngrok tunnel established: %s", ngrokURL)
	log.Infof("  REST API (ngrok): %s/api", ngrokURL)
	log.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Warn("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

// externalAPIAvailable reports whether a server already answers /health at baseURL.
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on host:port; if there is none, it
// starts an internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, a *app, log logrus.FieldLogger) {
	externalURL := fmt.Sprintf("http://%s:%d", *host, *port)
	baseURL := externalURL

	log.Infof("Checking for external API server at %s...", externalURL)
	if externalAPIAvailable(externalURL) {
		log.Infof("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.WithError(err).Error("Failed to get available port")
			return
		}
		internalAddr := listener.Addr().String()

		apiServer, unsubscribe := newAPIServer(ctx, a, log)
		defer unsubscribe()

		httpServer := &http.Server{Handler: apiServer}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Warn("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.Infof("Internal HTTP server on %s for MCP stdio", internalAddr)
		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.WithError(err).Error("MCP stdio server error")
	}
}
