package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
	"github.com/wricardo/mcp-training/tileslide/transport/websocket"
)

// Options configures optional server endpoints
type Options struct {
	// Metrics is served on /metrics and /api/metrics when set
	Metrics http.Handler
	// StaticDir is served under / when set
	StaticDir string
	Logger    logrus.FieldLogger
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	opts    Options
	log     logrus.FieldLogger
}

// NewServer creates a new API server. hub may be nil, in which case /ws is
// not served.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		opts:    opts,
		log:     log.WithField("component", "api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Must be registered before the {id} pattern
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/swipe", s.handleSwipe).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/skip", s.handleSkip).Methods("POST")
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/sessions/{id}/panel", s.handlePanel).Methods("POST")
	api.HandleFunc("/sessions/{id}/advance", s.handleAdvance).Methods("POST")
	api.HandleFunc("/sessions/{id}/level", s.handleActivateLevel).Methods("POST")
	api.HandleFunc("/sessions/{id}/replace-piece", s.handleReplacePiece).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset-progress", s.handleResetProgress).Methods("POST")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")
	api.HandleFunc("/levels/{name}/solve", s.handleSolveLevel).Methods("GET")

	if s.opts.Metrics != nil {
		api.Handle("/metrics", s.opts.Metrics).Methods("GET")
		s.router.Handle("/metrics", s.opts.Metrics).Methods("GET")
	}

	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.opts.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// The upgrader needs the raw writer's Hijacker
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("Request served")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrLevelNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidDirection),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, engine.ErrInvalidLevelIndex):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, engine.ErrReplayInProgress), errors.Is(err, engine.ErrNoPiece):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body into v. An empty body is valid.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) pushState(sessionID string, state *engine.Snapshot) {
	if s.hub != nil {
		s.hub.BroadcastState(sessionID, state)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profile string `json:"profile,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.Profile)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// handleUnifiedSessions returns several sessions' states in one call, for
// dashboards watching many players
func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	var sessions []*service.SessionInfo

	if ids := r.URL.Query().Get("sessionIds"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			session, err := s.service.GetSession(r.Context(), id)
			if err != nil {
				continue
			}
			sessions = append(sessions, session)
		}
	} else {
		all, err := s.service.ListSessions(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		sessions = all
	}

	summaries := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		summary := map[string]interface{}{
			"id":            session.ID,
			"profile":       session.Profile,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessedAt,
		}
		if st := session.State; st != nil {
			summary["level_index"] = st.LevelIndex
			summary["level_name"] = st.LevelName
			summary["remaining_tiles"] = st.RemainingTiles
			summary["replay"] = st.Replay.State
			summary["paused"] = st.Paused
		}
		summaries = append(summaries, summary)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(summaries),
		"sessions": summaries,
	})
}

// Game Operation Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Start *engine.Vec2 `json:"start"`
		End   *engine.Vec2 `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Start == nil || req.End == nil {
		respondError(w, http.StatusBadRequest, "start and end are required")
		return
	}

	result, err := s.service.Swipe(r.Context(), sessionID, *req.Start, *req.End)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.pushState(sessionID, result.State)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req.Direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.pushState(sessionID, result.State)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.Skip(r.Context(), sessionID)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	req := struct {
		Paused *bool `json:"paused"`
	}{}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	paused := true
	if req.Paused != nil {
		paused = *req.Paused
	}

	result, err := s.service.SetPaused(r.Context(), sessionID, paused)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.SetPanelOpen(r.Context(), sessionID, req.Open)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		DT      float64 `json:"dt,omitempty"`
		Steps   int     `json:"steps,omitempty"`
		Seconds float64 `json:"seconds,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Seconds < 0 {
		respondError(w, http.StatusBadRequest, "seconds must not be negative")
		return
	}
	// seconds is shorthand for enough default-length steps to cover it
	if req.Seconds > 0 && req.Steps == 0 {
		dt := req.DT
		if dt == 0 {
			dt = service.DefaultStepDT
		}
		req.DT = dt
		req.Steps = int(req.Seconds/dt + 0.5)
	}

	result, err := s.service.Advance(r.Context(), sessionID, req.DT, req.Steps)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.pushState(sessionID, result.State)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleActivateLevel(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Index == nil {
		respondError(w, http.StatusBadRequest, "index is required")
		return
	}

	result, err := s.service.ActivateLevel(r.Context(), sessionID, *req.Index)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleReplacePiece(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.ReplacePiece(r.Context(), sessionID)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.ResetProgress(r.Context(), sessionID)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) respondAction(w http.ResponseWriter, sessionID string, result *service.ActionResult, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.pushState(sessionID, result.State)
	respondJSON(w, http.StatusOK, result)
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, levels)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")
	level, err := s.service.LoadLevel(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, level)
}

func (s *Server) handleSolveLevel(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")
	solution, err := s.service.SolveLevel(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, solution)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
