package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session closed")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrLevelNotFound    = errors.New("level not found")
	ErrInvalidArgument  = errors.New("invalid argument")
)

const (
	// DefaultStepDT is the tick length used by Advance when dt is omitted
	DefaultStepDT = 1.0 / 60
	// MaxAdvanceSteps bounds a single Advance call
	MaxAdvanceSteps = 36000
	// DefaultProfile is used when a session is created without one
	DefaultProfile = "default"
)

// Config carries the collaborators a GameService builds games with. Only
// Tuning is required.
type Config struct {
	Tuning     engine.Tuning
	Progress   ProgressFactory
	Audio      AudioFactory
	Observer   engine.Observer
	AdDuration float64
	Logger     logrus.FieldLogger
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	cfg      Config
	log      logrus.FieldLogger

	subsMu sync.RWMutex
	subs   map[int]EventHandler
	nextID int
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager, cfg Config) GameService {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		cfg:      cfg,
		log:      log.WithField("component", "service"),
		subs:     make(map[int]EventHandler),
	}
}

// CreateSession builds a game over the whole level pack and starts it at
// the profile's persisted level
func (s *gameServiceImpl) CreateSession(ctx context.Context, profile string) (*SessionInfo, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = DefaultProfile
	}

	configs, err := s.levels.Pack()
	if err != nil {
		return nil, fmt.Errorf("failed to load level pack: %w", err)
	}
	levels, err := engine.BuildLevels(configs)
	if err != nil {
		return nil, fmt.Errorf("failed to build levels: %w", err)
	}

	var sess *Session
	forward := engine.ObserverFunc(func(ev engine.Event) {
		if sess == nil {
			return
		}
		rec := sess.Record(ev)
		s.dispatch(sess.ID, rec)
	})
	currentLevel := func() int {
		if sess == nil || sess.Game == nil {
			return 0
		}
		return sess.Game.Sequencer().CurrentIndex()
	}

	log := s.log.WithField("profile", profile)
	bus := engine.NewPauseBus()
	ads := NewInterstitial(bus, s.cfg.AdDuration, log)
	updaters := []engine.Updater{ads}

	var audio engine.Audio
	if s.cfg.Audio != nil {
		audio = s.cfg.Audio()
		if u, ok := audio.(engine.Updater); ok {
			updaters = append(updaters, u)
		}
	}
	var progress engine.ProgressStore
	if s.cfg.Progress != nil {
		progress = s.cfg.Progress(profile)
	}

	game, err := engine.NewGame(engine.Options{
		Tuning:   s.cfg.Tuning,
		Levels:   levels,
		Audio:    audio,
		Ads:      ads,
		Camera:   &engine.ViewCamera{},
		HUD:      engine.NewPanelHUD(),
		Effects:  &effectRelay{observer: forward, level: currentLevel},
		Progress: progress,
		Pause:    bus,
		Observer: engine.Observers(forward, s.cfg.Observer),
		Updaters: updaters,
		Logger:   log,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	created, err := s.sessions.Create("", profile, game)
	if err != nil {
		game.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// TickAll can reach the session as soon as Create returns
	created.Lock()
	sess = created
	err = game.Start()
	created.Unlock()
	if err != nil {
		_ = s.sessions.Delete(sess.ID)
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	s.log.WithFields(logrus.Fields{"session": sess.ID, "profile": profile, "levels": len(levels)}).Info("Session created")
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	var info *SessionInfo
	err := s.withSession(sessionID, func(sess *Session) error {
		info = s.infoLocked(sess)
		return nil
	})
	return info, err
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session and tears its game down
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.log.WithField("session", sessionID).Info("Session deleted")
	return nil
}

// Swipe feeds a completed gesture to the session's game
func (s *gameServiceImpl) Swipe(ctx context.Context, sessionID string, start, end engine.Vec2) (*MoveResult, error) {
	var result *MoveResult
	err := s.withSession(sessionID, func(sess *Session) error {
		sess.beginCapture()
		accepted := sess.Game.Swipe(engine.Gesture{Start: start, End: end})
		result = s.moveResult(sess, accepted)
		return nil
	})
	return result, err
}

// Move slides the piece in direction without a gesture
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	dir, ok := engine.ParseDirection(direction)
	if !ok {
		return nil, fmt.Errorf("%w: %q (use up, down, left or right)", ErrInvalidDirection, direction)
	}
	var result *MoveResult
	err := s.withSession(sessionID, func(sess *Session) error {
		sess.beginCapture()
		accepted := sess.Game.Slide(dir)
		result = s.moveResult(sess, accepted)
		return nil
	})
	return result, err
}

// Skip presses the replay skip control
func (s *gameServiceImpl) Skip(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.action(sessionID, func(g *engine.Game) (bool, string, error) {
		if g.Skip() {
			return true, "Rewind accelerated", nil
		}
		return false, "Skip not available", nil
	})
}

// SetPaused publishes the paused flag on the session's pause bus
func (s *gameServiceImpl) SetPaused(ctx context.Context, sessionID string, paused bool) (*ActionResult, error) {
	return s.action(sessionID, func(g *engine.Game) (bool, string, error) {
		g.SetPaused(paused)
		return true, pausedMessage(paused), nil
	})
}

// SetPanelOpen opens or closes the options panel, which pauses and stops time
func (s *gameServiceImpl) SetPanelOpen(ctx context.Context, sessionID string, open bool) (*ActionResult, error) {
	return s.action(sessionID, func(g *engine.Game) (bool, string, error) {
		g.SetPanelOpen(open)
		if open {
			return true, "Panel opened", nil
		}
		return true, "Panel closed", nil
	})
}

// Advance ticks the session's game steps times by dt seconds
func (s *gameServiceImpl) Advance(ctx context.Context, sessionID string, dt float64, steps int) (*AdvanceResult, error) {
	if dt < 0 {
		return nil, fmt.Errorf("%w: dt must not be negative: %v", ErrInvalidArgument, dt)
	}
	if dt == 0 {
		dt = DefaultStepDT
	}
	if steps <= 0 {
		steps = 1
	}
	if steps > MaxAdvanceSteps {
		steps = MaxAdvanceSteps
	}

	var result *AdvanceResult
	err := s.withSession(sessionID, func(sess *Session) error {
		sess.beginCapture()
		for i := 0; i < steps; i++ {
			if err := ctx.Err(); err != nil {
				sess.endCapture()
				return err
			}
			sess.Game.Tick(dt)
		}
		state := sess.Game.Snapshot()
		result = &AdvanceResult{
			Steps:   steps,
			DT:      dt,
			Elapsed: state.Elapsed,
			State:   state,
			Events:  sess.endCapture(),
		}
		return nil
	})
	return result, err
}

// ActivateLevel jumps the session to level index
func (s *gameServiceImpl) ActivateLevel(ctx context.Context, sessionID string, index int) (*ActionResult, error) {
	return s.action(sessionID, func(g *engine.Game) (bool, string, error) {
		if err := g.ActivateLevel(index); err != nil {
			return false, "", err
		}
		return true, fmt.Sprintf("Level %d activated", index+1), nil
	})
}

// ReplacePiece respawns the piece where it stands
func (s *gameServiceImpl) ReplacePiece(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.action(sessionID, func(g *engine.Game) (bool, string, error) {
		if err := g.ReplacePiece(); err != nil {
			return false, "", err
		}
		return true, "Piece replaced", nil
	})
}

// ResetProgress clears the persisted level index of the session's profile
func (s *gameServiceImpl) ResetProgress(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.action(sessionID, func(g *engine.Game) (bool, string, error) {
		if err := g.ResetProgress(); err != nil {
			return false, "", err
		}
		return true, "Progress reset", nil
	})
}

// GetState returns a snapshot of the session's game
func (s *gameServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	var state *engine.Snapshot
	err := s.withSession(sessionID, func(sess *Session) error {
		state = sess.Game.Snapshot()
		return nil
	})
	return state, err
}

// GetHistory returns the recorded stops and a page of recent events
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	var (
		stops  []engine.Vec2
		events []EventRecord
		total  int
	)
	err := s.withSession(sessionID, func(sess *Session) error {
		stops = sess.Game.Sequencer().History()
		events = sess.Events()
		total = sess.events.total()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	retained := len(events)
	totalPages := (retained + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}
	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > retained {
		end = retained
	}

	page := []EventRecord{}
	if opts.Order == "desc" {
		for i := retained - 1 - start; i >= 0 && i >= retained-end; i-- {
			page = append(page, events[i])
		}
	} else if start < retained {
		page = append(page, events[start:end]...)
	}

	return &HistoryResponse{
		Stops:       stops,
		Events:      page,
		TotalEvents: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLevels lists the level pack
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads one level file
func (s *gameServiceImpl) LoadLevel(ctx context.Context, name string) (*engine.LevelConfig, error) {
	return s.levels.LoadLevel(name)
}

// SolveLevel searches for a slide sequence breaking every tile of a level
func (s *gameServiceImpl) SolveLevel(ctx context.Context, name string) (*engine.Solution, error) {
	cfg, err := s.levels.LoadLevel(name)
	if err != nil {
		return nil, err
	}
	level, err := engine.BuildLevel(cfg, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build level %s: %w", name, err)
	}
	return engine.Solve(level)
}

// TickAll advances every live session by dt seconds
func (s *gameServiceImpl) TickAll(dt float64) {
	for _, sess := range s.sessions.List() {
		sess.Lock()
		if !sess.closed {
			sess.Game.Tick(dt)
		}
		sess.Unlock()
	}
}

// Subscribe registers fn for events of every session
func (s *gameServiceImpl) Subscribe(fn EventHandler) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *gameServiceImpl) dispatch(sessionID string, rec EventRecord) {
	s.subsMu.RLock()
	handlers := make([]EventHandler, 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.subsMu.RUnlock()
	for _, h := range handlers {
		h(sessionID, rec)
	}
}

// withSession runs fn with the session locked
func (s *gameServiceImpl) withSession(sessionID string, fn func(sess *Session) error) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	sess.Lock()
	defer sess.Unlock()
	if sess.closed {
		return ErrSessionClosed
	}
	return fn(sess)
}

func (s *gameServiceImpl) action(sessionID string, fn func(g *engine.Game) (bool, string, error)) (*ActionResult, error) {
	var result *ActionResult
	err := s.withSession(sessionID, func(sess *Session) error {
		sess.beginCapture()
		ok, msg, err := fn(sess.Game)
		events := sess.endCapture()
		if err != nil {
			return err
		}
		result = &ActionResult{
			Success: ok,
			Message: msg,
			State:   sess.Game.Snapshot(),
			Events:  events,
		}
		return nil
	})
	return result, err
}

// moveResult must be called with the session locked and capturing
func (s *gameServiceImpl) moveResult(sess *Session, accepted bool) *MoveResult {
	state := sess.Game.Snapshot()
	result := &MoveResult{
		Accepted: accepted,
		State:    state,
		Events:   sess.endCapture(),
	}
	switch {
	case accepted && state.Piece != nil:
		result.Direction = state.Piece.LastDirection
		result.Message = "Moving " + state.Piece.LastDirection
	case state.Replay.State != engine.ReplayIdle.String():
		result.Message = "Level complete, replay in progress"
	case state.Paused:
		result.Message = "Game is paused"
	case state.Piece != nil && state.Piece.Moving:
		result.Message = "Piece is already moving"
	default:
		result.Message = "Gesture ignored"
	}
	return result
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	sess.Lock()
	defer sess.Unlock()
	return s.infoLocked(sess)
}

func (s *gameServiceImpl) infoLocked(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		Profile:        sess.Profile,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
	}
	if !sess.closed {
		info.State = sess.Game.Snapshot()
	}
	return info
}

func pausedMessage(paused bool) string {
	if paused {
		return "Game paused"
	}
	return "Game resumed"
}

func formatRotation(deg float64) string {
	return strconv.FormatFloat(deg, 'f', -1, 64)
}
