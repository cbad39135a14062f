package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, profile string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Swipe(ctx context.Context, sessionID string, start, end engine.Vec2) (*MoveResult, error)
	Move(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	Skip(ctx context.Context, sessionID string) (*ActionResult, error)
	SetPaused(ctx context.Context, sessionID string, paused bool) (*ActionResult, error)
	SetPanelOpen(ctx context.Context, sessionID string, open bool) (*ActionResult, error)
	Advance(ctx context.Context, sessionID string, dt float64, steps int) (*AdvanceResult, error)
	ActivateLevel(ctx context.Context, sessionID string, index int) (*ActionResult, error)
	ReplacePiece(ctx context.Context, sessionID string) (*ActionResult, error)
	ResetProgress(ctx context.Context, sessionID string) (*ActionResult, error)

	// Game State
	GetState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, name string) (*engine.LevelConfig, error)
	SolveLevel(ctx context.Context, name string) (*engine.Solution, error)

	// Clock and events
	TickAll(dt float64)
	Subscribe(fn EventHandler) (unsubscribe func())
}

// EventHandler receives every event of every session. It runs while the
// session is locked and must not call back into the service.
type EventHandler func(sessionID string, rec EventRecord)

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, profile string, game *engine.Game) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Count() int
}

// LevelManager handles level pack loading
type LevelManager interface {
	LoadLevel(name string) (*engine.LevelConfig, error)
	ListLevels() ([]*LevelInfo, error)
	Pack() ([]*engine.LevelConfig, error)
}

// ProgressFactory returns the persisted progress for a player profile
type ProgressFactory func(profile string) engine.ProgressStore

// AudioFactory returns a fresh audio collaborator for a new session. The
// value is added to the game's updaters when it implements engine.Updater.
type AudioFactory func() engine.Audio

// Session represents an active game session. Game is single-threaded, so
// every access goes through Lock.
type Session struct {
	ID             string
	Profile        string
	Game           *engine.Game
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu      sync.Mutex
	events  *eventLog
	capture []EventRecord
	closed  bool
}

// Lock acquires exclusive access to the session's game
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's game
func (s *Session) Unlock() { s.mu.Unlock() }

// Close tears down the game. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.Game != nil {
		s.Game.Close()
	}
}
